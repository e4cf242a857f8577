// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
)

// Sentinel errors reported inside a [SyntaxError]. Use errors.Is to test the
// cause of a parse failure.
var (
	ErrUnexpectedChar       = errors.New("unexpected character")
	ErrUnterminatedString   = errors.New("unterminated string")
	ErrInvalidEscape        = errors.New("invalid escape sequence")
	ErrInvalidUnicodeEscape = errors.New("invalid Unicode escape")
	ErrLoneHighSurrogate    = errors.New("lone high surrogate")
	ErrLoneLowSurrogate     = errors.New("lone low surrogate")
	ErrNumberOutOfRange     = errors.New("number out of range")
	ErrMalformedNumber      = errors.New("malformed number")
	ErrTrailingGarbage      = errors.New("input after top-level value")
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	ErrDepthLimitExceeded   = errors.New("depth limit exceeded")
)

// SyntaxError is the concrete type of all errors reported by the parser.
// It records the cause and the location of the offending input.
type SyntaxError struct {
	Location
	Err   error // one of the Err* sentinels above
	Found rune  // the offending character, when a specific character caused Err
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	if e.Err == ErrUnexpectedChar || (e.Err == ErrTrailingGarbage && e.Found != 0) {
		return fmt.Sprintf("at %s: %v %q", e.Location, e.Err, e.Found)
	}
	return fmt.Sprintf("at %s: %v", e.Location, e.Err)
}

// Unwrap supports error wrapping.
func (e *SyntaxError) Unwrap() error { return e.Err }
