// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

// Options configure the behavior of a [Parser]. The zero value is a strict
// RFC 8259 parser accepting exactly one top-level value.
type Options struct {
	// Accept any Unicode whitespace between tokens. When false, only space,
	// tab, line feed, and carriage return are recognized.
	AllowUnicodeWhitespace bool

	// Accept a stream of concatenated top-level values. When false, input
	// after the first complete value is an error. This supports JSONL and
	// ND-JSON style inputs as well as arbitrary concatenation.
	AllowMultipleValues bool

	// How Unicode escapes and surrogate pairs are decoded inside strings.
	DecodeMode DecodeMode

	// Accept an uppercase \U introducer in addition to \u. The JSON grammar
	// requires lowercase; this is a compatibility knob.
	AllowUppercaseU bool

	// Accept fewer than 4 hex digits after \u, ending the escape at the
	// first non-hex character. Applies uniformly, including to the second
	// half of a surrogate pair. The JSON grammar requires exactly 4 digits.
	AllowShortHex bool

	// Maximum container nesting depth. Zero means no limit.
	MaxDepth int
}

// DecodeMode selects how \uXXXX escapes and UTF-16 surrogate pairs are
// interpreted while decoding JSON strings.
type DecodeMode int

const (
	// Join valid surrogate pairs; report an error for any unpaired
	// surrogate. This is the default.
	StrictUnicode DecodeMode = iota

	// Join valid surrogate pairs; replace any unpaired surrogate with
	// U+FFFD. A reversed pair produces two replacement runes.
	ReplaceInvalid

	// Preserve unpaired surrogates as WTF-8 bytes. A string containing a
	// preserved surrogate is surfaced as a raw-byte fragment rather than
	// text. Object keys remain text: for keys this mode degrades to
	// ReplaceInvalid at the point a surrogate would be preserved.
	SurrogatePreserving
)

var decodeModeStr = [...]string{
	StrictUnicode:       "StrictUnicode",
	ReplaceInvalid:      "ReplaceInvalid",
	SurrogatePreserving: "SurrogatePreserving",
}

func (m DecodeMode) String() string {
	if m < 0 || int(m) >= len(decodeModeStr) {
		return "invalid decode mode"
	}
	return decodeModeStr[m]
}
