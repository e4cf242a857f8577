// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// A Location describes a position in the input stream. Offsets are measured
// in Unicode scalars, not bytes, so they are stable across chunk boundaries
// that split multi-byte sequences.
type Location struct {
	Pos    int // offset from the start of the stream, 0-based
	Line   int // line number, 1-based
	Column int // column offset in the current line, 1-based
}

func (loc Location) String() string { return fmt.Sprintf("%d:%d", loc.Line, loc.Column) }
