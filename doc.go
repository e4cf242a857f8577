// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package jstream implements a push-driven incremental JSON parser.
//
// # Feeding
//
// A Parser accepts input in arbitrary byte-aligned chunks and reports the
// structure of the input as a linear sequence of path-tagged events. The
// whole document is never buffered: work is linear in the input, and peak
// memory is bounded by the largest single in-flight token plus the nesting
// depth. Chunks may split the input anywhere, including inside a multi-byte
// UTF-8 sequence, an escape, or a surrogate pair.
//
// Each call to Feed returns an iterator over the events that chunk
// completes:
//
//	p := jstream.New(jstream.Options{})
//	for chunk := range source {
//	   fd := p.Feed(chunk)
//	   for fd.Next() {
//	      handle(fd.Event())
//	   }
//	   if err := fd.Err(); err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	}
//
// When the producer is done, Finish drains whatever remains and surfaces
// terminal errors such as an unterminated string:
//
//	fd := p.Finish()
//	for fd.Next() {
//	   handle(fd.Event())
//	}
//
// # Events
//
// Events carry the path of the value they report, as a sequence of object
// keys and array indices. A string value may arrive as several fragments,
// flagged with IsInitial and IsFinal; the concatenation of the fragments is
// the decoded string. Property names never fragment: they are folded into
// the event paths instead of being reported as events.
//
//	Input            | Events
//	---------------- | -----------------------------------------------
//	{"a": [1, "xy"]} | object begin $
//	                 | array start $["a"]
//	                 | number $["a"][0] = 1
//	                 | string $["a"][1] = "xy"
//	                 | array end $["a"]
//	                 | object end $
//
// # Zero copy
//
// String lexemes wholly contained in a single chunk, with no escapes, are
// surfaced as sub-slices of that chunk rather than copies. Number events
// carry only the converted float64 value.
// Only tokens that cross chunk boundaries, contain escapes, or preserve
// unpaired surrogates are accumulated into the parser's own scratch buffer.
// Fragment.Borrowed distinguishes the two.
//
// # Errors
//
// Malformed input fails fast: the iterator reports a *SyntaxError carrying
// the offending character and its position, and the stream terminates.
// There is no recovery; construct a new Parser to continue.
package jstream
