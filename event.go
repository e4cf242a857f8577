// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// EventKind is the type of a parse event.
type EventKind byte

// Constants defining the valid EventKind values.
const (
	NoEvent     EventKind = iota // zero value; no event
	Null                         // the null constant
	Boolean                      // a true or false constant
	Number                       // a number
	String                       // a string fragment
	ArrayStart                   // the opening bracket of an array
	ArrayEnd                     // the closing bracket of an array
	ObjectBegin                  // the opening brace of an object
	ObjectEnd                    // the closing brace of an object
)

var eventKindStr = [...]string{
	NoEvent:     "no event",
	Null:        "null",
	Boolean:     "boolean",
	Number:      "number",
	String:      "string",
	ArrayStart:  "array start",
	ArrayEnd:    "array end",
	ObjectBegin: "object begin",
	ObjectEnd:   "object end",
}

func (k EventKind) String() string {
	if int(k) >= len(eventKindStr) {
		return eventKindStr[NoEvent]
	}
	return eventKindStr[k]
}

// An Event is one element of the parse event stream. Kind discriminates
// which payload fields are meaningful:
//
//	Kind        | Payload
//	----------- | -----------------------------------------
//	Null        | none
//	Boolean     | Bool
//	Number      | Num
//	String      | Frag, IsInitial, IsFinal
//	ArrayStart  | none
//	ArrayEnd    | none
//	ObjectBegin | none
//	ObjectEnd   | none
//
// Every event carries the Path of the value it reports. A String value may
// be reported as multiple fragment events: IsInitial is true on exactly the
// first fragment of each string token and IsFinal on exactly the last. A
// fragment whose underlying storage borrows from the fed chunk shares memory
// with that chunk; the payload remains valid because the caller owns the
// chunk, but large chunks are pinned for as long as the fragment is retained.
type Event struct {
	Kind EventKind
	Path Path

	Bool      bool
	Num       float64
	Frag      Fragment
	IsInitial bool
	IsFinal   bool
}

func (e Event) String() string {
	switch e.Kind {
	case Boolean:
		return fmt.Sprintf("%s %s %v", e.Kind, e.Path, e.Bool)
	case Number:
		return fmt.Sprintf("%s %s %v", e.Kind, e.Path, e.Num)
	case String:
		return fmt.Sprintf("%s %s %q initial=%v final=%v", e.Kind, e.Path, e.Frag.Bytes(), e.IsInitial, e.IsFinal)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}

// A Fragment is the payload of a String event: decoded text, or raw WTF-8
// bytes when the SurrogatePreserving decode mode preserved an unpaired
// surrogate.
type Fragment struct {
	text     string
	raw      []byte
	isRaw    bool
	borrowed bool
}

func borrowedFragment(s string) Fragment { return Fragment{text: s, borrowed: true} }
func ownedFragment(s string) Fragment    { return Fragment{text: s} }
func rawFragment(b []byte) Fragment      { return Fragment{raw: b, isRaw: true} }

// Text reports the fragment as decoded text. It reports ok == false if the
// fragment is raw WTF-8, in which case use Bytes.
func (f Fragment) Text() (_ string, ok bool) {
	if f.isRaw {
		return "", false
	}
	return f.text, true
}

// Bytes returns the fragment contents: UTF-8 for text fragments, WTF-8 for
// raw fragments. The caller must not modify the returned slice.
func (f Fragment) Bytes() []byte {
	if f.isRaw {
		return f.raw
	}
	return []byte(f.text)
}

// IsRaw reports whether the fragment carries raw WTF-8 bytes.
func (f Fragment) IsRaw() bool { return f.isRaw }

// Borrowed reports whether the fragment storage is a sub-slice of the chunk
// passed to Feed, rather than a copy owned by the parser.
func (f Fragment) Borrowed() bool { return f.borrowed }
