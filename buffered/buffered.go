// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package buffered decorates the jstream event stream with coalesced string
// values. The core parser reports strings as fragments; consumers that want
// whole strings (or growing prefixes) without assembling them by hand can
// read them from this adapter instead.
package buffered

import "github.com/creachadair/jstream"

// StringMode selects which coalesced string payloads are attached to string
// events.
type StringMode int

const (
	// Deliver fragments only; never attach a coalesced value.
	Fragments StringMode = iota

	// Attach the complete string to the final fragment of each token.
	Values

	// Attach the growing prefix to every fragment.
	Prefixes
)

// ContainerMode selects which container begin/end events are delivered.
type ContainerMode int

const (
	// Suppress all container events.
	NoContainers ContainerMode = iota

	// Deliver container events only for top-level containers.
	RootContainers

	// Deliver all container events.
	AllContainers
)

// Options configure a Stream.
type Options struct {
	// Parser configuration, passed through to jstream.New.
	Parser jstream.Options

	Strings    StringMode
	Containers ContainerMode
}

// An Event is a core parse event, optionally decorated with the coalesced
// contents of the string it belongs to.
type Event struct {
	jstream.Event

	// The coalesced string per the configured StringMode, or nil. For the
	// Prefixes mode this is the concatenation of all fragments of the
	// current string token seen so far, including this one.
	Value []byte

	// Value holds WTF-8 rather than UTF-8 text.
	ValueRaw bool
}

// A Stream consumes parse events and coalesces string fragments by path.
type Stream struct {
	p    *jstream.Parser
	opts Options

	buf []byte // fragments of the string token in flight
	raw bool
}

// NewStream constructs a Stream with the given options.
func NewStream(opts Options) *Stream {
	return &Stream{p: jstream.New(opts.Parser), opts: opts}
}

// Feed delivers the next chunk of input and returns the events it
// completed. On a parse error the coalescing buffer is discarded and the
// error is returned unchanged; no synthesized value is emitted.
func (s *Stream) Feed(chunk string) ([]Event, error) {
	return s.drain(s.p.Feed(chunk))
}

// Finish signals end of input and returns any remaining events.
func (s *Stream) Finish() ([]Event, error) {
	return s.drain(s.p.Finish())
}

func (s *Stream) drain(fd *jstream.Feed) ([]Event, error) {
	var out []Event
	for fd.Next() {
		if ev, ok := s.apply(fd.Event()); ok {
			out = append(out, ev)
		}
	}
	if err := fd.Err(); err != nil {
		s.buf, s.raw = nil, false
		return out, err
	}
	return out, nil
}

func (s *Stream) apply(ev jstream.Event) (Event, bool) {
	switch ev.Kind {
	case jstream.ArrayStart, jstream.ArrayEnd, jstream.ObjectBegin, jstream.ObjectEnd:
		switch s.opts.Containers {
		case NoContainers:
			return Event{}, false
		case RootContainers:
			if len(ev.Path) != 0 {
				return Event{}, false
			}
		}
		return Event{Event: ev}, true

	case jstream.String:
		out := Event{Event: ev}
		if s.opts.Strings != Fragments {
			s.buf = append(s.buf, ev.Frag.Bytes()...)
			s.raw = s.raw || ev.Frag.IsRaw()
			attach := s.opts.Strings == Prefixes || ev.IsFinal
			if attach {
				out.Value = append([]byte{}, s.buf...)
				out.ValueRaw = s.raw
			}
			if ev.IsFinal {
				s.buf, s.raw = nil, false
			}
		}
		return out, true
	}
	return Event{Event: ev}, true
}
