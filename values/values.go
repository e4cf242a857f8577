// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package values assembles composite JSON values incrementally from the
// event stream of a jstream.Parser. Each completed top-level value is
// delivered as soon as its last event arrives; optionally, snapshots of the
// value under construction are delivered while it is still growing.
package values

import (
	"strconv"
	"strings"

	"github.com/creachadair/jstream"
	"github.com/creachadair/mds/stack"
)

// A Value is an arbitrary JSON value assembled from parse events.
type Value interface {
	// JSON renders the value as compact JSON text.
	JSON() string

	clone() Value
}

// Null represents the null constant.
type Null struct{}

func (Null) JSON() string { return "null" }
func (n Null) clone() Value { return n }

// A Bool is a Boolean constant.
type Bool bool

func (b Bool) JSON() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) clone() Value { return b }

// A Number is a numeric value.
type Number float64

func (n Number) JSON() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (n Number) clone() Value { return n }

// A String is a string value. Its contents are UTF-8, or WTF-8 when the
// parser preserved unpaired surrogates.
type String struct {
	data []byte
	raw  bool
}

// Text reports the string contents. For raw (WTF-8) strings ok is false;
// use Bytes to read the preserved encoding.
func (s String) Text() (_ string, ok bool) {
	if s.raw {
		return "", false
	}
	return string(s.data), true
}

// Bytes returns the string contents: UTF-8, or WTF-8 when raw.
func (s String) Bytes() []byte { return s.data }

// IsRaw reports whether the contents are WTF-8.
func (s String) IsRaw() bool { return s.raw }

func (s String) JSON() string { return jstream.Quote(string(s.data)) }

func (s String) clone() Value { return s }

// An Array is a sequence of values.
type Array struct {
	Values []Value
}

func (a *Array) JSON() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range a.Values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.JSON())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) clone() Value {
	out := &Array{Values: make([]Value, len(a.Values))}
	for i, v := range a.Values {
		out.Values[i] = v.clone()
	}
	return out
}

// An Object is a collection of key-value members in document order.
type Object struct {
	Members []*Member
}

// Find returns the first member of o with the given key, or nil.
func (o *Object) Find(key string) *Member {
	for _, m := range o.Members {
		if m.Key == key {
			return m
		}
	}
	return nil
}

func (o *Object) JSON() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, m := range o.Members {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(jstream.Quote(m.Key))
		sb.WriteByte(':')
		sb.WriteString(m.Value.JSON())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (o *Object) clone() Value {
	out := &Object{Members: make([]*Member, len(o.Members))}
	for i, m := range o.Members {
		out.Members[i] = &Member{Key: m.Key, Value: m.Value.clone()}
	}
	return out
}

// A Member is a single key-value pair belonging to an Object.
type Member struct {
	Key   string
	Value Value
}

// A Streaming is a value delivered during parsing. Index counts top-level
// values from zero. Final marks a completed value; a non-final Streaming is
// a snapshot of the value still under construction.
type Streaming struct {
	Index int
	Value Value
	Final bool
}

// Options configure a Stream.
type Options struct {
	// Parser configuration, passed through to jstream.New.
	Parser jstream.Options

	// Deliver a snapshot of the in-progress top-level value at the end of
	// each feed that advanced it.
	Partial bool
}

// A Stream consumes parse events and assembles top-level values.
type Stream struct {
	p    *jstream.Parser
	opts Options

	stk  *stack.Stack[Value] // open containers, innermost on top
	root Value
	str  strState
	idx  int
}

// strState accumulates the fragments of the string currently in flight.
type strState struct {
	active bool
	path   jstream.Path
	data   []byte
	raw    bool
}

// NewStream constructs a Stream with the given options.
func NewStream(opts Options) *Stream {
	return &Stream{
		p:    jstream.New(opts.Parser),
		opts: opts,
		stk:  stack.New[Value](),
	}
}

// Feed delivers the next chunk of input and returns the values (and
// snapshots) it completed, in order. On a parse error the partially built
// value is discarded and the error is returned unchanged.
func (s *Stream) Feed(chunk string) ([]Streaming, error) {
	return s.drain(s.p.Feed(chunk), true)
}

// Finish signals end of input and returns any remaining values.
func (s *Stream) Finish() ([]Streaming, error) {
	return s.drain(s.p.Finish(), false)
}

func (s *Stream) drain(fd *jstream.Feed, allowPartial bool) ([]Streaming, error) {
	var out []Streaming
	var advanced bool
	for fd.Next() {
		if v, done := s.apply(fd.Event()); done {
			out = append(out, Streaming{Index: s.idx, Value: v, Final: true})
			s.idx++
		}
		advanced = true
	}
	if err := fd.Err(); err != nil {
		s.reset()
		return out, err
	}
	if allowPartial && s.opts.Partial && advanced {
		if snap, ok := s.snapshot(); ok {
			out = append(out, Streaming{Index: s.idx, Value: snap})
		}
	}
	return out, nil
}

func (s *Stream) reset() {
	s.stk = stack.New[Value]()
	s.root = nil
	s.str = strState{}
}

// apply folds one event into the tree under construction. It reports a
// completed top-level value, if any.
func (s *Stream) apply(ev jstream.Event) (Value, bool) {
	switch ev.Kind {
	case jstream.Null:
		return s.place(ev.Path, Null{})
	case jstream.Boolean:
		return s.place(ev.Path, Bool(ev.Bool))
	case jstream.Number:
		return s.place(ev.Path, Number(ev.Num))
	case jstream.String:
		s.str.active = true
		s.str.path = ev.Path
		s.str.data = append(s.str.data, ev.Frag.Bytes()...)
		s.str.raw = s.str.raw || ev.Frag.IsRaw()
		if !ev.IsFinal {
			return nil, false
		}
		v := String{data: s.str.data, raw: s.str.raw}
		s.str = strState{}
		return s.place(ev.Path, v)
	case jstream.ArrayStart:
		a := &Array{}
		s.enter(ev.Path, a)
		return nil, false
	case jstream.ObjectBegin:
		o := &Object{}
		s.enter(ev.Path, o)
		return nil, false
	case jstream.ArrayEnd, jstream.ObjectEnd:
		v, _ := s.stk.Pop()
		if len(ev.Path) == 0 {
			s.root = nil
			return v, true
		}
		return nil, false
	}
	return nil, false
}

// enter attaches a new container at path and makes it the construction
// point for subsequent events.
func (s *Stream) enter(path jstream.Path, v Value) {
	if len(path) == 0 {
		s.root = v
	} else {
		s.attach(path[len(path)-1], v)
	}
	s.stk.Push(v)
}

// place attaches a completed scalar at path. A scalar at the root is itself
// a completed top-level value.
func (s *Stream) place(path jstream.Path, v Value) (Value, bool) {
	if len(path) == 0 {
		s.root = nil
		return v, true
	}
	s.attach(path[len(path)-1], v)
	return nil, false
}

// attach adds v to the innermost open container under the given component.
// Events arrive in document order, so array attachments always append and
// object attachments always belong to the most recent key.
func (s *Stream) attach(c jstream.PathItem, v Value) {
	if s.stk.IsEmpty() {
		return // unbalanced input; the parser reports the error
	}
	switch parent := s.stk.Top().(type) {
	case *Array:
		parent.Values = append(parent.Values, v)
	case *Object:
		key, _ := c.Key()
		parent.Members = append(parent.Members, &Member{Key: key, Value: v})
	}
}

// snapshot clones the in-progress top-level value, grafting in the prefix
// of any string still being received.
func (s *Stream) snapshot() (Value, bool) {
	if s.root == nil && !s.str.active {
		return nil, false
	}
	if s.root == nil {
		// The root itself is a string still in flight.
		return String{data: append([]byte(nil), s.str.data...), raw: s.str.raw}, true
	}
	snap := s.root.clone()
	if s.str.active && len(s.str.path) > 0 {
		graft(snap, s.str.path, String{
			data: append([]byte(nil), s.str.data...),
			raw:  s.str.raw,
		})
	}
	return snap, true
}

// graft inserts v at path within the cloned tree rooted at root.
func graft(root Value, path jstream.Path, v Value) {
	cur := root
	for i, c := range path {
		last := i == len(path)-1
		switch node := cur.(type) {
		case *Array:
			if idx, ok := c.Index(); ok {
				if last {
					if idx == len(node.Values) {
						node.Values = append(node.Values, v)
					}
					return
				}
				if idx < len(node.Values) {
					cur = node.Values[idx]
					continue
				}
			}
			return
		case *Object:
			key, ok := c.Key()
			if !ok {
				return
			}
			if last {
				if m := node.Find(key); m == nil {
					node.Members = append(node.Members, &Member{Key: key, Value: v})
				}
				return
			}
			m := node.Find(key)
			if m == nil {
				return
			}
			cur = m.Value
		default:
			return
		}
	}
}
