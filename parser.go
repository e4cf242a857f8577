// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/creachadair/jstream/internal/escape"
)

// parseState is the position of the parser within the JSON grammar.
type parseState byte

const (
	parseStart              parseState = iota // expecting the root value
	parseBeforePropertyName                   // expecting a key or }
	parseAfterPropertyName                    // expecting a colon
	parseBeforePropertyValue
	parseBeforeArrayValue
	parseAfterPropertyValue
	parseAfterArrayValue
	parseEnd // the root value is complete
	parseError
)

// A Parser is a push-driven incremental JSON parser. Input arrives in
// arbitrary byte-aligned chunks via Feed; path-tagged events come back from
// the per-feed iterator. The parser carries all cross-feed state itself
// (unread input, the in-flight token, positions, and grammar state), so
// chunks may split the input anywhere, including inside a multi-byte UTF-8
// sequence, an escape, or a surrogate pair.
//
// A Parser is not safe for concurrent use. Independent parsers are fully
// isolated.
type Parser struct {
	sc   scanner
	opts Options

	lexState   lexState
	parseState parseState
	partialLex bool

	// In-flight literal match (true, false, null).
	litWant string
	litKind tokKind
	litPos  int

	// Unicode escape decoding state, persisted across feeds.
	hexAcc         escape.HexAcc
	pendingHigh    uint16
	hasPendingHigh bool
	lastWasLoneLow bool

	// Grammar bookkeeping. The path doubles as the container stack: object
	// frames end in a key component, array frames in an index component.
	path          Path
	pendingKey    bool // an object is open with no key assigned yet
	depth         int  // number of open containers
	initialString bool // no fragment yet emitted for the current string
	rootIndex     int

	endOfInput bool
	finished   bool
	err        error
	active     *Feed
}

// New constructs a parser with the given options.
func New(opts Options) *Parser {
	return &Parser{sc: newScanner(), opts: opts}
}

// Feed delivers the next chunk of input and returns the iterator over the
// events it completes. The previous feed, if still open, is closed first.
// Feed does not consume any input until the iterator is advanced.
//
// Borrowed string fragments share memory with text; they remain valid as
// long as the caller retains them.
func (p *Parser) Feed(text string) *Feed {
	if p.finished {
		panic("jstream: Feed called after Finish")
	}
	p.closeActive()
	if !p.sc.bindBatch(text) {
		p.fail(p.errUnexpected(utf8.RuneError))
	}
	f := &Feed{p: p}
	p.active = f
	return f
}

// Finish signals end of input and returns the iterator that drains any
// remaining events and surfaces final errors. After Finish the parser
// accepts no further input.
func (p *Parser) Finish() *Feed {
	p.closeActive()
	p.finished = true
	p.endOfInput = true
	p.sc.bindBatch("")
	f := &Feed{p: p}
	p.active = f
	return f
}

func (p *Parser) closeActive() {
	if p.active != nil {
		p.active.Close()
	}
}

func (p *Parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
	p.parseState = parseError
}

// A Feed iterates the events completed by one chunk of input. The usual
// pattern is:
//
//	fd := p.Feed(chunk)
//	for fd.Next() {
//	   handle(fd.Event())
//	}
//	if err := fd.Err(); err != nil {
//	   ...
//	}
//
// Next reports false either when the feed has no more complete events (feed
// more input, or call Finish) or when parsing has failed; Err distinguishes
// the two. Close releases the feed early, preserving all in-flight state;
// it is implied by starting another Feed or by Finish.
type Feed struct {
	p  *Parser
	ev Event
}

// Next advances to the next event, reporting false when none is available.
func (f *Feed) Next() bool {
	if f.p == nil || f.p.active != f || f.p.err != nil {
		return false
	}
	ev, ok := f.p.next()
	if !ok {
		return false
	}
	f.ev = ev
	return true
}

// Event returns the current event. It is valid after a true Next.
func (f *Feed) Event() Event { return f.ev }

// Err returns the error that terminated the stream, or nil if parsing can
// continue with more input.
func (f *Feed) Err() error {
	if f.p == nil {
		return nil
	}
	return f.p.err
}

// Close releases the feed. Any in-flight token prefix still borrowing from
// the chunk is copied into the parser's scratch, and the unread tail of the
// chunk is moved to the carry-over ring, so parsing resumes exactly where it
// stopped on the next feed. Close is idempotent.
func (f *Feed) Close() {
	if f.p == nil || f.p.active != f {
		return
	}
	f.p.active = nil
	f.p.sc.finishFeed()
}

// next drives the lex and parse machines until one event is ready, more
// input is needed, or the stream fails.
func (p *Parser) next() (Event, bool) {
	if p.parseState == parseError {
		return Event{}, false
	}
	for {
		if p.opts.AllowMultipleValues && p.parseState == parseEnd {
			p.lexState = lexDefault
			p.parseState = parseStart
			p.path = p.path[:0]
			p.rootIndex++
		}
		tok, err := p.lex()
		if err != nil {
			p.fail(err)
			return Event{}, false
		}
		ev, ok, err := p.dispatch(tok)
		if err != nil {
			p.fail(err)
			return Event{}, false
		}
		if ok {
			return ev, true
		}
		if tok.kind == tokEOF || p.partialLex {
			return Event{}, false
		}
	}
}

// dispatch feeds one lexical token to the parse state machine, possibly
// producing an event.
func (p *Parser) dispatch(tok token) (Event, bool, error) {
	switch p.parseState {
	case parseStart:
		if tok.kind == tokEOF {
			if p.endOfInput && !p.opts.AllowMultipleValues {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		}
		return p.push(tok)

	case parseBeforePropertyName:
		switch tok.kind {
		case tokEOF:
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		case tokKey:
			if !p.pendingKey {
				p.path = p.path[:len(p.path)-1]
			}
			p.path = append(p.path, Key(keyText(tok.frag)))
			p.pendingKey = false
			p.parseState = parseAfterPropertyName
			return Event{}, false, nil
		case tokPunct: // }
			return p.pop(), true, nil
		}
		return Event{}, false, nil

	case parseAfterPropertyName:
		if tok.kind == tokEOF {
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		}
		p.parseState = parseBeforePropertyValue
		return Event{}, false, nil

	case parseBeforePropertyValue:
		if tok.kind == tokEOF {
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		}
		return p.push(tok)

	case parseBeforeArrayValue:
		if tok.kind == tokEOF {
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		}
		if tok.kind == tokPunct && tok.punct == ']' {
			return p.pop(), true, nil
		}
		return p.push(tok)

	case parseAfterPropertyValue:
		switch tok.kind {
		case tokEOF:
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		case tokPunct:
			if tok.punct == ',' {
				p.parseState = parseBeforePropertyName
				return Event{}, false, nil
			}
			return p.pop(), true, nil // }
		}
		return Event{}, false, nil

	case parseAfterArrayValue:
		switch tok.kind {
		case tokEOF:
			if p.endOfInput {
				return Event{}, false, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			return Event{}, false, nil
		case tokPunct:
			if tok.punct == ',' {
				last := len(p.path) - 1
				p.path[last] = Index(p.path[last].index + 1)
				p.parseState = parseBeforeArrayValue
				return Event{}, false, nil
			}
			return p.pop(), true, nil // ]
		}
		return Event{}, false, nil

	case parseEnd, parseError:
		return Event{}, false, nil
	}
	panic("jstream: invalid parse state")
}

// push handles a token in value position.
func (p *Parser) push(tok token) (Event, bool, error) {
	switch tok.kind {
	case tokPunct:
		if p.opts.MaxDepth > 0 && p.depth >= p.opts.MaxDepth {
			return Event{}, false, p.syntaxErr(ErrDepthLimitExceeded)
		}
		p.depth++
		if tok.punct == '{' {
			ev := Event{Kind: ObjectBegin, Path: p.path.clone()}
			p.pendingKey = true
			p.parseState = parseBeforePropertyName
			return ev, true, nil
		}
		ev := Event{Kind: ArrayStart, Path: p.path.clone()} // [
		p.path = append(p.path, Index(0))
		p.parseState = parseBeforeArrayValue
		return ev, true, nil

	case tokNull:
		return p.scalar(Event{Kind: Null, Path: p.path.clone()}), true, nil

	case tokBool:
		return p.scalar(Event{Kind: Boolean, Path: p.path.clone(), Bool: tok.b}), true, nil

	case tokNumber:
		v, err := p.numberValue(tok.frag)
		if err != nil {
			return Event{}, false, err
		}
		return p.scalar(Event{Kind: Number, Path: p.path.clone(), Num: v}), true, nil

	case tokString:
		ev := Event{
			Kind:      String,
			Path:      p.path.clone(),
			Frag:      tok.frag,
			IsInitial: p.initialString,
			IsFinal:   !p.partialLex,
		}
		p.initialString = false
		if !p.partialLex {
			p.afterValue()
		}
		return ev, true, nil
	}
	return Event{}, false, nil
}

func (p *Parser) scalar(ev Event) Event {
	p.afterValue()
	return ev
}

// afterValue restores the parse state from the top of the frame stack once
// a value is complete.
func (p *Parser) afterValue() {
	if len(p.path) == 0 {
		p.parseState = parseEnd
	} else if p.path[len(p.path)-1].isKey {
		p.parseState = parseAfterPropertyValue
	} else {
		p.parseState = parseAfterArrayValue
	}
}

// pop closes the innermost container. The member component is removed
// first, so the end event carries the container's own path.
func (p *Parser) pop() Event {
	var ev Event
	if p.pendingKey {
		// An object closed before any key was assigned: nothing to remove.
		p.pendingKey = false
		ev = Event{Kind: ObjectEnd, Path: p.path.clone()}
	} else {
		last := p.path[len(p.path)-1]
		p.path = p.path[:len(p.path)-1]
		if last.isKey {
			ev = Event{Kind: ObjectEnd, Path: p.path.clone()}
		} else {
			ev = Event{Kind: ArrayEnd, Path: p.path.clone()}
		}
	}
	p.depth--
	p.afterValue()
	return ev
}

// numberValue interprets a number lexeme as a float64.
func (p *Parser) numberValue(frag Fragment) (float64, error) {
	lex, _ := frag.Text() // numbers are never raw
	v, err := strconv.ParseFloat(lex, 64)
	if math.IsInf(v, 0) {
		return 0, p.syntaxErr(ErrNumberOutOfRange)
	}
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, p.syntaxErr(ErrMalformedNumber)
	}
	return v, nil
}

// keyText reports the text of a property-name fragment, copying borrowed
// storage so path components never pin a fed chunk.
func keyText(frag Fragment) string {
	s, _ := frag.Text() // keys are never raw
	if frag.Borrowed() {
		return strings.Clone(s)
	}
	return s
}

func (p *Parser) syntaxErr(err error) error {
	return &SyntaxError{Location: p.sc.loc, Err: err}
}

func (p *Parser) syntaxErrFound(err error, found rune) error {
	return &SyntaxError{Location: p.sc.loc, Err: err, Found: found}
}

func (p *Parser) errUnexpected(found rune) error {
	return p.syntaxErrFound(ErrUnexpectedChar, found)
}
