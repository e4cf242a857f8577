// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"unicode"
	"unicode/utf8"

	"github.com/creachadair/jstream/internal/escape"
)

// lexState is the resumable state of the tokenizer. A feed boundary can
// interrupt lexing at any character; the state, together with the scanner's
// scratch and the parser's surrogate register, is all that is needed to
// continue on the next feed.
type lexState byte

const (
	lexDefault lexState = iota // between tokens
	lexValue                   // at the first character of a value

	lexLiteral // inside true, false, or null

	lexNumberSign    // after a leading minus
	lexNumberZero    // after a leading zero
	lexNumberInt     // inside the integer digits
	lexNumberPoint   // after the decimal point
	lexNumberFrac    // inside the fraction digits
	lexNumberExp     // after e or E
	lexNumberExpSign // after the exponent sign
	lexNumberExpInt  // inside the exponent digits

	lexString        // inside a string, outside any escape
	lexStringEscape  // after a backslash
	lexStringUnicode // inside the hex digits of a Unicode escape

	// After a high surrogate escape, a continuation \uXXXX must follow.
	lexStringPairSlash // expecting the backslash
	lexStringPairU     // expecting the u
)

// tokKind is the type of an internal lexical token. Tokens are consumed by
// the parse state machine and never surfaced.
type tokKind byte

const (
	tokEOF    tokKind = iota // need more data, or end of input
	tokPunct                 // one of { } [ ] , :
	tokNull                  // null
	tokBool                  // true or false
	tokNumber                // a complete number lexeme
	tokString                // a string value fragment
	tokKey                   // a complete property name
)

type token struct {
	kind  tokKind
	punct byte
	b     bool
	frag  Fragment
}

// lex drives the lexer until one token is available or an error occurs. A
// tokEOF token with partialLex set means the input ran out mid-stream and
// more data is needed; with partialLex clear it marks true end of input.
func (p *Parser) lex() (token, error) {
	if !p.partialLex {
		p.lexState = lexDefault
	}
	for {
		tok, done, err := p.lexStep()
		if err != nil || done {
			if tok.kind == tokPunct {
				// Punctuators complete unconditionally, even when a
				// need-more pause preceded them in this feed.
				p.partialLex = false
			}
			return tok, err
		}
	}
}

// lexStep processes at most one decision point of the current lex state.
// It reports done == false when lexing should continue with the next
// character.
func (p *Parser) lexStep() (_ token, done bool, _ error) {
	switch p.lexState {
	case lexDefault:
		return p.lexDefaultStep()
	case lexValue:
		return p.lexValueStep()
	case lexLiteral:
		return p.lexLiteralStep()
	case lexNumberSign, lexNumberZero, lexNumberInt, lexNumberPoint,
		lexNumberFrac, lexNumberExp, lexNumberExpSign, lexNumberExpInt:
		return p.lexNumberStep()
	case lexString:
		return p.lexStringStep()
	case lexStringEscape:
		return p.lexEscapeStep()
	case lexStringUnicode:
		return p.lexUnicodeStep()
	case lexStringPairSlash, lexStringPairU:
		return p.lexPairStep()
	}
	panic("jstream: invalid lexer state")
}

func (p *Parser) isSpace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return p.opts.AllowUnicodeWhitespace && unicode.IsSpace(ch)
}

// keyToken reports whether the token being lexed is a property name.
func (p *Parser) keyToken() bool { return p.parseState == parseBeforePropertyName }

func (p *Parser) stringPolicy() fragmentPolicy {
	if p.keyToken() {
		return fragDisallowed
	}
	return fragAllowed
}

// needMore produces the need-more-data sentinel.
func (p *Parser) needMore() (token, bool, error) {
	p.partialLex = true
	return token{kind: tokEOF}, true, nil
}

func (p *Parser) lexDefaultStep() (token, bool, error) {
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			if p.sc.npend > 0 {
				// The input ends inside a truncated UTF-8 sequence.
				return token{}, true, p.syntaxErr(ErrUnexpectedEndOfInput)
			}
			p.partialLex = false
			return token{kind: tokEOF}, true, nil
		}
		return p.needMore()
	}
	if p.isSpace(u.ch) {
		p.sc.advance()
		return token{}, false, nil
	}

	// Dispatch on the grammar position to decide what may start here.
	switch p.parseState {
	case parseStart:
		p.lexState = lexValue
		return token{}, false, nil

	case parseBeforePropertyName:
		switch u.ch {
		case '}':
			if !p.pendingKey {
				break // a trailing comma before }
			}
			p.sc.advance()
			return token{kind: tokPunct, punct: '}'}, true, nil
		case '"':
			p.sc.advance()
			p.sc.begin(fragDisallowed)
			p.lexState = lexString
			return token{}, false, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case parseAfterPropertyName:
		if u.ch == ':' {
			p.sc.advance()
			return token{kind: tokPunct, punct: ':'}, true, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case parseBeforePropertyValue:
		p.lexState = lexValue
		return token{}, false, nil

	case parseBeforeArrayValue:
		// ] may close an empty array, but not follow a comma.
		if u.ch == ']' && p.path[len(p.path)-1].index == 0 {
			p.sc.advance()
			return token{kind: tokPunct, punct: ']'}, true, nil
		}
		p.lexState = lexValue
		return token{}, false, nil

	case parseAfterPropertyValue:
		if u.ch == ',' || u.ch == '}' {
			p.sc.advance()
			return token{kind: tokPunct, punct: byte(u.ch)}, true, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case parseAfterArrayValue:
		if u.ch == ',' || u.ch == ']' {
			p.sc.advance()
			return token{kind: tokPunct, punct: byte(u.ch)}, true, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case parseEnd:
		return token{}, true, p.syntaxErrFound(ErrTrailingGarbage, u.ch)
	}
	panic("jstream: invalid parse state")
}

func (p *Parser) lexValueStep() (token, bool, error) {
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnexpectedEndOfInput)
		}
		return p.needMore()
	}

	switch {
	case u.ch == '{' || u.ch == '[':
		p.sc.advance()
		p.partialLex = false
		return token{kind: tokPunct, punct: byte(u.ch)}, true, nil

	case u.ch == 'n' || u.ch == 't' || u.ch == 'f':
		p.sc.advance()
		switch u.ch {
		case 'n':
			p.litWant, p.litKind = "null", tokNull
		case 't':
			p.litWant, p.litKind = "true", tokBool
		case 'f':
			p.litWant, p.litKind = "false", tokBool
		}
		p.litPos = 1
		p.lexState = lexLiteral
		return token{}, false, nil

	case u.ch == '-':
		p.sc.begin(fragDisallowed)
		p.sc.capture()
		p.lexState = lexNumberSign
		return token{}, false, nil

	case u.ch == '0':
		p.sc.begin(fragDisallowed)
		p.sc.capture()
		p.lexState = lexNumberZero
		return token{}, false, nil

	case u.ch >= '1' && u.ch <= '9':
		p.sc.begin(fragDisallowed)
		p.sc.capture()
		p.lexState = lexNumberInt
		return token{}, false, nil

	case u.ch == '"':
		p.sc.advance()
		p.sc.begin(fragAllowed)
		p.lexState = lexString
		p.initialString = true
		return token{}, false, nil
	}
	return token{}, true, p.errUnexpected(u.ch)
}

func (p *Parser) lexLiteralStep() (token, bool, error) {
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnexpectedEndOfInput)
		}
		return p.needMore()
	}
	if u.ch != rune(p.litWant[p.litPos]) {
		return token{}, true, p.errUnexpected(u.ch)
	}
	p.sc.advance()
	p.litPos++
	if p.litPos < len(p.litWant) {
		return token{}, false, nil
	}
	p.partialLex = false
	if p.litKind == tokNull {
		return token{kind: tokNull}, true, nil
	}
	return token{kind: tokBool, b: p.litWant == "true"}, true, nil
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
func isDigitRune(c rune) bool { return c >= '0' && c <= '9' }

func (p *Parser) lexNumberStep() (token, bool, error) {
	p.sc.ensureBegun(fragDisallowed)
	u, st := p.sc.peek()
	if st == peekInvalid {
		return token{}, true, p.errUnexpected(utf8.RuneError)
	}
	if st == peekEmpty && !p.endOfInput {
		return p.needMore()
	}
	eoi := st != peekOK // end of input reached

	switch p.lexState {
	case lexNumberSign:
		if eoi {
			return token{}, true, p.syntaxErr(ErrMalformedNumber)
		}
		switch {
		case u.ch == '0':
			p.sc.capture()
			p.lexState = lexNumberZero
		case isDigitRune(u.ch):
			p.sc.capture()
			p.lexState = lexNumberInt
		default:
			return token{}, true, p.errUnexpected(u.ch)
		}
		return token{}, false, nil

	case lexNumberZero:
		if !eoi {
			switch {
			case u.ch == '.':
				p.sc.capture()
				p.lexState = lexNumberPoint
				return token{}, false, nil
			case u.ch == 'e' || u.ch == 'E':
				p.sc.capture()
				p.lexState = lexNumberExp
				return token{}, false, nil
			}
		}
		return p.finishNumber()

	case lexNumberInt:
		if !eoi {
			switch {
			case isDigitRune(u.ch):
				p.sc.capture()
				p.sc.copyASCIIWhile(isDigitByte)
				return token{}, false, nil
			case u.ch == '.':
				p.sc.capture()
				p.lexState = lexNumberPoint
				return token{}, false, nil
			case u.ch == 'e' || u.ch == 'E':
				p.sc.capture()
				p.lexState = lexNumberExp
				return token{}, false, nil
			}
		}
		return p.finishNumber()

	case lexNumberPoint:
		if eoi {
			return token{}, true, p.syntaxErr(ErrMalformedNumber)
		}
		if isDigitRune(u.ch) {
			p.sc.capture()
			p.sc.copyASCIIWhile(isDigitByte)
			p.lexState = lexNumberFrac
			return token{}, false, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case lexNumberFrac:
		if !eoi {
			switch {
			case isDigitRune(u.ch):
				p.sc.capture()
				p.sc.copyASCIIWhile(isDigitByte)
				return token{}, false, nil
			case u.ch == 'e' || u.ch == 'E':
				p.sc.capture()
				p.lexState = lexNumberExp
				return token{}, false, nil
			}
		}
		return p.finishNumber()

	case lexNumberExp:
		if eoi {
			return token{}, true, p.syntaxErr(ErrMalformedNumber)
		}
		switch {
		case u.ch == '+' || u.ch == '-':
			p.sc.capture()
			p.lexState = lexNumberExpSign
		case isDigitRune(u.ch):
			p.sc.capture()
			p.sc.copyASCIIWhile(isDigitByte)
			p.lexState = lexNumberExpInt
		default:
			return token{}, true, p.errUnexpected(u.ch)
		}
		return token{}, false, nil

	case lexNumberExpSign:
		if eoi {
			return token{}, true, p.syntaxErr(ErrMalformedNumber)
		}
		if isDigitRune(u.ch) {
			p.sc.capture()
			p.sc.copyASCIIWhile(isDigitByte)
			p.lexState = lexNumberExpInt
			return token{}, false, nil
		}
		return token{}, true, p.errUnexpected(u.ch)

	case lexNumberExpInt:
		if !eoi && isDigitRune(u.ch) {
			p.sc.capture()
			p.sc.copyASCIIWhile(isDigitByte)
			return token{}, false, nil
		}
		return p.finishNumber()
	}
	panic("jstream: invalid number state")
}

// finishNumber emits the number token ending at the current position. The
// terminating character, if any, is left unconsumed.
func (p *Parser) finishNumber() (token, bool, error) {
	p.partialLex = false
	return token{kind: tokNumber, frag: p.sc.emitFinal()}, true, nil
}

// stringPartial surfaces progress on an interrupted string token. Value
// strings may emit a partial fragment; property names never do.
func (p *Parser) stringPartial() (token, bool, error) {
	p.partialLex = true
	if p.keyToken() {
		return token{kind: tokEOF}, true, nil
	}
	if frag, ok := p.sc.emitPartial(); ok {
		return token{kind: tokString, frag: frag}, true, nil
	}
	return token{kind: tokEOF}, true, nil
}

func isStringContent(c rune) bool { return c != '\\' && c != '"' && c >= 0x20 }

func (p *Parser) lexStringStep() (token, bool, error) {
	p.sc.ensureBegun(p.stringPolicy())
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnterminatedString)
		}
		return p.stringPartial()
	}
	if u.ch != '\\' {
		// Content or the closing quote separates any earlier lone low half
		// from a later high half: they no longer form a reversed pair.
		p.lastWasLoneLow = false
	}

	switch {
	case u.ch == '\\':
		// Surface any borrowable prefix before the escape corrupts it, then
		// commit the token to owned mode.
		frag, emit := p.sc.yieldPrefix()
		p.sc.markEscape()
		p.sc.advance()
		p.lexState = lexStringEscape
		if emit {
			p.partialLex = true
			return token{kind: tokString, frag: frag}, true, nil
		}
		return token{}, false, nil

	case u.ch == '"':
		frag := p.sc.emitFinal() // emit, then advance the delimiter
		p.sc.advance()
		p.partialLex = false
		if p.keyToken() {
			return token{kind: tokKey, frag: frag}, true, nil
		}
		return token{kind: tokString, frag: frag}, true, nil

	case u.ch < 0x20:
		return token{}, true, p.errUnexpected(u.ch)
	}

	// Plain content: consume as long a run as possible without giving up
	// borrow eligibility.
	p.sc.copyASCIIWhile(func(b byte) bool { return isStringContent(rune(b)) })
	p.sc.copyCharWhile(isStringContent)
	return token{}, false, nil
}

func (p *Parser) lexEscapeStep() (token, bool, error) {
	// Re-anchoring inside an escape must not revive borrow eligibility: the
	// bytes being consumed are escape text, not string content.
	p.sc.ensureBegun(p.stringPolicy())
	p.sc.markEscape()
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnterminatedString)
		}
		return p.stringPartial()
	}

	if dec, ok := escape.Simple(u.ch); ok {
		p.sc.advance()
		p.sc.pushRune(dec)
		p.lastWasLoneLow = false
		p.lexState = lexString
		return token{}, false, nil
	}
	if u.ch == 'u' || (u.ch == 'U' && p.opts.AllowUppercaseU) {
		p.sc.advance()
		p.hexAcc.Reset()
		p.lexState = lexStringUnicode
		return token{}, false, nil
	}
	return token{}, true, p.syntaxErrFound(ErrInvalidEscape, u.ch)
}

func (p *Parser) lexUnicodeStep() (token, bool, error) {
	// Re-anchoring inside an escape must not revive borrow eligibility: the
	// bytes being consumed are escape text, not string content.
	p.sc.ensureBegun(p.stringPolicy())
	p.sc.markEscape()
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnterminatedString)
		}
		return p.stringPartial()
	}

	if code, complete, ok := p.hexAcc.Feed(u.ch); ok {
		p.sc.advance()
		if !complete {
			return token{}, false, nil
		}
		return token{}, false, p.applyEscapeCode(code)
	}

	// Not a hex digit. With short hex enabled, an escape with at least one
	// digit ends here and the character is reprocessed as string content.
	if p.opts.AllowShortHex && p.hexAcc.Len() > 0 {
		return token{}, false, p.applyEscapeCode(p.hexAcc.Take())
	}
	return token{}, true, p.syntaxErrFound(ErrInvalidUnicodeEscape, u.ch)
}

// effectiveMode reports the decode mode for the current token. Property
// names cannot carry raw bytes, so SurrogatePreserving degrades to
// ReplaceInvalid for them at the point a surrogate would be preserved.
func (p *Parser) effectiveMode() DecodeMode {
	if p.opts.DecodeMode == SurrogatePreserving && p.keyToken() {
		return ReplaceInvalid
	}
	return p.opts.DecodeMode
}

// applyEscapeCode folds one decoded \uXXXX code unit into the current
// string token, handling surrogate pairing across escapes and feeds.
func (p *Parser) applyEscapeCode(code uint16) error {
	mode := p.effectiveMode()
	switch {
	case escape.IsHigh(code):
		if p.hasPendingHigh {
			// Two high halves in a row: resolve the earlier one.
			switch mode {
			case StrictUnicode:
				return p.syntaxErr(ErrLoneHighSurrogate)
			case SurrogatePreserving:
				p.sc.ensureRaw()
				p.sc.pushRaw(escape.AppendWTF8(nil, p.pendingHigh))
			case ReplaceInvalid:
				p.sc.pushRune(utf8.RuneError)
			}
		}
		if mode == SurrogatePreserving && p.lastWasLoneLow {
			// A reversed pair: the low half was already preserved, so this
			// high half stands alone as well.
			p.sc.pushRaw(escape.AppendWTF8(nil, code))
			p.lastWasLoneLow = false
			p.hasPendingHigh = false
			p.lexState = lexString
			return nil
		}
		p.pendingHigh, p.hasPendingHigh = code, true
		p.lexState = lexStringPairSlash
		return nil

	case escape.IsLow(code):
		if p.hasPendingHigh {
			p.sc.pushRune(escape.Combine(p.pendingHigh, code))
			p.hasPendingHigh = false
			p.lexState = lexString
			return nil
		}
		switch mode {
		case StrictUnicode:
			return p.syntaxErr(ErrLoneLowSurrogate)
		case SurrogatePreserving:
			p.sc.pushRaw(escape.AppendWTF8(nil, code))
			p.lastWasLoneLow = true
		case ReplaceInvalid:
			p.sc.pushRune(utf8.RuneError)
		}
		p.lexState = lexString
		return nil
	}

	// An ordinary scalar. A pending high half, if any, is unpaired.
	if p.hasPendingHigh {
		if err := p.resolveLoneHigh(mode); err != nil {
			return err
		}
	}
	p.sc.pushRune(rune(code))
	p.lastWasLoneLow = false
	p.lexState = lexString
	return nil
}

// resolveLoneHigh disposes of a pending high surrogate that turned out to
// have no matching low half.
func (p *Parser) resolveLoneHigh(mode DecodeMode) error {
	p.hasPendingHigh = false
	switch mode {
	case StrictUnicode:
		return p.syntaxErr(ErrLoneHighSurrogate)
	case SurrogatePreserving:
		p.sc.pushRaw(escape.AppendWTF8(nil, p.pendingHigh))
	case ReplaceInvalid:
		p.sc.pushRune(utf8.RuneError)
	}
	return nil
}

// lexPairStep expects the \u introducing the low half of a surrogate pair.
// Any other input resolves the pending high half according to the decode
// mode and is then reprocessed: as ordinary string input if no backslash
// followed the high half, or as the letter of an escape if one did.
func (p *Parser) lexPairStep() (token, bool, error) {
	// Re-anchoring inside an escape must not revive borrow eligibility: the
	// bytes being consumed are escape text, not string content.
	p.sc.ensureBegun(p.stringPolicy())
	p.sc.markEscape()
	u, st := p.sc.peek()
	switch st {
	case peekInvalid:
		if err := p.resolveLoneHigh(p.effectiveMode()); err != nil {
			return token{}, true, err
		}
		return token{}, true, p.errUnexpected(utf8.RuneError)
	case peekEmpty:
		if p.endOfInput {
			return token{}, true, p.syntaxErr(ErrUnterminatedString)
		}
		return p.stringPartial()
	}

	if p.lexState == lexStringPairSlash && u.ch == '\\' {
		p.sc.advance()
		p.lexState = lexStringPairU
		return token{}, false, nil
	}
	if p.lexState == lexStringPairU && (u.ch == 'u' || (u.ch == 'U' && p.opts.AllowUppercaseU)) {
		p.sc.advance()
		p.hexAcc.Reset()
		p.lexState = lexStringUnicode
		return token{}, false, nil
	}

	// The continuation never arrived; u.ch is not consumed here.
	if err := p.resolveLoneHigh(p.effectiveMode()); err != nil {
		return token{}, true, err
	}
	if p.lexState == lexStringPairU {
		p.lexState = lexStringEscape // the backslash is already consumed
	} else {
		p.lexState = lexString
	}
	return token{}, false, nil
}
