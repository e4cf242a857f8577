// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package escape

// IsHigh reports whether u is a UTF-16 high surrogate (U+D800..U+DBFF).
func IsHigh(u uint16) bool { return u >= 0xD800 && u <= 0xDBFF }

// IsLow reports whether u is a UTF-16 low surrogate (U+DC00..U+DFFF).
func IsLow(u uint16) bool { return u >= 0xDC00 && u <= 0xDFFF }

// IsSurrogate reports whether u is either half of a surrogate pair.
func IsSurrogate(u uint16) bool { return u >= 0xD800 && u <= 0xDFFF }

// Combine joins a high/low surrogate pair into the scalar it encodes.
func Combine(high, low uint16) rune {
	return 0x10000 + (rune(high-0xD800)<<10 | rune(low-0xDC00))
}

// AppendWTF8 appends the WTF-8 encoding of the unpaired surrogate u to dst.
// WTF-8 extends UTF-8 by admitting the three-byte encodings of surrogate
// code points, which strict UTF-8 encoders reject.
func AppendWTF8(dst []byte, u uint16) []byte {
	return append(dst,
		0xE0|byte(u>>12),
		0x80|byte(u>>6&0x3F),
		0x80|byte(u&0x3F))
}

// HexVal reports the value of the ASCII hex digit c.
func HexVal(c rune) (uint16, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint16(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint16(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint16(c-'A') + 10, true
	}
	return 0, false
}

// A HexAcc accumulates the hex digits of a \uXXXX escape one character at a
// time, preserving its progress across input boundaries.
type HexAcc struct {
	acc uint16
	n   int
}

// Reset clears any accumulated digits.
func (h *HexAcc) Reset() { h.acc, h.n = 0, 0 }

// Len reports the number of digits accumulated so far.
func (h *HexAcc) Len() int { return h.n }

// Feed accumulates one hex digit. It reports done == true with the code unit
// once four digits have arrived, and ok == false if c is not a hex digit.
// After done the accumulator resets for the next escape.
func (h *HexAcc) Feed(c rune) (code uint16, done, ok bool) {
	d, ok := HexVal(c)
	if !ok {
		return 0, false, false
	}
	h.acc = h.acc<<4 | d
	h.n++
	if h.n < 4 {
		return 0, false, true
	}
	code = h.acc
	h.Reset()
	return code, true, true
}

// Take ends accumulation early, returning the code unit of the digits seen
// so far. It is used when short hex escapes are permitted.
func (h *HexAcc) Take() uint16 {
	code := h.acc
	h.Reset()
	return code
}
