// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings, and the
// UTF-16 surrogate arithmetic used when decoding \u escapes.
package escape

import (
	"errors"
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote encodes a string to escape characters for inclusion in a JSON string.
// The enclosing quotation marks are not added.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len())
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		if r < utf8.RuneSelf {
			if r < ' ' {
				if b := controlEsc[r]; b != 0 {
					buf = append(buf, '\\', b)
				} else {
					buf = append(buf, '\\', 'u', '0', '0', hexDigit[r>>4], hexDigit[r&15])
				}
			} else if r == '\\' || r == '"' {
				buf = append(buf, '\\', byte(r))
			} else {
				buf = append(buf, byte(r))
			}
		} else {
			var rbuf [4]byte
			nb := utf8.EncodeRune(rbuf[:], r)
			buf = append(buf, rbuf[:nb]...)
		}
		src = src.SliceFrom(n)
	}
	return buf
}

var simpleEsc = map[byte]byte{
	'"': '"', '\\': '\\', '/': '/',
	'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t',
}

// Simple reports the decoded value of a single-character escape, or ok false
// if c does not introduce one.
func Simple(c rune) (_ rune, ok bool) {
	if c < 0 || c > 0x7F {
		return 0, false
	}
	b, ok := simpleEsc[byte(c)]
	return rune(b), ok
}

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. Valid
// surrogate pairs are joined; unpaired surrogates and invalid escapes are
// replaced by the Unicode replacement rune. Unquote reports an error for an
// incomplete escape sequence or a \u escape with a non-hex digit.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dec, src), nil
	}

	putRune := func(r rune) { dec = utf8.AppendRune(dec, r) }
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n++
		}
		src = src.SliceFrom(n)

		if s, ok := Simple(r); ok {
			putRune(s)
		} else if r == 'u' {
			v, err := hex4(src)
			if err != nil {
				return nil, err
			}
			src = src.SliceFrom(4)
			switch {
			case IsHigh(v):
				// A paired low half must follow immediately as \uXXXX.
				if src.Len() >= 6 && src.At(0) == '\\' && src.At(1) == 'u' {
					lo, err := hex4(src.SliceFrom(2))
					if err != nil {
						return nil, err
					}
					if IsLow(lo) {
						putRune(Combine(v, lo))
						src = src.SliceFrom(6)
						break
					}
				}
				putRune(utf8.RuneError)
			case IsLow(v):
				putRune(utf8.RuneError)
			default:
				putRune(rune(v))
			}
		} else {
			putRune(utf8.RuneError)
		}

		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

func hex4(data mem.RO) (uint16, error) {
	if data.Len() < 4 {
		return 0, errors.New("incomplete Unicode escape")
	}
	var v uint16
	for i := 0; i < 4; i++ {
		d, ok := HexVal(rune(data.At(i)))
		if !ok {
			return 0, errors.New("invalid hex digit")
		}
		v = v<<4 | d
	}
	return v, nil
}
