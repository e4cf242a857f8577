// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

// A byteRing is a FIFO queue of bytes backed by a circular buffer. The
// parser uses it to carry unread input between feeds. At rest the contents
// are always whole UTF-8 sequences; a scalar may straddle the wraparound
// point, which readers handle by copying up to 4 bytes out (see scanner).
type byteRing struct {
	buf  []byte
	head int // index of the first unread byte
	n    int // number of unread bytes
}

// len reports the number of unread bytes in r.
func (r *byteRing) len() int { return r.n }

// empty reports whether r holds no unread bytes.
func (r *byteRing) empty() bool { return r.n == 0 }

// push appends the bytes of s to the tail of r, growing if needed.
func (r *byteRing) push(s string) {
	if len(s) == 0 {
		return
	}
	if r.n+len(s) > len(r.buf) {
		r.grow(r.n + len(s))
	}
	tail := (r.head + r.n) % len(r.buf)
	nc := copy(r.buf[tail:], s)
	copy(r.buf, s[nc:])
	r.n += len(s)
}

// at returns the byte at offset i from the head. Precondition: i < r.len().
func (r *byteRing) at(i int) byte { return r.buf[(r.head+i)%len(r.buf)] }

// front returns the longest contiguous slice at the head of r. Its length
// may be shorter than r.len() if the contents wrap around.
func (r *byteRing) front() []byte {
	if r.n == 0 {
		return nil
	}
	end := min(r.head+r.n, len(r.buf))
	return r.buf[r.head:end]
}

// drain discards n bytes from the head of r. Precondition: n <= r.len().
func (r *byteRing) drain(n int) {
	r.head = (r.head + n) % len(r.buf)
	r.n -= n
	if r.n == 0 {
		r.head = 0
	}
}

func (r *byteRing) grow(need int) {
	size := max(len(r.buf)*2, 64)
	for size < need {
		size *= 2
	}
	nb := make([]byte, size)
	if r.n > 0 {
		first := copy(nb, r.front())
		copy(nb[first:], r.buf[:r.n-first])
	}
	r.buf, r.head = nb, 0
}
