// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"strings"
	"testing"
)

func ringString(r *byteRing) string {
	var sb strings.Builder
	for i := 0; i < r.len(); i++ {
		sb.WriteByte(r.at(i))
	}
	return sb.String()
}

func TestByteRing(t *testing.T) {
	var r byteRing
	if !r.empty() || r.len() != 0 {
		t.Error("New ring is not empty")
	}
	r.push("")
	if !r.empty() {
		t.Error("Pushing nothing changed the ring")
	}

	r.push("hello")
	if got := ringString(&r); got != "hello" {
		t.Errorf("Contents: got %q, want %q", got, "hello")
	}
	r.drain(3)
	if got := ringString(&r); got != "lo" {
		t.Errorf("After drain: got %q, want %q", got, "lo")
	}

	// Force growth: fill past the initial capacity with the head moved.
	big := strings.Repeat("abcdefgh", 16)
	r.push(big)
	if got := ringString(&r); got != "lo"+big {
		t.Errorf("After push: got %q, want %q", got, "lo"+big)
	}
	r.drain(2)
	if got, want := ringString(&r), big; got != want {
		t.Errorf("After drain: got %q, want %q", got, want)
	}

	// Drain everything; the ring resets.
	r.drain(r.len())
	if !r.empty() {
		t.Error("Ring is not empty after full drain")
	}
}

func TestByteRingWrap(t *testing.T) {
	var r byteRing
	r.push("0123456789")
	r.drain(8)

	// The head is near the end of the buffer, so this push wraps.
	r.push(strings.Repeat("x", 60))
	want := "89" + strings.Repeat("x", 60)
	if got := ringString(&r); got != want {
		t.Errorf("Contents: got %q, want %q", got, want)
	}

	// front must be a contiguous prefix of the logical contents.
	f := r.front()
	if !strings.HasPrefix(want, string(f)) {
		t.Errorf("Front %q is not a prefix of %q", f, want)
	}
	if len(f) == 0 {
		t.Error("Front of a non-empty ring is empty")
	}
}
