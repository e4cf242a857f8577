// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"testing"

	"github.com/creachadair/jstream"
)

// FuzzChunkSplit checks that splitting any input into two chunks yields the
// same events (modulo string fragmentation) and the same verdict as feeding
// it whole.
func FuzzChunkSplit(f *testing.F) {
	f.Add(`{"a":[1,"two",null]}`, 7)
	f.Add(`"héllo\nworld"`, 3)
	f.Add(`[1e5,-0.25,"😀"]`, 12)
	f.Add(`tru`, 1)
	f.Add(`{"k":"v" `, 5)
	f.Add("\"\xc3\xa9\"", 2)

	f.Fuzz(func(t *testing.T, input string, split int) {
		whole, wholeErr := collect(jstream.Options{}, input)
		if split < 0 {
			split = -split
		}
		split %= len(input) + 1
		parts, partsErr := collect(jstream.Options{}, input[:split], input[split:])

		if (wholeErr == nil) != (partsErr == nil) {
			t.Fatalf("Verdict differs: whole=%v parts=%v", wholeErr, partsErr)
		}
		if wholeErr != nil {
			return // both failed; positions are compared in unit tests
		}
		got, want := coalesce(parts), coalesce(whole)
		if len(got) != len(want) {
			t.Fatalf("Event count differs: got %d, want %d", len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("Event %d differs: got %s, want %s", i, got[i], want[i])
			}
		}
	})
}
