// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package buffered_test

import (
	"fmt"
	"testing"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/buffered"
	"github.com/google/go-cmp/cmp"
)

// feedAll pushes input through a fresh stream in the given chunk sizes.
func feedAll(opts buffered.Options, input string, chunkSize int) ([]buffered.Event, error) {
	s := buffered.NewStream(opts)
	var out []buffered.Event
	for off := 0; off < len(input); off += chunkSize {
		end := min(off+chunkSize, len(input))
		got, err := s.Feed(input[off:end])
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	got, err := s.Finish()
	return append(out, got...), err
}

// render gives a compact transcript line per event.
func render(evs []buffered.Event) []string {
	var out []string
	for _, ev := range evs {
		line := ev.Event.String()
		if ev.Value != nil {
			line += fmt.Sprintf(" value=%q", ev.Value)
		}
		out = append(out, line)
	}
	return out
}

func TestStringValues(t *testing.T) {
	opts := buffered.Options{Strings: buffered.Values, Containers: buffered.AllContainers}
	// Chunk size 4 splits the string value across feeds.
	got, err := feedAll(opts, `{"a":"hello","b":[1]}`, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var final []string
	for _, ev := range got {
		if ev.Kind == jstream.String && ev.IsFinal {
			if ev.Value == nil {
				t.Errorf("Final fragment %v has no coalesced value", ev)
				continue
			}
			final = append(final, string(ev.Value))
		} else if ev.Kind == jstream.String && ev.Value != nil {
			t.Errorf("Non-final fragment %v has a value", ev)
		}
	}
	if diff := cmp.Diff([]string{"hello"}, final); diff != "" {
		t.Errorf("Values: (-want, +got)\n%s", diff)
	}
}

func TestStringPrefixes(t *testing.T) {
	opts := buffered.Options{Strings: buffered.Prefixes}
	got, err := feedAll(opts, `"hello"`, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var prefixes []string
	for _, ev := range got {
		if ev.Kind != jstream.String {
			t.Fatalf("Unexpected event: %v", ev)
		}
		if ev.Value == nil {
			t.Fatalf("Fragment without prefix value: %v", ev)
		}
		prefixes = append(prefixes, string(ev.Value))
	}
	// Prefixes grow monotonically and end with the whole string.
	for i := 1; i < len(prefixes); i++ {
		if len(prefixes[i]) < len(prefixes[i-1]) || prefixes[i][:len(prefixes[i-1])] != prefixes[i-1] {
			t.Errorf("Prefix %d does not extend %q: %q", i, prefixes[i-1], prefixes[i])
		}
	}
	if prefixes[len(prefixes)-1] != "hello" {
		t.Errorf("Last prefix: got %q, want %q", prefixes[len(prefixes)-1], "hello")
	}
}

func TestFragmentsMode(t *testing.T) {
	got, err := feedAll(buffered.Options{}, `"hello"`, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var body string
	for _, ev := range got {
		if ev.Value != nil {
			t.Errorf("Fragment mode attached a value: %v", ev)
		}
		body += string(ev.Frag.Bytes())
	}
	if body != "hello" {
		t.Errorf("Concatenation: got %q, want %q", body, "hello")
	}
}

func TestContainerModes(t *testing.T) {
	const input = `{"a":[1,{"b":2}]}`
	counts := func(mode buffered.ContainerMode) (n int) {
		got, err := feedAll(buffered.Options{Containers: mode}, input, 1<<20)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, ev := range got {
			switch ev.Kind {
			case jstream.ArrayStart, jstream.ArrayEnd, jstream.ObjectBegin, jstream.ObjectEnd:
				n++
			}
		}
		return n
	}
	if got := counts(buffered.NoContainers); got != 0 {
		t.Errorf("NoContainers: got %d events, want 0", got)
	}
	if got := counts(buffered.RootContainers); got != 2 {
		t.Errorf("RootContainers: got %d events, want 2", got)
	}
	if got := counts(buffered.AllContainers); got != 6 {
		t.Errorf("AllContainers: got %d events, want 6", got)
	}
}

func TestErrorClearsBuffer(t *testing.T) {
	s := buffered.NewStream(buffered.Options{Strings: buffered.Values})
	if _, err := s.Feed(`"abc` + "\x01"); err == nil {
		t.Fatal("Expected an error")
	}
	// No synthesized value: the partial string is simply gone.
	got, err := feedAll(buffered.Options{Strings: buffered.Values}, `"xyz"`, 1<<20)
	if err != nil {
		t.Fatalf("Recovery parse failed: %v", err)
	}
	if len(got) != 1 || string(got[0].Value) != "xyz" {
		t.Errorf("Recovery: got %v", render(got))
	}
}

func TestRawCoalescing(t *testing.T) {
	opts := buffered.Options{
		Parser:  jstream.Options{DecodeMode: jstream.SurrogatePreserving},
		Strings: buffered.Values,
	}
	got, err := feedAll(opts, `"a\uD83Db"`, 1<<20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	last := got[len(got)-1]
	if !last.IsFinal || last.Value == nil {
		t.Fatalf("Missing final coalesced value: %v", render(got))
	}
	if !last.ValueRaw {
		t.Error("Coalesced value is not marked raw")
	}
	want := append([]byte("a"), 0xED, 0xA0, 0xBD, 'b')
	if diff := cmp.Diff(want, last.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}
