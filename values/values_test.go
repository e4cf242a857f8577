// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package values_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/values"
	"github.com/google/go-cmp/cmp"
	"github.com/valyala/fastjson"
)

// feedAll pushes input through a fresh stream in the given chunk sizes and
// returns all streaming results.
func feedAll(opts values.Options, input string, chunkSize int) ([]values.Streaming, error) {
	s := values.NewStream(opts)
	var out []values.Streaming
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

func TestAssembleBasic(t *testing.T) {
	tests := []struct {
		input string
		want  string // JSON rendering of the assembled value
	}{
		{`null`, `null`},
		{`true`, `true`},
		{`-2.5`, `-2.5`},
		{`"hello"`, `"hello"`},
		{`[]`, `[]`},
		{`{}`, `{}`},
		{`[1,[2,[3]],{}]`, `[1,[2,[3]],{}]`},
		{`{"a":{"b":[true,null]},"c":"d"}`, `{"a":{"b":[true,null]},"c":"d"}`},
		{`["he\tllo","wörld"]`, `["he\tllo","wörld"]`},
	}
	for _, test := range tests {
		for _, chunkSize := range []int{1, 3, 1 << 20} {
			got, err := feedAll(values.Options{}, test.input, chunkSize)
			if err != nil {
				t.Errorf("Input: %#q\nUnexpected error: %v", test.input, err)
				continue
			}
			if len(got) != 1 {
				t.Errorf("Input: %#q\nGot %d values, want 1", test.input, len(got))
				continue
			}
			if !got[0].Final || got[0].Index != 0 {
				t.Errorf("Input: %#q\nGot index=%d final=%v", test.input, got[0].Index, got[0].Final)
			}
			if diff := cmp.Diff(test.want, got[0].Value.JSON()); diff != "" {
				t.Errorf("Input: %#q chunk %d: (-want, +got)\n%s", test.input, chunkSize, diff)
			}
		}
	}
}

func TestMultipleRoots(t *testing.T) {
	opts := values.Options{Parser: jstream.Options{AllowMultipleValues: true}}
	got, err := feedAll(opts, "1 \"two\" [3] {\"four\":4}\n", 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var render []string
	for _, sv := range got {
		if !sv.Final {
			t.Errorf("Value %d is not final", sv.Index)
		}
		render = append(render, fmt.Sprintf("%d:%s", sv.Index, sv.Value.JSON()))
	}
	want := []string{`0:1`, `1:"two"`, `2:[3]`, `3:{"four":4}`}
	if diff := cmp.Diff(want, render); diff != "" {
		t.Errorf("Values: (-want, +got)\n%s", diff)
	}
}

func TestPartialSnapshots(t *testing.T) {
	s := values.NewStream(values.Options{Partial: true})

	got, err := s.Feed(`{"msg":"hel`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Final {
		t.Fatalf("Got %+v, want one non-final snapshot", got)
	}
	if diff := cmp.Diff(`{"msg":"hel"}`, got[0].Value.JSON()); diff != "" {
		t.Errorf("Snapshot: (-want, +got)\n%s", diff)
	}

	got, err = s.Feed(`lo","n":1}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Final {
		t.Fatalf("Got %+v, want one final value", got)
	}
	if diff := cmp.Diff(`{"msg":"hello","n":1}`, got[0].Value.JSON()); diff != "" {
		t.Errorf("Final: (-want, +got)\n%s", diff)
	}
}

func TestErrorDiscardsPartial(t *testing.T) {
	s := values.NewStream(values.Options{})
	if _, err := s.Feed(`{"a": [1, }`); err == nil {
		t.Fatal("Expected an error")
	}
	// A fresh parse cannot be resumed on the same stream; the partial tree
	// must be gone. (A new stream confirms the input prefix was the culprit.)
	got, err := feedAll(values.Options{}, `{"a": [1, 2]}`, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recovery parse: got %v values, err=%v", got, err)
	}
}

func TestObjectFind(t *testing.T) {
	got, err := feedAll(values.Options{}, `{"a":1,"b":"two"}`, 1<<20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	obj, ok := got[0].Value.(*values.Object)
	if !ok {
		t.Fatalf("Got %T, want *values.Object", got[0].Value)
	}
	if m := obj.Find("b"); m == nil {
		t.Error("Find b: not found")
	} else if s, ok := m.Value.(values.String); !ok {
		t.Errorf("Member b: got %T, want String", m.Value)
	} else if text, _ := s.Text(); text != "two" {
		t.Errorf("Member b: got %q, want %q", text, "two")
	}
	if m := obj.Find("missing"); m != nil {
		t.Errorf("Find missing: got %+v, want nil", m)
	}
}

func TestRawString(t *testing.T) {
	opts := values.Options{Parser: jstream.Options{DecodeMode: jstream.SurrogatePreserving}}
	got, err := feedAll(opts, `"\uD83D"`, 1<<20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s, ok := got[0].Value.(values.String)
	if !ok {
		t.Fatalf("Got %T, want String", got[0].Value)
	}
	if !s.IsRaw() {
		t.Error("String is not raw")
	}
	if diff := cmp.Diff([]byte{0xED, 0xA0, 0xBD}, s.Bytes()); diff != "" {
		t.Errorf("Bytes: (-want, +got)\n%s", diff)
	}
}

// The assembled trees must agree with an independent whole-document parser.
func TestOracleAgreement(t *testing.T) {
	docs := []string{
		`{"id":7,"name":"widget","dims":[2.5,4,-1e3],"ok":true,"sub":{"note":null}}`,
		`[[],{},[[1,2,3]],{"a":{"b":{"c":"deep"}}}]`,
		`{"text":"line1\nline2\ttabbed","emoji":"😀","accents":"éüß"}`,
		`[0,-0.5,1e10,1e-10,123456.789]`,
		`{"mixed":[true,false,null,"s",0,{"k":[]}]}`,
	}
	rng := rand.New(rand.NewSource(99))
	for _, doc := range docs {
		want, err := fastjson.Parse(doc)
		if err != nil {
			t.Fatalf("Oracle rejected %#q: %v", doc, err)
		}
		for trial := 0; trial < 8; trial++ {
			size := 1 + rng.Intn(len(doc))
			got, err := feedAll(values.Options{}, doc, size)
			if err != nil {
				t.Fatalf("Input: %#q\nUnexpected error: %v", doc, err)
			}
			if len(got) != 1 {
				t.Fatalf("Input: %#q\nGot %d values, want 1", doc, len(got))
			}
			compareValue(t, "$", want, got[0].Value)
		}
	}
}

// compareValue walks a fastjson tree and our assembled tree in parallel.
func compareValue(t *testing.T, at string, want *fastjson.Value, got values.Value) {
	t.Helper()
	switch want.Type() {
	case fastjson.TypeNull:
		if _, ok := got.(values.Null); !ok {
			t.Errorf("%s: got %T, want null", at, got)
		}
	case fastjson.TypeTrue, fastjson.TypeFalse:
		b, ok := got.(values.Bool)
		if !ok || bool(b) != (want.Type() == fastjson.TypeTrue) {
			t.Errorf("%s: got %v, want %v", at, got, want)
		}
	case fastjson.TypeNumber:
		n, ok := got.(values.Number)
		if !ok || float64(n) != want.GetFloat64() {
			t.Errorf("%s: got %v, want %v", at, got, want)
		}
	case fastjson.TypeString:
		s, ok := got.(values.String)
		if !ok {
			t.Errorf("%s: got %T, want string", at, got)
			return
		}
		if text, _ := s.Text(); text != string(want.GetStringBytes()) {
			t.Errorf("%s: got %q, want %q", at, text, want.GetStringBytes())
		}
	case fastjson.TypeArray:
		arr, ok := got.(*values.Array)
		if !ok {
			t.Errorf("%s: got %T, want array", at, got)
			return
		}
		wantArr := want.GetArray()
		if len(arr.Values) != len(wantArr) {
			t.Errorf("%s: got %d elements, want %d", at, len(arr.Values), len(wantArr))
			return
		}
		for i, el := range wantArr {
			compareValue(t, fmt.Sprintf("%s[%d]", at, i), el, arr.Values[i])
		}
	case fastjson.TypeObject:
		obj, ok := got.(*values.Object)
		if !ok {
			t.Errorf("%s: got %T, want object", at, got)
			return
		}
		wantObj := want.GetObject()
		n := 0
		wantObj.Visit(func(key []byte, el *fastjson.Value) {
			n++
			m := obj.Find(string(key))
			if m == nil {
				t.Errorf("%s: missing member %q", at, key)
				return
			}
			compareValue(t, fmt.Sprintf("%s[%q]", at, key), el, m.Value)
		})
		if len(obj.Members) != n {
			t.Errorf("%s: got %d members, want %d", at, len(obj.Members), n)
		}
	}
}

func ExampleStream() {
	s := values.NewStream(values.Options{
		Parser: jstream.Options{AllowMultipleValues: true},
	})
	got, _ := s.Feed(`{"a":1} [true] `)
	for _, sv := range got {
		fmt.Println(sv.Index, sv.Value.JSON())
	}
	// Output:
	// 0 {"a":1}
	// 1 [true]
}
