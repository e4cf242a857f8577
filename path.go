// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"
	"strings"
)

// A Path addresses a value within the JSON tree implied by the event stream.
// The first component addresses into the root value, the last component is
// the key or index of the value being reported. A container-start or
// container-end event carries the path of the container itself.
type Path []PathItem

// Equal reports whether p and q are component-wise equal.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i, c := range p {
		if c != q[i] {
			return false
		}
	}
	return true
}

// String renders p in a JSONPath-like form, e.g. $["a"][3].
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, c := range p {
		if c.isKey {
			fmt.Fprintf(&sb, "[%q]", c.key)
		} else {
			fmt.Fprintf(&sb, "[%d]", c.index)
		}
	}
	return sb.String()
}

func (p Path) clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// A PathItem is one component of a [Path]: an object key or an array index.
type PathItem struct {
	key   string
	index int
	isKey bool
}

// Key returns a PathItem addressing the object member named s.
func Key(s string) PathItem { return PathItem{key: s, isKey: true} }

// Index returns a PathItem addressing the array element at offset i.
func Index(i int) PathItem { return PathItem{index: i} }

// IsKey reports whether c addresses an object member.
func (c PathItem) IsKey() bool { return c.isKey }

// Key reports the object key addressed by c, or "", false if c is an index.
func (c PathItem) Key() (string, bool) { return c.key, c.isKey }

// Index reports the array index addressed by c, or 0, false if c is a key.
func (c PathItem) Index() (int, bool) {
	if c.isKey {
		return 0, false
	}
	return c.index, true
}

func (c PathItem) String() string {
	if c.isKey {
		return fmt.Sprintf("%q", c.key)
	}
	return fmt.Sprintf("%d", c.index)
}
