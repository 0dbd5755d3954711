// Package xmlflat implements the text-chunk index (spec component C3): a
// linear view of an etree tree as an ordered sequence of text/tail/
// synthetic-newline chunks with [start,end) offsets into the flat-text
// projection (spec §4.3).
//
// An etree.Element's "tail" — text that trails the element as a sibling of
// the next node — is not a distinct etree concept; it is simply the
// character data token that follows the element in its parent's Child
// slice, exactly as spec §3 describes it ("a sibling of the next node").
// Text and Tail below make that explicit instead of relying on any
// Element-level convenience accessor.
package xmlflat

import "github.com/beevik/etree"

// Text returns the character data immediately following e's start tag,
// before any child element — i.e. the leading run of etree.CharData tokens
// in e.Child.
func Text(e *etree.Element) string {
	var s string
	for _, tok := range e.Child {
		switch c := tok.(type) {
		case *etree.CharData:
			s += c.Data
		case *etree.Element:
			return s
		}
	}
	return s
}

// SetText replaces e's leading text (see Text), removing any existing
// leading character data first. Passing "" removes the leading text
// entirely.
func SetText(e *etree.Element, s string) {
	firstElem := len(e.Child)
	for i, tok := range e.Child {
		if _, ok := tok.(*etree.Element); ok {
			firstElem = i
			break
		}
	}
	rest := append([]etree.Token(nil), e.Child[firstElem:]...)
	if s == "" {
		e.Child = rest
		return
	}
	e.Child = append([]etree.Token{etree.NewCharData(s)}, rest...)
}

// Tail returns the character data trailing e as a sibling of the next node
// in parent — the run of CharData tokens in parent.Child immediately after
// e's position, before the next element child or the end of parent.Child.
func Tail(parent, e *etree.Element) string {
	idx := childIndex(parent, e)
	if idx < 0 {
		return ""
	}
	var s string
	for _, tok := range parent.Child[idx+1:] {
		switch c := tok.(type) {
		case *etree.CharData:
			s += c.Data
		case *etree.Element:
			return s
		}
	}
	return s
}

// SetTail replaces e's tail text within parent, removing any existing
// trailing character data run first.
func SetTail(parent, e *etree.Element, s string) {
	idx := childIndex(parent, e)
	if idx < 0 {
		return
	}
	end := idx + 1
	for end < len(parent.Child) {
		if _, ok := parent.Child[end].(*etree.Element); ok {
			break
		}
		end++
	}
	head := append([]etree.Token(nil), parent.Child[:idx+1]...)
	tail := append([]etree.Token(nil), parent.Child[end:]...)
	if s != "" {
		head = append(head, etree.NewCharData(s))
	}
	parent.Child = append(head, tail...)
}

// childIndex returns e's index in parent.Child by identity, or -1.
func childIndex(parent, e *etree.Element) int {
	for i, tok := range parent.Child {
		if elem, ok := tok.(*etree.Element); ok && elem == e {
			return i
		}
	}
	return -1
}
