package project

import "github.com/beevik/etree"

// childIndex returns e's index in parent.Child by identity, or -1.
func childIndex(parent, e *etree.Element) int {
	for i, tok := range parent.Child {
		if elem, ok := tok.(*etree.Element); ok && elem == e {
			return i
		}
	}
	return -1
}

// textRunEnd returns the index in e.Child of e's first element child (the
// end, exclusive, of e's leading character-data run), or len(e.Child) if e
// has no element children.
func textRunEnd(e *etree.Element) int {
	for i, tok := range e.Child {
		if _, ok := tok.(*etree.Element); ok {
			return i
		}
	}
	return len(e.Child)
}

// tailRunEnd returns the index in parent.Child, exclusive, of the
// character-data run that trails e (e's tail), starting the scan right
// after e's own position.
func tailRunEnd(parent, e *etree.Element) int {
	idx := childIndex(parent, e)
	if idx < 0 {
		return -1
	}
	end := idx + 1
	for end < len(parent.Child) {
		if _, ok := parent.Child[end].(*etree.Element); ok {
			break
		}
		end++
	}
	return end
}

// spliceTextRun replaces container.Child[beforeIdx:runEnd] — a contiguous
// character-data run — with [left?, newEl, right?], correctly registering
// newEl's parent via InsertChildAt, and leaves every token before beforeIdx
// and from runEnd onward untouched.
func spliceTextRun(container *etree.Element, beforeIdx, runEnd int, newEl *etree.Element, left, right string) {
	rest := append([]etree.Token(nil), container.Child[runEnd:]...)
	head := append([]etree.Token(nil), container.Child[:beforeIdx]...)
	if left != "" {
		head = append(head, etree.NewCharData(left))
	}
	container.Child = append(head, rest...)
	insertIdx := len(head)
	container.InsertChildAt(insertIdx, newEl)
	if right != "" {
		container.InsertChildAt(insertIdx+1, etree.NewCharData(right))
	}
}

// moveChild relocates child from its current parent to the end of
// newParent's children, preserving the node itself (and its own
// text/tail/subtree) but updating its recorded parent.
func moveChild(child *etree.Element, newParent *etree.Element) {
	if old := child.Parent(); old != nil {
		old.RemoveChild(child)
	}
	newParent.AddChild(child)
}
