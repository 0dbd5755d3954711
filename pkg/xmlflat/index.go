package xmlflat

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/catma/overlay/pkg/ranges"
)

// Index is the ordered sequence of chunks produced by walking an etree
// tree (spec §4.3). The chunks partition [0, Index.L).
type Index struct {
	Chunks []*Chunk
	L      int
}

// BuildIndex walks root in document order and produces its chunk index.
func BuildIndex(root *etree.Element) *Index {
	idx := &Index{}
	pos := 0
	walk(root, idx, &pos)
	idx.L = pos
	return idx
}

// walk implements the C3 walking rule of spec §4.3, rooted at e:
//
//  1. If e's text is non-empty (has any non-whitespace character), emit a
//     text chunk.
//  2. Recurse into each child element in order.
//  3. After recursing, emit a synthetic newline chunk of length 1 if e's
//     text was non-empty OR e has at least one child element — the two
//     conditions are not exclusive: an element with both its own leading
//     text and children still closes with a newline of its own, separate
//     from any newline contributed by its last child.
//  4. If e's tail is non-empty, emit a tail chunk.
func walk(e *etree.Element, idx *Index, pos *int) {
	text := Text(e)
	textEmitted := hasContent(text)
	if textEmitted {
		idx.Chunks = append(idx.Chunks, &Chunk{
			Range: ranges.New(*pos, *pos+len(text)),
			Node:  e,
			Kind:  KindText,
		})
		*pos += len(text)
	}

	children := e.ChildElements()
	for _, child := range children {
		walk(child, idx, pos)
	}

	if textEmitted || len(children) > 0 {
		idx.Chunks = append(idx.Chunks, &Chunk{
			Range: ranges.New(*pos, *pos+1),
			Node:  e,
			Kind:  KindNewline,
		})
		*pos++
	}

	if parent := e.Parent(); parent != nil {
		tail := Tail(parent, e)
		if hasContent(tail) {
			idx.Chunks = append(idx.Chunks, &Chunk{
				Range: ranges.New(*pos, *pos+len(tail)),
				Node:  e,
				Kind:  KindTail,
			})
			*pos += len(tail)
		}
	}
}

// hasContent applies the "non-empty after whitespace test" rule of spec
// §4.3 to both text and tail content.
func hasContent(s string) bool {
	return strings.TrimSpace(s) != ""
}

// FlatText reconstructs the flat-text projection by concatenating every
// chunk's text, mapping newline chunks to "\n" (spec property P-C1).
func (idx *Index) FlatText(root *etree.Element) string {
	var sb strings.Builder
	for _, c := range idx.Chunks {
		switch c.Kind {
		case KindNewline:
			sb.WriteByte('\n')
		case KindText:
			sb.WriteString(Text(c.Node))
		case KindTail:
			if parent := c.Node.Parent(); parent != nil {
				sb.WriteString(Tail(parent, c.Node))
			}
		}
	}
	return sb.String()
}
