package xmlflat

import (
	"github.com/beevik/etree"
	"github.com/catma/overlay/pkg/ranges"
)

// Kind distinguishes the three chunk flavors of spec §3.
type Kind int

const (
	KindText Kind = iota
	KindTail
	KindNewline
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTail:
		return "tail"
	case KindNewline:
		return "newline"
	default:
		return "unknown"
	}
}

// Chunk is a contiguous slice of the flat text corresponding to one
// element's text, one element's tail, or a synthetic newline (spec §3).
type Chunk struct {
	Range ranges.Range
	Node  *etree.Element
	Kind  Kind
}

// Equal reports whether c and o have matching Range and Kind — the equality
// rule of spec §3 ("Two chunks are equal iff their range and kind match").
func (c *Chunk) Equal(o *Chunk) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Range.Equal(o.Range) && c.Kind == o.Kind
}
