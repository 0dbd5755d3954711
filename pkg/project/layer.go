package project

import (
	"github.com/beevik/etree"

	"github.com/catma/overlay/pkg/xmlflat"
)

// layerOf returns a chunk's layer (spec §4.5 / glossary): the owning
// element for a text or newline chunk (a newline chunk shares its owning
// element's node, so it layers the same way text does), or the owning
// element's parent for a tail chunk.
func layerOf(c *xmlflat.Chunk) *etree.Element {
	if c.Kind == xmlflat.KindTail {
		return c.Node.Parent()
	}
	return c.Node
}

// layerBucket holds the chunks assigned to one layer element, in the order
// they were assigned.
type layerBucket struct {
	element *etree.Element
	chunks  []*xmlflat.Chunk
}

// computeLayers implements the Case 2 layer-sequence algorithm of spec
// §4.5, walking trail[sIdx:eIdx] (e, at eIdx, is excluded from assignment
// per the spec's "exclusive" wording) and assigning each non-newline chunk
// to a layer element.
//
// The spec's prose for the per-chunk assignment ("ascend its parent chain:
// if any ancestor is already in the layer list, promote the chunk's layer
// to that ancestor ... stop the ascent at the end chunk's layer or the
// start chunk's layer") is ambiguous about which "already in the list"
// check fires first when a chunk's natural layer is itself the start or
// end boundary layer — read completely literally it would, for scenario 5
// (<r>he<b>ll</b>o</r>, X over [1,5)), promote <b>'s text chunk up into
// <r>'s layer as soon as <r> is in the list, collapsing the two expected
// wrapper elements into one. This implementation instead treats sLayer and
// eLayer as the ascent's stopping targets first, falling back to "already
// an established layer" only past those: ascend from the chunk's natural
// layer (inclusive) until hitting sLayer, eLayer, or an existing layer,
// whichever comes first. This reproduces the spec's own worked example
// (two layers: <r>'s remainder, and <b> wrapped whole) and still performs
// the intended "outer wraps deeper structure" collapse for chunks nested
// more than one level below a boundary layer.
func computeLayers(trail []*xmlflat.Chunk, sIdx, eIdx int) []*layerBucket {
	sLayer := layerOf(trail[sIdx])
	eLayer := layerOf(trail[eIdx])

	var layers []*layerBucket
	index := make(map[*etree.Element]*layerBucket)

	assign := func(el *etree.Element, c *xmlflat.Chunk) {
		b, ok := index[el]
		if !ok {
			b = &layerBucket{element: el}
			index[el] = b
			layers = append(layers, b)
		}
		b.chunks = append(b.chunks, c)
	}

	for i := sIdx; i < eIdx; i++ {
		c := trail[i]
		if c.Kind == xmlflat.KindNewline {
			continue
		}
		assigned := ascend(layerOf(c), sLayer, eLayer, index)
		assign(assigned, c)
	}

	if _, ok := index[eLayer]; !ok {
		layers = append(layers, &layerBucket{element: eLayer})
	}
	return layers
}

func ascend(el, sLayer, eLayer *etree.Element, index map[*etree.Element]*layerBucket) *etree.Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur == sLayer || cur == eLayer {
			return cur
		}
		if _, ok := index[cur]; ok {
			return cur
		}
	}
	return el
}
