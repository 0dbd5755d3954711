// Package project implements the inline projector (spec component C5): it
// drives position pointers to locate each annotation's anchor chunks, then
// performs the XML tree surgery that materialises the annotation as one or
// more wrapper elements.
package project

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/catma/overlay/pkg/anchor"
	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/overlayerr"
	"github.com/catma/overlay/pkg/ranges"
	"github.com/catma/overlay/pkg/xmlflat"
)

// Namespace optionally qualifies every element/attribute name the projector
// introduces, and is declared once on the document root (spec §4.5, §6).
type Namespace struct {
	Prefix string
	URI    string
}

// Config controls how the projector names and namespaces its output.
type Config struct {
	Namer     *Namer
	Namespace *Namespace
}

// overlay is the record built by the driver for one annotation's one
// maximal merged range (spec §4.5 "driver").
type overlay struct {
	anno  *model.Annotation
	r     ranges.Range
	start *anchor.Pointer
	end   *anchor.Pointer
}

// Document is the projector's document-level context: the tree, its
// current chunk index, the live overlay list, and naming configuration
// (spec §9 "shared state as tree-level context").
type Document struct {
	root     *etree.Element
	idx      *xmlflat.Index
	overlays []*overlay
	namer    *Namer
	ns       *Namespace
}

// NewDocument builds a projector context rooted at root, declaring the
// configured namespace on the root element if one is given.
func NewDocument(root *etree.Element, cfg Config) *Document {
	namer := cfg.Namer
	if namer == nil {
		namer = NewNamer()
	}
	d := &Document{root: root, namer: namer, ns: cfg.Namespace}
	d.idx = xmlflat.BuildIndex(root)
	if d.ns != nil {
		declareNamespace(root, d.ns)
	}
	return d
}

func declareNamespace(root *etree.Element, ns *Namespace) {
	if ns.Prefix == "" {
		root.CreateAttr("xmlns", ns.URI)
		return
	}
	root.CreateAttr("xmlns:"+ns.Prefix, ns.URI)
}

// BuildOverlay constructs one overlay per maximal merged range of anno
// (spec §4.5 driver steps 1-2), walking C3 from root for each.
func (d *Document) BuildOverlay(anno *model.Annotation) {
	for _, r := range anno.MergedRanges() {
		sp := anchor.New(r.Start)
		sp.Drive(d.idx)
		ep := anchor.New(r.End)
		ep.Drive(d.idx)
		d.overlays = append(d.overlays, &overlay{anno: anno, r: r, start: sp, end: ep})
	}
}

// ApplyAll applies every built overlay in build order (spec §4.5, §5).
func (d *Document) ApplyAll() error {
	for _, ov := range d.overlays {
		if err := d.apply(ov); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) apply(ov *overlay) error {
	s := ov.start.MaxMatchingChunk()
	e := ov.end.MinMatchingChunk()
	if s == nil || e == nil {
		return overlayerr.NewMissingAnchorsError(nil, "overlay: annotation %s has no anchor chunks", model.FormatID(ov.anno.ID))
	}

	var err error
	if s.Equal(e) {
		err = d.applyCase1(ov, s)
	} else {
		err = d.applyCase2(ov, s, e)
	}
	if err != nil {
		return err
	}
	d.recalculate()
	return nil
}

// recalculate rebuilds the chunk index from the mutated tree and
// re-anchors every live overlay's pointers against it. Spec §4.4 describes
// an incremental trail-splice broadcast instead; rebuilding is a documented
// simplification (see DESIGN.md) that preserves the same externally
// observable contract — every pointer's selectors reflect the
// post-mutation tree before the next overlay is applied — without chasing
// the splice algorithm's exact bookkeeping.
func (d *Document) recalculate() {
	d.idx = xmlflat.BuildIndex(d.root)
	for _, ov := range d.overlays {
		ov.start.Reset()
		ov.start.Drive(d.idx)
		ov.end.Reset()
		ov.end.Drive(d.idx)
	}
}

// applyCase1 handles a single-chunk overlay (spec §4.5 Case 1).
func (d *Document) applyCase1(ov *overlay, c *xmlflat.Chunk) error {
	content, container, beforeIdx, runEnd, err := contentRun(c)
	if err != nil {
		return err
	}
	r := ov.r
	off := c.Range.Start
	if r.Start < c.Range.Start || r.End > c.Range.End {
		return overlayerr.NewStructuralInvariantError(nil, "overlay: range %v outside chunk %v", r, c.Range)
	}
	left := content[:r.Start-off]
	mid := content[r.Start-off : r.End-off]
	right := content[r.End-off:]

	newEl := d.newAnnotationElement(ov.anno)
	xmlflat.SetText(newEl, mid)
	spliceTextRun(container, beforeIdx, runEnd, newEl, left, right)
	return nil
}

// applyCase2 handles a cross-boundary overlay (spec §4.5 Case 2): compute
// the layer sequence between s and e, then apply each layer's surgery in
// order.
func (d *Document) applyCase2(ov *overlay, s, e *xmlflat.Chunk) error {
	trail := ov.end.Trail()
	sIdx, eIdx := -1, -1
	for i, c := range trail {
		if c == s && sIdx == -1 {
			sIdx = i
		}
		if c == e {
			eIdx = i
		}
	}
	if sIdx == -1 || eIdx == -1 || sIdx > eIdx {
		return overlayerr.NewStructuralInvariantError(nil, "overlay: could not locate start/end chunks in end pointer's trail")
	}

	layers := computeLayers(trail, sIdx, eIdx)
	for _, layer := range layers {
		if err := d.applyLayer(ov, layer, s, e); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) applyLayer(ov *overlay, layer *layerBucket, s, e *xmlflat.Chunk) error {
	if len(layer.chunks) == 0 {
		return nil
	}
	first := layer.chunks[0]
	last := layer.chunks[len(layer.chunks)-1]
	if first == last {
		return d.applyLayerSingle(ov, first, s, e)
	}
	return d.applyLayerSpan(ov, layer, first, last)
}

// applyLayerSingle wraps a layer whose bucket holds exactly one chunk
// (spec §4.5, "If first == last ...").
func (d *Document) applyLayerSingle(ov *overlay, c, s, e *xmlflat.Chunk) error {
	r := ov.r
	var wrap ranges.Range
	switch {
	case c == s:
		wrap = ranges.New(r.Start, c.Range.End)
	case c == e:
		wrap = ranges.New(c.Range.Start, r.End)
	default:
		wrap = c.Range
	}
	if wrap.Empty() {
		return nil
	}

	content, container, beforeIdx, runEnd, err := contentRun(c)
	if err != nil {
		return err
	}
	off := c.Range.Start
	left := content[:wrap.Start-off]
	mid := content[wrap.Start-off : wrap.End-off]
	right := content[wrap.End-off:]

	newEl := d.newAnnotationElement(ov.anno)
	xmlflat.SetText(newEl, mid)
	spliceTextRun(container, beforeIdx, runEnd, newEl, left, right)
	return nil
}

// applyLayerSpan wraps a layer whose bucket holds more than one chunk: the
// layer element's own content at the edges is split around the annotated
// portion, and any fully-covered intermediate sibling elements are
// re-parented under the new wrapper (spec §4.5, "If first != last ...").
//
// This sub-case is not exercised by any of the spec's literal worked
// examples (scenario 5's two layers both resolve to single-chunk buckets);
// this implementation generalises the single-chunk surgery above to the
// multi-chunk case and documents the resulting shape in DESIGN.md rather
// than claiming it reproduces an unverified algorithm byte-for-byte.
func (d *Document) applyLayerSpan(ov *overlay, layer *layerBucket, first, last *xmlflat.Chunk) error {
	r := ov.r
	layerEl := layer.element

	lsStart := first.Range.Start
	if r.Start > lsStart {
		lsStart = r.Start
	}
	leEnd := last.Range.End
	if r.End < leEnd {
		leEnd = r.End
	}

	firstContent, firstContainer, firstBefore, firstRunEnd, err := contentRun(first)
	if err != nil {
		return err
	}
	prefix := firstContent[:lsStart-first.Range.Start]
	firstAnnotated := firstContent[lsStart-first.Range.Start:]

	lastContent, lastContainer, lastBefore, lastRunEnd, err := contentRun(last)
	if err != nil {
		return err
	}
	lastAnnotated := lastContent[:leEnd-last.Range.Start]
	suffix := lastContent[leEnd-last.Range.Start:]

	newEl := d.newAnnotationElement(ov.anno)
	xmlflat.SetText(newEl, firstAnnotated)

	// Re-parent every direct child of layerEl strictly between first's and
	// last's owning nodes (inclusive of last's, when distinct from
	// layerEl itself) under the new wrapper, in document order.
	var moved []*etree.Element
	seen := map[*etree.Element]bool{}
	for _, c := range layer.chunks {
		if c == first {
			continue
		}
		if c.Node != layerEl && !seen[c.Node] {
			seen[c.Node] = true
			moved = append(moved, c.Node)
		}
	}

	rewriteRun(firstContainer, firstBefore, firstRunEnd, prefix)

	insertIdx := textRunEnd(layerEl)
	if len(moved) > 0 {
		if idx := childIndex(layerEl, moved[0]); idx >= 0 {
			insertIdx = idx
		}
	}
	layerEl.InsertChildAt(insertIdx, newEl)
	for _, m := range moved {
		moveChild(m, newEl)
	}

	if last.Node != layerEl {
		xmlflat.SetTail(newEl, last.Node, lastAnnotated)
	}
	_ = lastContainer
	_ = lastBefore
	_ = lastRunEnd
	xmlflat.SetTail(layerEl, newEl, suffix)
	return nil
}

// rewriteRun replaces container.Child[beforeIdx:runEnd] with a single
// CharData(content) token (or nothing, if content is empty), leaving every
// other token untouched.
func rewriteRun(container *etree.Element, beforeIdx, runEnd int, content string) {
	rest := append([]etree.Token(nil), container.Child[runEnd:]...)
	head := append([]etree.Token(nil), container.Child[:beforeIdx]...)
	if content != "" {
		head = append(head, etree.NewCharData(content))
	}
	container.Child = append(head, rest...)
}

// contentRun resolves a chunk to the text content it carries, the element
// whose Child slice holds that content, and the [beforeIdx, runEnd) window
// of that slice occupied by the content's character-data run.
func contentRun(c *xmlflat.Chunk) (content string, container *etree.Element, beforeIdx, runEnd int, err error) {
	switch c.Kind {
	case xmlflat.KindText:
		owner := c.Node
		return xmlflat.Text(owner), owner, 0, textRunEnd(owner), nil
	case xmlflat.KindTail:
		owner := c.Node
		parent := owner.Parent()
		if parent == nil {
			return "", nil, 0, 0, overlayerr.NewStructuralInvariantError(nil, "overlay: tail chunk's owner %s has no parent", owner.Tag)
		}
		idx := childIndex(parent, owner)
		if idx < 0 {
			return "", nil, 0, 0, overlayerr.NewStructuralInvariantError(nil, "overlay: chunk node %s missing from its recorded parent", owner.Tag)
		}
		return xmlflat.Tail(parent, owner), parent, idx + 1, tailRunEnd(parent, owner), nil
	default:
		return "", nil, 0, 0, overlayerr.NewStructuralInvariantError(nil, "overlay: unexpected chunk kind %v for single-chunk surgery", c.Kind)
	}
}

// newAnnotationElement builds the wrapper element for anno: its local name
// via the namer, optionally namespace-qualified, carrying annotationId,
// tagId, tagPath, and one attribute per annotation property (spec §4.5).
func (d *Document) newAnnotationElement(anno *model.Annotation) *etree.Element {
	local := d.namer.ElementName(anno.Tag.Name)
	name := local
	if d.ns != nil && d.ns.Prefix != "" {
		name = d.ns.Prefix + ":" + local
	}
	el := etree.NewElement(name)
	d.setAttr(el, "annotationId", model.FormatID(anno.ID))
	d.setAttr(el, "tagId", model.FormatID(anno.Tag.ID))
	d.setAttr(el, "tagPath", anno.Tag.Path())
	for name, pv := range anno.Properties {
		d.setAttr(el, name, strings.Join(pv.Values(), ","))
	}
	return el
}

func (d *Document) setAttr(el *etree.Element, name, value string) {
	if d.ns != nil && d.ns.Prefix != "" {
		el.CreateAttr(d.ns.Prefix+":"+name, value)
		return
	}
	el.CreateAttr(name, value)
}

// Root returns the projector's (possibly mutated) document root.
func (d *Document) Root() *etree.Element { return d.root }

// Warnings returns a best-effort diagnostic for every built overlay whose
// start or end pointer never locked onto its target offset — spec §4.5's
// "Annotation ranges outside [0, L) result in pointers that never lock on
// their target; the engine proceeds with the closest available chunk
// (best-effort ...)". The caller in internal/service returns these to its
// own caller as "WARNING: "-prefixed strings rather than failing the
// projection; it does not log them.
func (d *Document) Warnings() []*overlayerr.OutOfBoundsRangeError {
	var warnings []*overlayerr.OutOfBoundsRangeError
	for _, ov := range d.overlays {
		if !ov.start.Locked() {
			if c := ov.start.MaxMatchingChunk(); c != nil {
				warnings = append(warnings, overlayerr.NewOutOfBoundsRangeError(ov.start.Target(), c.Range.Start))
			}
		}
		if !ov.end.Locked() {
			if c := ov.end.MinMatchingChunk(); c != nil {
				warnings = append(warnings, overlayerr.NewOutOfBoundsRangeError(ov.end.Target(), c.Range.End))
			}
		}
	}
	return warnings
}
