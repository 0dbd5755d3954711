// Package anchor implements the position pointer (spec component C4): a
// forward-only pointer that walks a xmlflat.Index until it first passes a
// target character offset, retaining the chunk trail so it can later be
// asked for the best chunk to anchor at that offset.
//
// Unlike the teacher's table/run mutation helpers, which operate on a
// static already-built tree, a Pointer's trail is itself mutated as the
// projector performs tree surgery elsewhere in the document — this mirrors
// the live-Range-registry idea in the pack's DOM implementation
// (reacting to mutations by re-anchoring boundary points), simplified to
// the engine's single-threaded cooperative model (spec §5): no locks, no
// goroutines, one document mutated by one driver at a time.
package anchor

import "github.com/catma/overlay/pkg/xmlflat"

// Pointer targets a single character offset into the flat-text projection.
type Pointer struct {
	target int
	pos    int
	trail  []*xmlflat.Chunk
	locked bool
}

// New creates a Pointer targeting the given character offset.
func New(target int) *Pointer {
	return &Pointer{target: target}
}

// Target returns the pointer's target offset.
func (p *Pointer) Target() int { return p.target }

// Locked reports whether the pointer has passed its target and stopped
// accepting further chunks.
func (p *Pointer) Locked() bool { return p.locked }

// Trail returns the pointer's visited-chunk trail in its current order.
// The slice is shared with the pointer; callers must not mutate it.
func (p *Pointer) Trail() []*xmlflat.Chunk { return p.trail }

// Reset clears the pointer's trail and unlocks it, leaving Target
// unchanged. The projector driver (pkg/project) uses this to re-anchor a
// live pointer against a freshly rebuilt index after a tree mutation,
// rather than splicing the trail in place — see DESIGN.md for why.
func (p *Pointer) Reset() {
	p.pos = 0
	p.trail = nil
	p.locked = false
}

// Advance extends pos by chunk's length and appends it to the trail. Once
// pos has passed target the pointer locks and further Advance calls are
// no-ops (spec §4.4).
func (p *Pointer) Advance(chunk *xmlflat.Chunk) {
	if p.locked {
		return
	}
	p.pos += chunk.Range.Len()
	p.trail = append(p.trail, chunk)
	if p.pos > p.target {
		p.locked = true
	}
}

// Drive feeds idx's chunks into the pointer, in order, until it locks or
// the index is exhausted. If the pointer never locks (target beyond the
// document, or the index is shorter than expected), the caller should fall
// back to the last visited chunk per spec §4.5's best-effort rule.
func (p *Pointer) Drive(idx *xmlflat.Index) {
	for _, c := range idx.Chunks {
		if p.locked {
			return
		}
		p.Advance(c)
	}
}

// MaxMatchingChunk implements the start-side anchor selector of spec §4.4.
//
// Read literally, the spec's prose ("find the first ... chunk such that
// ... or the scan has already passed a chunk that did so") is ambiguous at
// chunk boundaries where two adjacent trail entries both satisfy the
// inclusive-edge predicate (e.g. one chunk's End and the next chunk's
// Start both equal target). The worked intuition given alongside it
// resolves the ambiguity: "prefer the chunk whose right edge is closest
// to but <= target, skipping synthetic newlines." This implementation
// follows that intuition directly: scan the trail newest to oldest,
// skipping newlines, and keep walking backward through every chunk that
// still contains target under the inclusive predicate, returning the
// oldest (last) one found in that run.
func (p *Pointer) MaxMatchingChunk() *xmlflat.Chunk {
	var candidate *xmlflat.Chunk
	for i := len(p.trail) - 1; i >= 0; i-- {
		c := p.trail[i]
		if c.Kind == xmlflat.KindNewline {
			continue
		}
		if c.Range.ContainsPointInclusive(p.target) {
			candidate = c
			continue
		}
		break
	}
	if candidate == nil && len(p.trail) > 0 {
		// Best-effort fallback (spec §4.5): target fell outside every
		// chunk's inclusive range — anchor at the newest non-newline
		// chunk visited so far rather than failing.
		for i := len(p.trail) - 1; i >= 0; i-- {
			if p.trail[i].Kind != xmlflat.KindNewline {
				return p.trail[i]
			}
		}
	}
	return candidate
}

// MinMatchingChunk implements the end-side anchor selector of spec §4.4:
// walking the trail from newest to oldest, return the chunk immediately
// after (in trail order) the first non-newline chunk that does not contain
// target under the inclusive-edge predicate; fall back to the oldest chunk
// if none qualifies.
func (p *Pointer) MinMatchingChunk() *xmlflat.Chunk {
	for i := len(p.trail) - 1; i >= 0; i-- {
		c := p.trail[i]
		if c.Kind == xmlflat.KindNewline {
			continue
		}
		if !c.Range.ContainsPointInclusive(p.target) {
			if i+1 < len(p.trail) {
				return p.trail[i+1]
			}
			break
		}
	}
	if len(p.trail) == 0 {
		return nil
	}
	return p.trail[0]
}
