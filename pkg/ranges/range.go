// Package ranges implements the half-open integer interval algebra the rest
// of the overlay engine is built on (spec §4.1, "Range algebra").
package ranges

import "sort"

// Range is a half-open interval [Start, End) over character offsets.
// A point p is inside iff Start <= p < End.
type Range struct {
	Start int
	End   int
}

// New builds a Range, panicking if start > end — a caller bug per spec §4.2
// ("the merger assumes pre-validated input").
func New(start, end int) Range {
	if start > end {
		panic("ranges: start > end")
	}
	return Range{Start: start, End: end}
}

// Len returns End - Start.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether the range has zero width.
func (r Range) Empty() bool { return r.Start == r.End }

// Equal reports pairwise equality.
func (r Range) Equal(o Range) bool { return r.Start == o.Start && r.End == o.End }

// Less implements the lexicographic (start, end) total order used
// throughout the engine for sorting and map keys.
func (r Range) Less(o Range) bool {
	if r.Start != o.Start {
		return r.Start < o.Start
	}
	return r.End < o.End
}

// ContainsPoint applies the half-open containment predicate: start <= p < end.
func (r Range) ContainsPoint(p int) bool {
	return r.Start <= p && p < r.End
}

// ContainsPointInclusive applies the inclusive-edge predicate used only by
// anchor lookup (spec §3, §9): start <= p <= end. This is intentionally a
// distinct predicate from ContainsPoint — collapsing the two breaks both the
// merger (adjacent ranges would spuriously overlap) and the anchor selector.
func (r Range) ContainsPointInclusive(p int) bool {
	return r.Start <= p && p <= r.End
}

// Adjacent reports whether r and o touch edge-to-edge without overlapping:
// r.End == o.Start or o.End == r.Start.
func (r Range) Adjacent(o Range) bool {
	return r.End == o.Start || o.End == r.Start
}

// Overlap returns the intersection of a and b, or (Range{}, false) if they
// do not overlap. Edge-touching ranges (a.End == b.Start or the reverse)
// return false — adjacency is not overlap (spec §3, §4.1, property P-R1).
func Overlap(a, b Range) (Range, bool) {
	if a.End <= b.Start || b.End <= a.Start {
		return Range{}, false
	}
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	return Range{Start: start, End: end}, true
}

// Contains reports whether inner lies entirely within outer:
// inner.Start >= outer.Start && inner.End <= outer.End.
func Contains(outer, inner Range) bool {
	return inner.Start >= outer.Start && inner.End <= outer.End
}

// DisjointRemainder returns the 0, 1, or 2 sub-ranges of outer that remain
// once inner is subtracted from it (spec §4.1). Degenerate (empty) remainder
// ranges are never emitted — this resolves Open Question (a) of spec §9 in
// favor of the documented contract over the source's literal behavior.
//
// If inner extends past outer.End, the excess is not part of outer and is
// silently dropped (Open Question (b) of spec §9 — intentional).
func DisjointRemainder(outer, inner Range) []Range {
	var out []Range
	if inner.Start > outer.Start {
		left := Range{Start: outer.Start, End: min(inner.Start, outer.End)}
		if !left.Empty() {
			out = append(out, left)
		}
	}
	if inner.End < outer.End {
		right := Range{Start: max(inner.End, outer.Start), End: outer.End}
		if !right.Empty() {
			out = append(out, right)
		}
	}
	return out
}

// MergeAdjacent coalesces ranges whose End meets the next Range's Start.
// Input must already be sorted by the (start, end) order; output is sorted
// and contains no two ranges that are Adjacent to one another.
func MergeAdjacent(sorted []Range) []Range {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if cur.End == r.Start {
			cur.End = r.End
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// Sort sorts ranges in place by the lexicographic (start, end) order.
func Sort(rs []Range) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Less(rs[j]) })
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
