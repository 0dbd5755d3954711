// Package standoff implements the stand-off merge (spec component C2):
// given a set of possibly-overlapping annotations over a flat text, compute
// a partitioning of the text into maximal non-overlapping sub-ranges, each
// carrying the exact set of annotations that cover it.
package standoff

import (
	"fmt"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/ranges"
)

// RangeMap is the merger's output: a partition of [0, L) where each key
// maps to the annotations covering it.
type RangeMap struct {
	L     int
	byKey map[ranges.Range][]*model.Annotation
}

// Keys returns the partition's keys in the engine's canonical sort order.
func (m *RangeMap) Keys() []ranges.Range {
	keys := make([]ranges.Range, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	ranges.Sort(keys)
	return keys
}

// Annotations returns the annotations covering key, or nil if key is not a
// partition boundary.
func (m *RangeMap) Annotations(key ranges.Range) []*model.Annotation {
	return m.byKey[key]
}

// Merge runs the stand-off merge algorithm of spec §4.2 over annos, a flat
// text of length l. Annotation ranges must lie within [0, l) — the merger
// assumes pre-validated input (spec §4.2 "Failure").
func Merge(l int, annos []*model.Annotation) (*RangeMap, error) {
	if l < 0 {
		return nil, fmt.Errorf("standoff: negative length %d", l)
	}
	m := &RangeMap{L: l, byKey: map[ranges.Range][]*model.Annotation{}}
	m.byKey[ranges.New(0, l)] = nil

	for _, anno := range annos {
		for _, t := range anno.Ranges {
			if t.Start < 0 || t.End > l {
				return nil, fmt.Errorf("standoff: annotation %s range %v outside [0, %d)", anno.ID, t, l)
			}
			if err := m.apply(anno, t); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// apply processes one (annotation, range) pair per spec §4.2's algorithm:
// find every existing key overlapping t, then either append anno (if the
// key is fully contained in t) or split the key into its overlap and
// disjoint remainder(s) with anno.
func (m *RangeMap) apply(anno *model.Annotation, t ranges.Range) error {
	var overlapping []ranges.Range
	for k := range m.byKey {
		if _, ok := ranges.Overlap(k, t); ok {
			overlapping = append(overlapping, k)
		}
	}

	for _, k := range overlapping {
		existing := m.byKey[k]

		if ranges.Contains(t, k) {
			m.byKey[k] = append(append([]*model.Annotation(nil), existing...), anno)
			continue
		}

		overlap, ok := ranges.Overlap(k, t)
		if !ok {
			return fmt.Errorf("standoff: internal error, expected overlap for %v, %v", k, t)
		}
		remainder := ranges.DisjointRemainder(k, t)

		delete(m.byKey, k)
		for _, d := range remainder {
			m.byKey[d] = append([]*model.Annotation(nil), existing...)
		}
		m.byKey[overlap] = append(append([]*model.Annotation(nil), existing...), anno)
	}
	return nil
}
