package model

import (
	"github.com/catma/overlay/pkg/ranges"
	"github.com/google/uuid"
)

// Annotation is a tagged assertion about one or more character ranges of a
// flat text (spec §3). Ranges may be non-contiguous.
type Annotation struct {
	ID         uuid.UUID
	Tag        *Tag
	Ranges     []ranges.Range
	Properties map[string]*PropertyValues // by property name
}

// NewAnnotation creates an Annotation over tag with the given ranges,
// sorted into the engine's canonical (start, end) order.
func NewAnnotation(tag *Tag, rs ...ranges.Range) *Annotation {
	sorted := append([]ranges.Range(nil), rs...)
	ranges.Sort(sorted)
	return &Annotation{
		ID:         uuid.New(),
		Tag:        tag,
		Ranges:     sorted,
		Properties: make(map[string]*PropertyValues),
	}
}

// SetProperty contributes values to a property, deduplicated per spec §9.
// When adhoc is false, every value is also proposed on the tag's schema
// (spec §3: "An annotation contributes a value; when contributed with
// adhoc=false the value is also added ... to the tag's proposed-value
// list").
func (a *Annotation) SetProperty(name string, adhoc bool, values ...string) {
	pv, ok := a.Properties[name]
	if !ok {
		pv = NewPropertyValues()
		a.Properties[name] = pv
	}
	for _, v := range values {
		pv.Add(v)
		if !adhoc {
			if prop, ok := a.Tag.Properties[name]; ok {
				prop.AddProposed(v)
			}
		}
	}
}

// MergedRanges returns the annotation's ranges with adjacent ones coalesced
// (used by the projector, which drives one overlay per maximal range).
func (a *Annotation) MergedRanges() []ranges.Range {
	sorted := append([]ranges.Range(nil), a.Ranges...)
	ranges.Sort(sorted)
	return ranges.MergeAdjacent(sorted)
}
