package model

import "github.com/google/uuid"

// Reserved property names that always exist on every Tag (spec §3).
const (
	PropertyDisplayColor = "catma_displaycolor"
	PropertyMarkupAuthor = "catma_markupauthor"
)

// Property is a named, multi-valued string attribute of a Tag. Annotations
// contribute values; a value contributed with adhoc=false is folded
// (deduplicated) into the tag's proposed-value list.
type Property struct {
	ID       uuid.UUID
	Name     string
	Proposed []string // ordered, de-duplicated proposed values
}

// NewProperty creates a Property with a fresh identity.
func NewProperty(name string) *Property {
	return &Property{ID: uuid.New(), Name: name}
}

// AddProposed appends value to the proposed-value list if not already
// present, preserving first-seen order.
func (p *Property) AddProposed(value string) {
	for _, v := range p.Proposed {
		if v == value {
			return
		}
	}
	p.Proposed = append(p.Proposed, value)
}

// PropertyValues is a deduplicated, insertion-order-irrelevant set of
// string values an annotation contributes to one property (spec §9:
// "preserve that semantics"). Implemented as an ordered slice with
// membership checks so serialisation stays deterministic without relying
// on map iteration order.
type PropertyValues struct {
	values []string
	seen   map[string]struct{}
}

// NewPropertyValues builds a PropertyValues set, deduplicating the inputs.
func NewPropertyValues(values ...string) *PropertyValues {
	pv := &PropertyValues{seen: make(map[string]struct{}, len(values))}
	for _, v := range values {
		pv.Add(v)
	}
	return pv
}

// Add inserts value if not already present.
func (pv *PropertyValues) Add(value string) {
	if pv.seen == nil {
		pv.seen = make(map[string]struct{})
	}
	if _, ok := pv.seen[value]; ok {
		return
	}
	pv.seen[value] = struct{}{}
	pv.values = append(pv.values, value)
}

// Values returns the set's members in insertion order.
func (pv *PropertyValues) Values() []string {
	if pv == nil {
		return nil
	}
	return pv.values
}

// Contains reports whether value is a member.
func (pv *PropertyValues) Contains(value string) bool {
	if pv == nil {
		return false
	}
	_, ok := pv.seen[value]
	return ok
}
