package model

import "github.com/google/uuid"

// Tag is a type carried by annotations. Tags form a forest: ParentID is a
// back-reference resolved against the owning Tagset in a second pass after
// all tags are loaded (spec §9 "Cyclic/backward references") rather than a
// direct pointer, so a Tag can be deserialised before its parent exists.
type Tag struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID // nil for a root tag
	Colour   Colour
	Properties map[string]*Property // by property name

	parent *Tag // resolved lazily via ResolveParent
}

// NewTag creates a root Tag with the two reserved properties always present
// (spec §3).
func NewTag(name string, colour Colour) *Tag {
	t := &Tag{
		ID:         uuid.New(),
		Name:       name,
		Colour:     colour,
		Properties: make(map[string]*Property),
	}
	t.Properties[PropertyDisplayColor] = NewProperty(PropertyDisplayColor)
	t.Properties[PropertyDisplayColor].AddProposed(colour.String())
	t.Properties[PropertyMarkupAuthor] = NewProperty(PropertyMarkupAuthor)
	return t
}

// Parent returns the resolved parent Tag, or nil if this is a root tag or
// the parent has not been resolved yet.
func (t *Tag) Parent() *Tag { return t.parent }

// ResolveParent sets the resolved parent pointer. Called by Tagset.Resolve
// once every tag in the set has been loaded.
func (t *Tag) ResolveParent(parent *Tag) { t.parent = parent }

// Path returns the tag's path as "/root-name/.../tag-name" (spec §3).
func (t *Tag) Path() string {
	var names []string
	for cur := t; cur != nil; cur = cur.parent {
		names = append(names, cur.Name)
	}
	path := ""
	for i := len(names) - 1; i >= 0; i-- {
		path += "/" + names[i]
	}
	return path
}
