package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tagset is a named, versioned container of Tags.
type Tagset struct {
	ID      uuid.UUID
	Name    string
	Version time.Time
	Tags    map[uuid.UUID]*Tag
}

// NewTagset creates an empty Tagset.
func NewTagset(name string) *Tagset {
	return &Tagset{
		ID:      uuid.New(),
		Name:    name,
		Version: time.Now(),
		Tags:    make(map[uuid.UUID]*Tag),
	}
}

// Add inserts a tag into the set.
func (ts *Tagset) Add(t *Tag) { ts.Tags[t.ID] = t }

// Resolve links every Tag.ParentID to its resolved Parent() pointer (spec
// §9, second pass after all tags of a tagset are loaded) and verifies the
// hierarchy is acyclic (spec §3 invariant: "Tag.parent forms a DAG with no
// cycles").
func (ts *Tagset) Resolve() error {
	for _, t := range ts.Tags {
		if t.ParentID == nil {
			continue
		}
		parent, ok := ts.Tags[*t.ParentID]
		if !ok {
			return fmt.Errorf("model: tag %s references unknown parent %s", t.ID, *t.ParentID)
		}
		t.ResolveParent(parent)
	}
	for _, t := range ts.Tags {
		if err := detectCycle(t); err != nil {
			return err
		}
	}
	return nil
}

func detectCycle(start *Tag) error {
	visited := map[uuid.UUID]bool{}
	for cur := start; cur != nil; cur = cur.parent {
		if visited[cur.ID] {
			return fmt.Errorf("model: cyclic tag hierarchy detected at %s", cur.ID)
		}
		visited[cur.ID] = true
	}
	return nil
}
