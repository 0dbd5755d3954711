package tei

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/ranges"
)

func TestMergeCollectionsDeduplicatesTagsets(t *testing.T) {
	shared := model.NewTagset("Shared")
	sharedTag := model.NewTag("S", model.NewColour(1, 2, 3))
	shared.Add(sharedTag)

	onlyA := model.NewTagset("OnlyA")
	a := &Collection{
		DocID:   uuid.New(),
		Title:   "First",
		Author:  "alice",
		Tagsets: []*model.Tagset{shared, onlyA},
		Annotations: []*model.Annotation{
			model.NewAnnotation(sharedTag, ranges.New(0, 2)),
		},
	}

	// b carries the *same* shared tagset (by id) plus one of its own; a
	// real merge must not duplicate the shared one.
	onlyB := model.NewTagset("OnlyB")
	b := &Collection{
		DocID:   uuid.New(),
		Title:   "Second",
		Author:  "bob",
		Tagsets: []*model.Tagset{shared, onlyB},
		Annotations: []*model.Annotation{
			model.NewAnnotation(sharedTag, ranges.New(2, 4)),
		},
	}

	merged := MergeCollections(a, b, "", "")

	if len(merged.Tagsets) != 3 {
		t.Fatalf("got %d tagsets, want 3 (shared, onlyA, onlyB)", len(merged.Tagsets))
	}
	if len(merged.Annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(merged.Annotations))
	}
	if merged.Title != "First" || merged.Author != "alice" {
		t.Errorf("expected title/author to default to a's, got %q/%q", merged.Title, merged.Author)
	}
	if merged.DocID != a.DocID {
		t.Errorf("expected merged DocID to be a's")
	}
}

func TestMergeCollectionsExplicitTitleAuthor(t *testing.T) {
	a := &Collection{DocID: uuid.New(), Title: "First", Author: "alice"}
	b := &Collection{DocID: uuid.New(), Title: "Second", Author: "bob"}

	merged := MergeCollections(a, b, "Combined", "carol")
	if merged.Title != "Combined" || merged.Author != "carol" {
		t.Errorf("expected explicit title/author to win, got %q/%q", merged.Title, merged.Author)
	}
}

func TestConvertPtrRefsToText(t *testing.T) {
	ts := model.NewTagset("Markup")
	tag := model.NewTag("X", model.NewColour(10, 20, 30))
	ts.Add(tag)
	anno := model.NewAnnotation(tag, ranges.New(1, 4))

	coll := &Collection{
		DocID:       uuid.New(),
		Title:       "Fixture",
		Tagsets:     []*model.Tagset{ts},
		Annotations: []*model.Annotation{anno},
	}

	var buf bytes.Buffer
	if err := Write(&buf, coll, 5); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, err := ConvertPtrRefsToText(&buf, "hello")
	if err != nil {
		t.Fatalf("ConvertPtrRefsToText: %v", err)
	}

	got := string(out)
	if strings.Contains(got, "<ptr") {
		t.Errorf("expected no ptr elements left, got %s", got)
	}
	if !strings.Contains(got, ">ell<") {
		t.Errorf("expected the annotated span's literal text, got %s", got)
	}
}

func TestConvertPtrRefsToTextRejectsOutOfRange(t *testing.T) {
	ts := model.NewTagset("Markup")
	tag := model.NewTag("X", model.NewColour(10, 20, 30))
	ts.Add(tag)
	anno := model.NewAnnotation(tag, ranges.New(1, 4))

	coll := &Collection{DocID: uuid.New(), Title: "Fixture", Tagsets: []*model.Tagset{ts}, Annotations: []*model.Annotation{anno}}

	var buf bytes.Buffer
	if err := Write(&buf, coll, 5); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := ConvertPtrRefsToText(&buf, "hi"); err == nil {
		t.Error("expected an error for a source text shorter than the annotated range, got nil")
	}
}
