package model

import (
	"testing"
	"time"

	"github.com/catma/overlay/pkg/ranges"
)

func TestTagPath(t *testing.T) {
	ts := NewTagset("ts")
	root := NewTag("root", NewColour(10, 20, 30))
	child := NewTag("child", NewColour(1, 2, 3))
	child.ParentID = &root.ID
	ts.Add(root)
	ts.Add(child)

	if err := ts.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := child.Path(), "/root/child"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if got, want := root.Path(), "/root"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestTagsetResolveCycle(t *testing.T) {
	ts := NewTagset("ts")
	a := NewTag("a", 0)
	b := NewTag("b", 0)
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	ts.Add(a)
	ts.Add(b)

	if err := ts.Resolve(); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestColourRoundTrip(t *testing.T) {
	c := NewColour(255, 128, 0)
	s := c.String()
	got, err := ParseColour(s)
	if err != nil {
		t.Fatalf("ParseColour: %v", err)
	}
	r, g, b := got.RGB()
	if r != 255 || g != 128 || b != 0 {
		t.Errorf("RGB() = %d,%d,%d, want 255,128,0", r, g, b)
	}
}

func TestColourAcceptsOldReservedByte(t *testing.T) {
	// Older streams stored 0 in the reserved high byte (spec §6).
	old := Colour(0x00AABBCC)
	r, g, b := old.RGB()
	if r != 0xAA || g != 0xBB || b != 0xCC {
		t.Errorf("RGB() = %x,%x,%x, want aa,bb,cc", r, g, b)
	}
}

func TestTimestampFormat(t *testing.T) {
	tm := time.Date(2024, 3, 15, 10, 30, 0, 123_000_000, time.FixedZone("", 3600))
	s := FormatTimestamp(tm)
	if want := "2024-03-15T10:30:00.123+0100"; s != want {
		t.Errorf("FormatTimestamp() = %q, want %q", s, want)
	}
	back, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !back.Equal(tm) {
		t.Errorf("round trip mismatch: got %v, want %v", back, tm)
	}
}

func TestAnnotationSetPropertyProposesToTag(t *testing.T) {
	tag := NewTag("person", NewColour(1, 1, 1))
	tag.Properties["role"] = NewProperty("role")
	anno := NewAnnotation(tag, ranges.New(0, 5))

	anno.SetProperty("role", false, "protagonist")

	if !anno.Properties["role"].Contains("protagonist") {
		t.Error("expected annotation property to contain contributed value")
	}
	found := false
	for _, v := range tag.Properties["role"].Proposed {
		if v == "protagonist" {
			found = true
		}
	}
	if !found {
		t.Error("expected non-adhoc value to be proposed on the tag schema")
	}
}

func TestAnnotationSetPropertyAdhocDoesNotProposeToTag(t *testing.T) {
	tag := NewTag("person", NewColour(1, 1, 1))
	tag.Properties["role"] = NewProperty("role")
	anno := NewAnnotation(tag, ranges.New(0, 5))

	anno.SetProperty("role", true, "sidekick")

	for _, v := range tag.Properties["role"].Proposed {
		if v == "sidekick" {
			t.Error("adhoc value should not be proposed on the tag schema")
		}
	}
}

func TestParseIDAcceptsCatmaPrefixAndVendorPrefix(t *testing.T) {
	id := NewTagset("x").ID
	full := FormatID(id)
	got, err := ParseID(full)
	if err != nil || got != id {
		t.Fatalf("ParseID(%q) = %v, %v, want %v, nil", full, got, err, id)
	}

	vendor := "T_" + id.String()
	got2, err := ParseID(vendor)
	if err != nil || got2 != id {
		t.Fatalf("ParseID(%q) = %v, %v, want %v, nil", vendor, got2, err, id)
	}
}
