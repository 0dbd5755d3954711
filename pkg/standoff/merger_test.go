package standoff

import (
	"testing"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/ranges"
)

func mkAnno(name string, rs ...ranges.Range) *model.Annotation {
	tag := model.NewTag(name, 0)
	return model.NewAnnotation(tag, rs...)
}

func assertKeys(t *testing.T, rm *RangeMap, want map[ranges.Range][]string) {
	t.Helper()
	keys := rm.Keys()
	if len(keys) != len(want) {
		t.Fatalf("got %d keys %v, want %d keys %v", len(keys), keys, len(want), want)
	}
	for _, k := range keys {
		wantNames, ok := want[k]
		if !ok {
			t.Fatalf("unexpected key %v in output", k)
		}
		annos := rm.Annotations(k)
		if len(annos) != len(wantNames) {
			t.Fatalf("key %v: got %d annotations, want %d (%v)", k, len(annos), len(wantNames), wantNames)
		}
		for i, a := range annos {
			if a.Tag.Name != wantNames[i] {
				t.Errorf("key %v annotation %d = %q, want %q", k, i, a.Tag.Name, wantNames[i])
			}
		}
	}
}

// Scenario 1 (spec §8): merge, single text.
func TestMergeSingleText(t *testing.T) {
	a := mkAnno("A", ranges.New(2, 5))
	b := mkAnno("B", ranges.New(4, 8))

	rm, err := Merge(10, []*model.Annotation{a, b})
	if err != nil {
		t.Fatal(err)
	}
	assertKeys(t, rm, map[ranges.Range][]string{
		{Start: 0, End: 2}:  {},
		{Start: 2, End: 4}:  {"A"},
		{Start: 4, End: 5}:  {"A", "B"},
		{Start: 5, End: 8}:  {"B"},
		{Start: 8, End: 10}: {},
	})
}

// Scenario 2 (spec §8): merge, contained.
func TestMergeContained(t *testing.T) {
	a := mkAnno("A", ranges.New(2, 8))
	b := mkAnno("B", ranges.New(4, 6))

	rm, err := Merge(10, []*model.Annotation{a, b})
	if err != nil {
		t.Fatal(err)
	}
	assertKeys(t, rm, map[ranges.Range][]string{
		{Start: 0, End: 2}:  {},
		{Start: 2, End: 4}:  {"A"},
		{Start: 4, End: 6}:  {"A", "B"},
		{Start: 6, End: 8}:  {"A"},
		{Start: 8, End: 10}: {},
	})
}

// Scenario 3 (spec §8): merge, multiple non-contiguous ranges.
func TestMergeNonContiguous(t *testing.T) {
	a := mkAnno("A", ranges.New(0, 3), ranges.New(6, 10))

	rm, err := Merge(10, []*model.Annotation{a})
	if err != nil {
		t.Fatal(err)
	}
	assertKeys(t, rm, map[ranges.Range][]string{
		{Start: 0, End: 3}:  {"A"},
		{Start: 3, End: 6}:  {},
		{Start: 6, End: 10}: {"A"},
	})
}

// P-M1: permutation independence of the resulting set of (key, annotations) pairs.
func TestMergePermutationIndependent(t *testing.T) {
	a := mkAnno("A", ranges.New(2, 5))
	b := mkAnno("B", ranges.New(4, 8))
	c := mkAnno("C", ranges.New(1, 9))

	rm1, err := Merge(10, []*model.Annotation{a, b, c})
	if err != nil {
		t.Fatal(err)
	}
	rm2, err := Merge(10, []*model.Annotation{c, b, a})
	if err != nil {
		t.Fatal(err)
	}

	set := func(rm *RangeMap) map[ranges.Range]map[string]bool {
		out := map[ranges.Range]map[string]bool{}
		for _, k := range rm.Keys() {
			names := map[string]bool{}
			for _, a := range rm.Annotations(k) {
				names[a.Tag.Name] = true
			}
			out[k] = names
		}
		return out
	}

	s1, s2 := set(rm1), set(rm2)
	if len(s1) != len(s2) {
		t.Fatalf("different partition sizes: %d vs %d", len(s1), len(s2))
	}
	for k, names := range s1 {
		other, ok := s2[k]
		if !ok || len(other) != len(names) {
			t.Fatalf("key %v mismatch between permutations: %v vs %v", k, names, other)
		}
		for n := range names {
			if !other[n] {
				t.Fatalf("key %v missing annotation %q in second permutation", k, n)
			}
		}
	}
}

// P-M2: adding an annotation whose ranges exactly match existing boundaries
// only appends it; no key is created or destroyed.
func TestMergeStability(t *testing.T) {
	a := mkAnno("A", ranges.New(2, 5))
	rm, err := Merge(10, []*model.Annotation{a})
	if err != nil {
		t.Fatal(err)
	}
	before := rm.Keys()

	b := mkAnno("B", ranges.New(2, 5))
	rm2, err := Merge(10, []*model.Annotation{a, b})
	if err != nil {
		t.Fatal(err)
	}
	after := rm2.Keys()

	if len(before) != len(after) {
		t.Fatalf("key count changed: %d -> %d", len(before), len(after))
	}
	annosAt := rm2.Annotations(ranges.New(2, 5))
	if len(annosAt) != 2 {
		t.Fatalf("expected both annotations at [2,5), got %d", len(annosAt))
	}
}
