package anchor

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/catma/overlay/pkg/xmlflat"
)

func parseFragment(t *testing.T, src string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatalf("ReadFromString: %v", err)
	}
	return doc.Root()
}

// <r>hello</r>, chunks [r-text(0,5), r-newline(5,6)]: offset 1 anchors on
// the text chunk.
func TestPointerSingleChunkAnchor(t *testing.T) {
	root := parseFragment(t, `<r>hello</r>`)
	idx := xmlflat.BuildIndex(root)

	p := New(1)
	p.Drive(idx)
	if !p.Locked() {
		t.Fatalf("pointer did not lock")
	}
	got := p.MaxMatchingChunk()
	if got == nil || got.Kind != xmlflat.KindText {
		t.Fatalf("MaxMatchingChunk() = %+v, want the text chunk", got)
	}
}

// Spec §8 scenario 5: <r>he<b>ll</b>o</r>, chunks [r-text(0,2), b-text(2,4),
// b-newline(4,5), b-tail(5,6), r-newline(6,7)].
func TestPointerCrossBoundaryStartAndEnd(t *testing.T) {
	root := parseFragment(t, `<r>he<b>ll</b>o</r>`)
	idx := xmlflat.BuildIndex(root)
	if idx.L != 7 {
		t.Fatalf("L = %d, want 7", idx.L)
	}

	start := New(1)
	start.Drive(idx)
	s := start.MaxMatchingChunk()
	if s == nil || s.Kind != xmlflat.KindText || s.Node.Tag != "r" {
		t.Fatalf("start anchor = %+v, want r's text chunk", s)
	}

	end := New(5)
	end.Drive(idx)
	e := end.MinMatchingChunk()
	if e == nil || e.Node.Tag != "b" {
		t.Fatalf("end anchor = %+v, want a chunk owned by b", e)
	}
}

func TestPointerNeverAdvancesPastLock(t *testing.T) {
	root := parseFragment(t, `<doc><p>one</p><p>two</p></doc>`)
	idx := xmlflat.BuildIndex(root)

	p := New(0)
	p.Drive(idx)
	trailLen := len(p.Trail())
	p.Advance(&xmlflat.Chunk{})
	if len(p.Trail()) != trailLen {
		t.Fatalf("Advance mutated a locked pointer's trail")
	}
}

func TestMinMatchingChunkOutOfBoundsStillReturnsChunk(t *testing.T) {
	root := parseFragment(t, `<r>hi</r>`)
	idx := xmlflat.BuildIndex(root)

	p := New(100)
	p.Drive(idx)
	got := p.MinMatchingChunk()
	if got == nil {
		t.Fatalf("MinMatchingChunk() = nil, want a fallback chunk")
	}
}
