package tei

import (
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/overlayerr"
	"github.com/catma/overlay/pkg/xmlflat"
)

// MergeCollections merges two annotation collections into one, deduplicating
// tagsets by id (a tagset already present in a is not re-added from b). The
// merged collection's annotations are the concatenation of both inputs' —
// mirroring catma_py's merge_collections, which hands its writer a list of
// annotation lists rather than merging them annotation-by-annotation. title
// and author default to a's when left empty; DocID, Publisher and
// Description are always taken from a.
func MergeCollections(a, b *Collection, title, author string) *Collection {
	tagsets := append([]*model.Tagset(nil), a.Tagsets...)
	seen := make(map[uuid.UUID]bool, len(tagsets))
	for _, ts := range tagsets {
		seen[ts.ID] = true
	}
	for _, ts := range b.Tagsets {
		if !seen[ts.ID] {
			tagsets = append(tagsets, ts)
			seen[ts.ID] = true
		}
	}

	if title == "" {
		title = a.Title
	}
	if author == "" {
		author = a.Author
	}

	annotations := make([]*model.Annotation, 0, len(a.Annotations)+len(b.Annotations))
	annotations = append(annotations, a.Annotations...)
	annotations = append(annotations, b.Annotations...)

	return &Collection{
		DocID:       a.DocID,
		Title:       title,
		Author:      author,
		Publisher:   a.Publisher,
		Description: a.Description,
		Tagsets:     tagsets,
		Annotations: annotations,
	}
}

// ConvertPtrRefsToText reads a stand-off document and rewrites its body/ab
// so each ptr anchor is replaced by the literal slice of sourceText it
// points to — a seg keeps its wrapping element but gets that text as its own
// content, and a bare ptr's span becomes the text or tail of whichever node
// precedes it. Every ptr element is then removed. The result is a
// human-readable variant of the exchange format (catma_py's
// convert_ptr_refs_to_text) and is not a valid input to Read: its anchors
// are gone, not just dereferenced.
func ConvertPtrRefsToText(r io.Reader, sourceText string) ([]byte, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("tei: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, overlayerr.NewStructuralInvariantError(nil, "tei: empty document")
	}
	ab := root.FindElement("text/body/ab")
	if ab == nil {
		return nil, overlayerr.NewMissingAnchorsError(nil, "tei: missing text/body/ab")
	}

	var predecessor *etree.Element
	var ptrs []*etree.Element
	for _, child := range ab.ChildElements() {
		switch child.Tag {
		case "ptr":
			text, err := ptrText(child, sourceText)
			if err != nil {
				return nil, err
			}
			if predecessor == nil {
				xmlflat.SetText(ab, text)
			} else {
				xmlflat.SetTail(ab, predecessor, text)
			}
			ptrs = append(ptrs, child)
		case "seg":
			ptr := child.FindElement("ptr")
			if ptr == nil {
				return nil, overlayerr.NewMissingAnchorsError(nil, "tei: seg with no ptr child")
			}
			text, err := ptrText(ptr, sourceText)
			if err != nil {
				return nil, err
			}
			xmlflat.SetText(child, text)
			ptrs = append(ptrs, ptr)
			predecessor = child
		}
	}
	for _, ptr := range ptrs {
		if parent := ptr.Parent(); parent != nil {
			parent.RemoveChild(ptr)
		}
	}

	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ptrText(ptr *etree.Element, sourceText string) (string, error) {
	_, r, err := parsePtrTarget(ptr.SelectAttrValue("target", ""))
	if err != nil {
		return "", err
	}
	if r.Start < 0 || r.End > len(sourceText) || r.Start > r.End {
		return "", overlayerr.NewStructuralInvariantError(nil, "tei: ptr target [%d,%d) exceeds source document length %d", r.Start, r.End, len(sourceText))
	}
	return sourceText[r.Start:r.End], nil
}
