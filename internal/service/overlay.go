// Package service wires pkg/ranges, pkg/standoff, pkg/xmlflat, pkg/anchor,
// pkg/project and pkg/tei into request-level operations for
// internal/handler, following the teacher's internal/service shape (a thin
// orchestration layer between HTTP handlers and the engine).
package service

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/catma/overlay/internal/config"
	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/overlayerr"
	"github.com/catma/overlay/pkg/project"
	"github.com/catma/overlay/pkg/tei"
)

// CollectionInfo summarises a parsed stand-off collection (spec §6) for the
// /api/v1/standoff/open response.
type CollectionInfo struct {
	DocID           string   `json:"doc_id,omitempty"`
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	Description     string   `json:"description,omitempty"`
	TextLength      int      `json:"text_length"`
	TagsetCount     int      `json:"tagset_count"`
	TagCount        int      `json:"tag_count"`
	AnnotationCount int      `json:"annotation_count"`
	TagNames        []string `json:"tag_names,omitempty"`
}

// ValidationResult reports the outcome of a parse/write/re-parse
// round-trip (spec §8 scenario 6).
type ValidationResult struct {
	Info         *CollectionInfo `json:"info"`
	OriginalSize int             `json:"original_size_bytes"`
	OutputSize   int             `json:"output_size_bytes"`
	Success      bool            `json:"success"`
}

// ProjectResult is the outcome of applying a stand-off collection's
// annotations onto a source XML document (spec components C3-C5).
type ProjectResult struct {
	XML      []byte   `json:"-"`
	Warnings []string `json:"warnings,omitempty"`
}

// OverlayService defines the request-level operations the HTTP handlers
// expose.
type OverlayService interface {
	// Open parses a version-5 TEI stand-off document and summarises it.
	Open(data []byte) (*CollectionInfo, error)

	// RoundTrip parses a stand-off document and immediately serialises it
	// back, returning the re-written bytes (spec §8 scenario 6, half of
	// the round-trip property).
	RoundTrip(data []byte) ([]byte, error)

	// Validate parses, round-trips, and re-parses a stand-off document,
	// comparing tagset/annotation counts before and after.
	Validate(data []byte) (*ValidationResult, error)

	// Project applies every annotation in a stand-off document onto a
	// source XML document, producing the inline-annotated tree (spec
	// components C3-C5). Non-fatal out-of-bounds anchors are reported as
	// warnings rather than failing the request (spec §7).
	Project(sourceXML, standoffData []byte) (*ProjectResult, error)

	// Merge combines two stand-off documents into one, deduplicating
	// tagsets by id, and serialises the result.
	Merge(data1, data2 []byte, title, author string) ([]byte, error)

	// ConvertToText rewrites a stand-off document's ptr/seg anchors into
	// the literal spans of sourceText they point to.
	ConvertToText(standoffData []byte, sourceText string) ([]byte, error)
}

type overlayService struct {
	namer *project.Namer
	ns    *project.Namespace
}

// NewOverlayService builds an OverlayService using cfg's namer/namespace
// settings to configure every projection this service runs.
func NewOverlayService(cfg config.NamerConfig) OverlayService {
	namer := project.NewNamer()
	if cfg.ReplacementChar != "" {
		replacement := []rune(cfg.ReplacementChar)[0]
		namer.Replace = func(rune) rune { return replacement }
	}
	var ns *project.Namespace
	if cfg.NamespaceURI != "" {
		ns = &project.Namespace{Prefix: cfg.NamespacePrefix, URI: cfg.NamespaceURI}
	}
	return &overlayService{namer: namer, ns: ns}
}

func (s *overlayService) Open(data []byte) (*CollectionInfo, error) {
	coll, length, err := tei.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("service: parse stand-off: %w", err)
	}
	return collectionInfo(coll, length), nil
}

func (s *overlayService) RoundTrip(data []byte) ([]byte, error) {
	coll, length, err := tei.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("service: parse stand-off: %w", err)
	}
	var buf bytes.Buffer
	if err := tei.Write(&buf, coll, length); err != nil {
		return nil, fmt.Errorf("service: write stand-off: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *overlayService) Validate(data []byte) (*ValidationResult, error) {
	info, err := s.Open(data)
	if err != nil {
		return nil, err
	}

	output, err := s.RoundTrip(data)
	if err != nil {
		return nil, err
	}

	reparsed, err := s.Open(output)
	if err != nil {
		return &ValidationResult{
			Info:         info,
			OriginalSize: len(data),
			OutputSize:   len(output),
			Success:      false,
		}, fmt.Errorf("service: re-parse after write failed: %w", err)
	}

	success := reparsed.TagsetCount == info.TagsetCount &&
		reparsed.TagCount == info.TagCount &&
		reparsed.AnnotationCount == info.AnnotationCount &&
		reparsed.DocID == info.DocID

	return &ValidationResult{
		Info:         info,
		OriginalSize: len(data),
		OutputSize:   len(output),
		Success:      success,
	}, nil
}

func (s *overlayService) Project(sourceXML, standoffData []byte) (*ProjectResult, error) {
	coll, _, err := tei.Read(bytes.NewReader(standoffData))
	if err != nil {
		return nil, fmt.Errorf("service: parse stand-off: %w", err)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(bytes.NewReader(sourceXML)); err != nil {
		return nil, fmt.Errorf("service: parse source document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, overlayerr.NewStructuralInvariantError(nil, "service: source document has no root element")
	}

	pd := project.NewDocument(root, project.Config{Namer: s.namer, Namespace: s.ns})
	for _, anno := range coll.Annotations {
		pd.BuildOverlay(anno)
	}

	var warnings []string
	for _, w := range pd.Warnings() {
		warnings = append(warnings, "WARNING: "+w.Error())
	}

	if err := pd.ApplyAll(); err != nil {
		return nil, fmt.Errorf("service: apply overlays: %w", err)
	}

	var buf bytes.Buffer
	doc.Indent(2)
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("service: serialise projected document: %w", err)
	}

	return &ProjectResult{XML: buf.Bytes(), Warnings: warnings}, nil
}

func (s *overlayService) Merge(data1, data2 []byte, title, author string) ([]byte, error) {
	coll1, length1, err := tei.Read(bytes.NewReader(data1))
	if err != nil {
		return nil, fmt.Errorf("service: parse first stand-off collection: %w", err)
	}
	coll2, _, err := tei.Read(bytes.NewReader(data2))
	if err != nil {
		return nil, fmt.Errorf("service: parse second stand-off collection: %w", err)
	}

	merged := tei.MergeCollections(coll1, coll2, title, author)

	var buf bytes.Buffer
	if err := tei.Write(&buf, merged, length1); err != nil {
		return nil, fmt.Errorf("service: write merged stand-off collection: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *overlayService) ConvertToText(standoffData []byte, sourceText string) ([]byte, error) {
	out, err := tei.ConvertPtrRefsToText(bytes.NewReader(standoffData), sourceText)
	if err != nil {
		return nil, fmt.Errorf("service: convert ptr refs to text: %w", err)
	}
	return out, nil
}

// collectionInfo reduces a parsed Collection to its HTTP-facing summary.
func collectionInfo(coll *tei.Collection, length int) *CollectionInfo {
	info := &CollectionInfo{
		Title:           coll.Title,
		Author:          coll.Author,
		Publisher:       coll.Publisher,
		Description:     coll.Description,
		TextLength:      length,
		TagsetCount:     len(coll.Tagsets),
		AnnotationCount: len(coll.Annotations),
	}
	var zero uuid.UUID
	if coll.DocID != zero {
		info.DocID = model.FormatID(coll.DocID)
	}

	names := make(map[string]bool)
	for _, ts := range coll.Tagsets {
		info.TagCount += len(ts.Tags)
		for _, tag := range ts.Tags {
			names[tag.Name] = true
		}
	}
	for name := range names {
		info.TagNames = append(info.TagNames, name)
	}
	sort.Strings(info.TagNames)

	return info
}
