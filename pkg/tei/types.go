// Package tei implements the stand-off XML exchange format of spec §6: a
// TEI document carrying tagsets, annotations, and alternating ptr/seg
// anchors over a flat text the core never materialises itself (the flat
// text length is supplied by the caller, who owns the XML source document
// pkg/project projects onto).
package tei

import (
	"github.com/google/uuid"

	"github.com/catma/overlay/pkg/model"
)

// SupportedVersion is the only stand-off format version this package will
// read or write (spec §6: "The core accepts only version 5; other
// versions fail").
const SupportedVersion = "5"

// Collection is everything one stand-off file round-trips: collection
// metadata, the tagsets its annotations draw tags from, and the
// annotations themselves.
type Collection struct {
	DocID       uuid.UUID // identifies the source document the char offsets are relative to
	Title       string
	Author      string
	Publisher   string
	Description string
	Tagsets     []*model.Tagset
	Annotations []*model.Annotation
}
