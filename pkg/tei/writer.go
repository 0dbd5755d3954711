package tei

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/standoff"
)

const techDescID = "CATMA_TECH_DESC"

// Write serialises coll as a version-5 TEI stand-off document. textLength
// is the flat-text length (C3's L) the annotations' ranges are relative
// to — the writer drives pkg/standoff's merger to build the ptr/seg anchor
// sequence itself rather than requiring the caller to pre-partition it.
func Write(w io.Writer, coll *Collection, textLength int) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("TEI")

	header := root.CreateElement("teiHeader")
	writeFileDesc(header, coll)
	encoding := header.CreateElement("encodingDesc")
	for _, ts := range coll.Tagsets {
		writeTagset(encoding, ts)
	}

	textEl := root.CreateElement("text")
	body := textEl.CreateElement("body")
	if err := writeAnchors(body, coll, textLength); err != nil {
		return err
	}
	for _, anno := range coll.Annotations {
		writeAnnotationFS(textEl, anno, coll)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func writeFileDesc(header *etree.Element, coll *Collection) {
	fileDesc := header.CreateElement("fileDesc")
	titleStmt := fileDesc.CreateElement("titleStmt")
	titleStmt.CreateElement("title").SetText(coll.Title)
	titleStmt.CreateElement("author").SetText(coll.Author)
	pubStmt := fileDesc.CreateElement("publicationStmt")
	pubStmt.CreateElement("publisher").SetText(coll.Publisher)
	sourceDesc := fileDesc.CreateElement("sourceDesc")
	sourceDesc.CreateElement("p").SetText(coll.Description)

	ab := sourceDesc.CreateElement("ab")
	fs := ab.CreateElement("fs")
	fs.CreateAttr("xml:id", techDescID)
	f := fs.CreateElement("f")
	f.CreateAttr("name", "version")
	f.CreateElement("string").SetText(SupportedVersion)
}

func writeTagset(parent *etree.Element, ts *model.Tagset) {
	fsd := parent.CreateElement("fsdDecl")
	fsd.CreateAttr("xml:id", model.FormatID(ts.ID))
	fsd.CreateAttr("n", ts.Name+" "+model.FormatTimestamp(ts.Version))

	tags := make([]*model.Tag, 0, len(ts.Tags))
	for _, t := range ts.Tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID.String() < tags[j].ID.String() })
	for _, tag := range tags {
		writeTag(fsd, tag)
	}
}

func writeTag(parent *etree.Element, tag *model.Tag) {
	fd := parent.CreateElement("fsDecl")
	fd.CreateAttr("xml:id", model.FormatID(tag.ID))
	fd.CreateAttr("n", tag.Name)
	fd.CreateAttr("type", model.FormatID(tag.ID))
	if tag.ParentID != nil {
		fd.CreateAttr("baseTypes", model.FormatID(*tag.ParentID))
	}
	fd.CreateElement("fsDescr").SetText(tag.Name)

	for _, name := range sortedKeys(tag.Properties) {
		writeProperty(fd, tag.Properties[name])
	}
}

func writeProperty(parent *etree.Element, prop *model.Property) {
	fDecl := parent.CreateElement("fDecl")
	fDecl.CreateAttr("xml:id", model.FormatID(prop.ID))
	fDecl.CreateAttr("name", prop.Name)
	vColl := fDecl.CreateElement("vRange").CreateElement("vColl")
	for _, v := range prop.Proposed {
		vColl.CreateElement("string").SetText(v)
	}
}

func writeAnchors(body *etree.Element, coll *Collection, length int) error {
	rm, err := standoff.Merge(length, coll.Annotations)
	if err != nil {
		return err
	}

	ab := body.CreateElement("ab")
	ab.CreateAttr("type", "catma")
	docRef := model.FormatID(coll.DocID)

	for _, key := range rm.Keys() {
		annos := rm.Annotations(key)
		target := fmt.Sprintf("catma://%s#char=%d,%d", docRef, key.Start, key.End)
		if len(annos) == 0 {
			ptr := ab.CreateElement("ptr")
			ptr.CreateAttr("target", target)
			ptr.CreateAttr("type", "inclusion")
			continue
		}
		seg := ab.CreateElement("seg")
		refs := make([]string, len(annos))
		for i, a := range annos {
			refs[i] = "#" + model.FormatID(a.ID)
		}
		seg.CreateAttr("ana", strings.Join(refs, " "))
		ptr := seg.CreateElement("ptr")
		ptr.CreateAttr("target", target)
		ptr.CreateAttr("type", "inclusion")
	}
	return nil
}

func writeAnnotationFS(parent *etree.Element, anno *model.Annotation, coll *Collection) {
	fs := parent.CreateElement("fs")
	fs.CreateAttr("xml:id", model.FormatID(anno.ID))
	fs.CreateAttr("type", model.FormatID(anno.Tag.ID))

	written := make(map[string]bool, len(anno.Properties))
	for _, name := range sortedKeys(anno.Properties) {
		writeF(fs, name, anno.Properties[name].Values())
		written[name] = true
	}

	// Writer guarantees catma_markupauthor and catma_displaycolor are
	// present, falling back to collection author and tag colour (spec §6).
	if !written[model.PropertyMarkupAuthor] {
		writeF(fs, model.PropertyMarkupAuthor, []string{coll.Author})
	}
	if !written[model.PropertyDisplayColor] {
		writeF(fs, model.PropertyDisplayColor, []string{anno.Tag.Colour.String()})
	}
}

func writeF(parent *etree.Element, name string, values []string) {
	f := parent.CreateElement("f")
	f.CreateAttr("name", name)
	for _, v := range values {
		f.CreateElement("string").SetText(v)
	}
}

// sortedKeys returns a map's keys in sorted order, for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
