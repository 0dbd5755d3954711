package tei

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/catma/overlay/pkg/model"
	"github.com/catma/overlay/pkg/overlayerr"
	"github.com/catma/overlay/pkg/ranges"
)

// Read parses a version-5 TEI stand-off document. It returns the collection
// and the flat-text length implied by the union of its anchors, letting a
// caller sanity-check it against the source document's own length.
func Read(r io.Reader) (*Collection, int, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, 0, fmt.Errorf("tei: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, 0, overlayerr.NewStructuralInvariantError(nil, "tei: empty document")
	}

	header := root.FindElement("teiHeader")
	if header == nil {
		return nil, 0, overlayerr.NewStructuralInvariantError(nil, "tei: missing teiHeader")
	}
	if err := checkVersion(header); err != nil {
		return nil, 0, err
	}

	coll := &Collection{}
	readFileDesc(header, coll)

	for _, fsd := range header.FindElements("encodingDesc/fsdDecl") {
		ts, err := readTagset(fsd)
		if err != nil {
			return nil, 0, err
		}
		coll.Tagsets = append(coll.Tagsets, ts)
	}
	for _, ts := range coll.Tagsets {
		if err := ts.Resolve(); err != nil {
			return nil, 0, fmt.Errorf("tei: %w", err)
		}
	}
	tagByID, err := indexTags(coll.Tagsets)
	if err != nil {
		return nil, 0, err
	}

	textEl := root.FindElement("text")
	if textEl == nil {
		return nil, 0, overlayerr.NewStructuralInvariantError(nil, "tei: missing text element")
	}

	fsByAnno := make(map[string]*etree.Element)
	for _, fs := range textEl.FindElements("fs") {
		fsByAnno[fs.SelectAttrValue("xml:id", "")] = fs
	}

	body := textEl.FindElement("body")
	if body == nil {
		return nil, 0, overlayerr.NewStructuralInvariantError(nil, "tei: missing text/body")
	}
	annos, length, docID, err := readAnchors(body, tagByID, fsByAnno)
	if err != nil {
		return nil, 0, err
	}
	coll.Annotations = annos
	coll.DocID = docID

	return coll, length, nil
}

func checkVersion(header *etree.Element) error {
	path := fmt.Sprintf("fileDesc/sourceDesc/ab/fs[@xml:id='%s']/f[@name='version']/string", techDescID)
	version := header.FindElement(path)
	if version == nil {
		return overlayerr.NewFormatVersionError(nil, "tei: missing format version declaration")
	}
	if strings.TrimSpace(version.Text()) != SupportedVersion {
		return overlayerr.NewFormatVersionError(nil, "tei: unsupported format version %q, only %q accepted", version.Text(), SupportedVersion)
	}
	return nil
}

func readFileDesc(header *etree.Element, coll *Collection) {
	if e := header.FindElement("fileDesc/titleStmt/title"); e != nil {
		coll.Title = e.Text()
	}
	if e := header.FindElement("fileDesc/titleStmt/author"); e != nil {
		coll.Author = e.Text()
	}
	if e := header.FindElement("fileDesc/publicationStmt/publisher"); e != nil {
		coll.Publisher = e.Text()
	}
	if e := header.FindElement("fileDesc/sourceDesc/p"); e != nil {
		coll.Description = e.Text()
	}
}

// splitN splits a Tagset/Tag "n" attribute of "<name> <timestamp>" form.
func splitN(n string) (name, rest string) {
	idx := strings.LastIndex(n, " ")
	if idx < 0 {
		return n, ""
	}
	return n[:idx], n[idx+1:]
}

func readTagset(fsd *etree.Element) (*model.Tagset, error) {
	id, err := model.ParseID(fsd.SelectAttrValue("xml:id", ""))
	if err != nil {
		return nil, fmt.Errorf("tei: tagset id: %w", err)
	}
	name, tsStr := splitN(fsd.SelectAttrValue("n", ""))
	version, err := model.ParseTimestamp(tsStr)
	if err != nil {
		return nil, fmt.Errorf("tei: tagset %s version: %w", id, err)
	}

	ts := &model.Tagset{ID: id, Name: name, Version: version, Tags: make(map[uuid.UUID]*model.Tag)}
	for _, fd := range fsd.FindElements("fsDecl") {
		tag, err := readTag(fd)
		if err != nil {
			return nil, err
		}
		ts.Add(tag)
	}
	return ts, nil
}

func readTag(fd *etree.Element) (*model.Tag, error) {
	id, err := model.ParseID(fd.SelectAttrValue("xml:id", ""))
	if err != nil {
		return nil, fmt.Errorf("tei: tag id: %w", err)
	}
	name := fd.SelectAttrValue("n", "")

	var colour model.Colour
	var parentID *uuid.UUID
	if base := fd.SelectAttrValue("baseTypes", ""); base != "" {
		pid, err := model.ParseID(base)
		if err != nil {
			return nil, fmt.Errorf("tei: tag %s baseTypes: %w", id, err)
		}
		parentID = &pid
	}

	tag := &model.Tag{
		ID:         id,
		Name:       name,
		ParentID:   parentID,
		Colour:     colour,
		Properties: make(map[string]*model.Property),
	}
	for _, fDecl := range fd.FindElements("fDecl") {
		prop, err := readProperty(fDecl)
		if err != nil {
			return nil, err
		}
		tag.Properties[prop.Name] = prop
	}
	if p, ok := tag.Properties[model.PropertyDisplayColor]; ok && len(p.Proposed) > 0 {
		if c, err := model.ParseColour(p.Proposed[0]); err == nil {
			tag.Colour = c
		}
	}
	return tag, nil
}

func readProperty(fDecl *etree.Element) (*model.Property, error) {
	id, err := model.ParseID(fDecl.SelectAttrValue("xml:id", ""))
	if err != nil {
		return nil, fmt.Errorf("tei: property id: %w", err)
	}
	prop := &model.Property{ID: id, Name: fDecl.SelectAttrValue("name", "")}
	for _, s := range fDecl.FindElements("vRange/vColl/string") {
		prop.AddProposed(s.Text())
	}
	return prop, nil
}

// indexTags flattens every tagset's tags into one id-keyed lookup, used to
// resolve an annotation's tag reference (fs/@type) back to a *model.Tag.
func indexTags(tagsets []*model.Tagset) (map[uuid.UUID]*model.Tag, error) {
	byID := make(map[uuid.UUID]*model.Tag)
	for _, ts := range tagsets {
		for id, tag := range ts.Tags {
			if _, dup := byID[id]; dup {
				return nil, fmt.Errorf("tei: tag id %s appears in more than one tagset", id)
			}
			byID[id] = tag
		}
	}
	return byID, nil
}

// readFS reads one fs element's f/string children into a name -> values map.
func readFS(fs *etree.Element) map[string][]string {
	props := make(map[string][]string)
	for _, f := range fs.FindElements("f") {
		name := f.SelectAttrValue("name", "")
		var values []string
		for _, s := range f.FindElements("string") {
			values = append(values, s.Text())
		}
		props[name] = values
	}
	return props
}

// readAnchors walks the body/ab's ptr/seg children, reconstructing each
// annotation's ranges from its own possibly-non-contiguous set of ptr
// anchors (the inverse of standoff.Merge: many partition segments fold
// back into one Annotation.Ranges per distinct xml:id).
func readAnchors(body *etree.Element, tagByID map[uuid.UUID]*model.Tag, fsByAnno map[string]*etree.Element) ([]*model.Annotation, int, uuid.UUID, error) {
	ab := body.FindElement("ab")
	if ab == nil {
		return nil, 0, uuid.UUID{}, overlayerr.NewMissingAnchorsError(nil, "tei: missing text/body/ab")
	}

	byID := make(map[uuid.UUID]*model.Annotation)
	var order []uuid.UUID
	length := 0
	var docID uuid.UUID

	recordDocID := func(ref string) {
		if docID != (uuid.UUID{}) {
			return
		}
		if id, err := model.ParseID(ref); err == nil {
			docID = id
		}
	}

	for _, child := range ab.ChildElements() {
		switch child.Tag {
		case "ptr":
			docRef, r, err := parsePtrTarget(child.SelectAttrValue("target", ""))
			if err != nil {
				return nil, 0, uuid.UUID{}, err
			}
			recordDocID(docRef)
			if r.End > length {
				length = r.End
			}
		case "seg":
			ptr := child.FindElement("ptr")
			if ptr == nil {
				return nil, 0, uuid.UUID{}, overlayerr.NewMissingAnchorsError(nil, "tei: seg with no ptr child")
			}
			docRef, r, err := parsePtrTarget(ptr.SelectAttrValue("target", ""))
			if err != nil {
				return nil, 0, uuid.UUID{}, err
			}
			recordDocID(docRef)
			if r.End > length {
				length = r.End
			}
			for _, ref := range strings.Fields(child.SelectAttrValue("ana", "")) {
				id, err := model.ParseID(strings.TrimPrefix(ref, "#"))
				if err != nil {
					return nil, 0, uuid.UUID{}, fmt.Errorf("tei: seg ana reference: %w", err)
				}
				anno, ok := byID[id]
				if !ok {
					anno, err = newAnnotationFromFS(id, tagByID, fsByAnno)
					if err != nil {
						return nil, 0, uuid.UUID{}, err
					}
					byID[id] = anno
					order = append(order, id)
				}
				anno.Ranges = append(anno.Ranges, r)
			}
		}
	}

	annos := make([]*model.Annotation, 0, len(order))
	for _, id := range order {
		anno := byID[id]
		ranges.Sort(anno.Ranges)
		anno.Ranges = ranges.MergeAdjacent(anno.Ranges)
		annos = append(annos, anno)
	}
	return annos, length, docID, nil
}

// parsePtrTarget splits a ptr/@target of the form
// "catma://CATMA_<DOCID-upper>#char=<start>,<end>" (spec §6) into the
// document reference and the anchored range.
func parsePtrTarget(target string) (docRef string, r ranges.Range, err error) {
	idx := strings.Index(target, "#char=")
	if idx < 0 {
		return "", ranges.Range{}, overlayerr.NewStructuralInvariantError(nil, "tei: malformed ptr target %q", target)
	}
	docRef = strings.TrimPrefix(target[:idx], "catma://")
	var start, end int
	if _, err := fmt.Sscanf(target[idx+len("#char="):], "%d,%d", &start, &end); err != nil {
		return "", ranges.Range{}, overlayerr.NewStructuralInvariantError(nil, "tei: malformed ptr target %q: %v", target, err)
	}
	return docRef, ranges.New(start, end), nil
}

func newAnnotationFromFS(id uuid.UUID, tagByID map[uuid.UUID]*model.Tag, fsByAnno map[string]*etree.Element) (*model.Annotation, error) {
	fs, ok := fsByAnno[model.FormatID(id)]
	if !ok {
		return nil, overlayerr.NewStructuralInvariantError(nil, "tei: annotation %s has no fs element", id)
	}

	tagID, err := model.ParseID(fs.SelectAttrValue("type", ""))
	if err != nil {
		return nil, fmt.Errorf("tei: annotation %s tag reference: %w", id, err)
	}
	tag, ok := tagByID[tagID]
	if !ok {
		return nil, overlayerr.NewDanglingReferenceError(nil, "tei: annotation %s references unknown tag %s", id, tagID)
	}

	anno := &model.Annotation{ID: id, Tag: tag, Properties: make(map[string]*model.PropertyValues)}
	for name, values := range readFS(fs) {
		anno.Properties[name] = model.NewPropertyValues(values...)
	}
	return anno, nil
}
