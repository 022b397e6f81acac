package docmodel

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"
)

// xmlHeader is the declaration written ahead of every XML part.
const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Standard part locations.
const (
	DocumentPartLocation = "word/document.xml"
	SettingsPartLocation = "word/settings.xml"
)

// Part is one named resource inside the package: either a document tree
// (XML-backed parts) or opaque bytes, plus its owned relationship list.
type Part struct {
	Location string
	Tree     *Node
	Raw      []byte

	rels *Relationships
	pkg  *Package
}

// Relationships returns the part's relationship collection.
func (p *Part) Relationships() *Relationships {
	return p.rels
}

// Package models the whole container: an ordered part collection, the
// content type declaration table, and the package-level relationships.
// A Package is not safe for concurrent mutation; callers needing concurrent
// edits must coordinate externally.
type Package struct {
	registry     *Registry
	parts        []*Part
	byLocation   map[string]*Part
	contentTypes *ContentTypes
	rels         *Relationships
}

// NewPackage authors a minimal valid package: content type declarations, the
// package-level relationships, a document part with an empty body, and a
// settings part carrying a fresh document identity GUID.
func NewPackage(reg *Registry) *Package {
	if reg == nil {
		reg = DefaultRegistry()
	}
	pkg := &Package{
		registry:     reg,
		byLocation:   make(map[string]*Part),
		contentTypes: NewContentTypes(),
	}
	pkg.rels = newRelationships(pkg, "")

	pkg.contentTypes.SetDefault("xml", ContentTypeXML)
	pkg.contentTypes.SetDefault("rels", ContentTypeRelationships)
	pkg.contentTypes.SetOverride(DocumentPartLocation, ContentTypeDocument)
	pkg.contentTypes.SetOverride(SettingsPartLocation, ContentTypeSettings)

	document := &Part{
		Location: DocumentPartLocation,
		Tree: &Node{Type: TypeDocument, Children: []Child{
			&Node{Type: TypeBody},
		}},
	}
	settings := &Part{
		Location: SettingsPartLocation,
		Tree: &Node{Type: TypeSettings, Props: PropBag{
			"documentID": "{" + strings.ToUpper(uuid.New().String()) + "}",
		}},
	}

	// AddPart cannot fail here: locations are distinct constants.
	_ = pkg.AddPart(document)
	_ = pkg.AddPart(settings)

	pkg.rels.Add(RelTypeOfficeDocument, DocumentPartLocation, false)
	document.rels.Add(RelTypeSettings, "settings.xml", false)

	return pkg
}

// Registry returns the node type registry the package encodes and decodes with.
func (pkg *Package) Registry() *Registry {
	return pkg.registry
}

// ContentTypes returns the package's content type declaration table.
func (pkg *Package) ContentTypes() *ContentTypes {
	return pkg.contentTypes
}

// Relationships returns the package-level relationship collection.
func (pkg *Package) Relationships() *Relationships {
	return pkg.rels
}

// Parts returns the parts in package order.
func (pkg *Package) Parts() []*Part {
	out := make([]*Part, len(pkg.parts))
	copy(out, pkg.parts)
	return out
}

// AddPart adds a part; it fails with DuplicatePartError if the location is
// already taken.
func (pkg *Package) AddPart(part *Part) error {
	if _, exists := pkg.byLocation[part.Location]; exists {
		return NewDuplicatePartError(part.Location)
	}
	part.pkg = pkg
	if part.rels == nil {
		part.rels = newRelationships(pkg, part.Location)
	}
	pkg.parts = append(pkg.parts, part)
	pkg.byLocation[part.Location] = part
	return nil
}

// GetPart returns the part at the given location.
func (pkg *Package) GetPart(location string) (*Part, error) {
	part, ok := pkg.byLocation[location]
	if !ok {
		return nil, NewDocumentError("get part", location, fmt.Errorf("part not found"))
	}
	return part, nil
}

// ResolveContentType resolves a part's content type against the declaration
// table.
func (pkg *Package) ResolveContentType(part *Part) (string, error) {
	return pkg.contentTypes.Resolve(part.Location)
}

// OpenPackage parses a packaged container. Parts are read concurrently but
// surfaced in container order; each part's relationships are loaded before
// the part is handed over. A missing or unreadable .rels companion degrades
// to an empty relationship set with a logged warning.
func OpenPackage(ctx context.Context, data []byte, reg *Registry) (*Package, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewDocumentError("open package", "", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	ctData, ok := readZipFile(files, contentTypesLocation)
	if !ok {
		return nil, NewDocumentError("open package", contentTypesLocation, fmt.Errorf("part not found"))
	}
	contentTypes, err := parseContentTypes(ctData)
	if err != nil {
		return nil, NewDocumentError("parse", contentTypesLocation, err)
	}

	pkg := &Package{
		registry:     reg,
		byLocation:   make(map[string]*Part),
		contentTypes: contentTypes,
	}
	pkg.rels = loadRelationships(pkg, "", files)

	var producers []func() (*Part, error)
	for _, f := range zr.File {
		if f.Name == contentTypesLocation || isRelsLocation(f.Name) {
			continue
		}
		file := f
		producers = append(producers, func() (*Part, error) {
			raw, ok := readZipFile(files, file.Name)
			if !ok {
				return nil, NewDocumentError("read part", file.Name, fmt.Errorf("part not found"))
			}
			part := &Part{Location: file.Name, Raw: raw}
			part.rels = loadRelationships(pkg, file.Name, files)
			return part, nil
		})
	}

	parts, err := ResolveOrdered(ctx, producers)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		if err := pkg.AddPart(part); err != nil {
			return nil, err
		}
	}

	return pkg, nil
}

// PartFromArchive returns the part at the given location, decoding its
// document tree on first access when the content type maps to a registered
// root node type.
func PartFromArchive(pkg *Package, location string) (*Part, error) {
	part, err := pkg.GetPart(location)
	if err != nil {
		return nil, err
	}
	if part.Tree != nil || part.Raw == nil {
		return part, nil
	}

	contentType, err := pkg.ResolveContentType(part)
	if err != nil {
		return nil, err
	}
	roots, ok := acceptedRootTypes[contentType]
	if !ok {
		// Opaque part; no tree to decode.
		return part, nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(part.Raw))
	if err != nil {
		return nil, NewDocumentError("parse", location, err)
	}
	root := firstElementChild(doc)
	if root == nil {
		return nil, NewDocumentError("parse", location, fmt.Errorf("no root element"))
	}

	tree, err := pkg.registry.DispatchDecode(roots, root)
	if err != nil {
		return nil, err
	}
	part.Tree = tree
	return part, nil
}

// acceptedRootTypes maps a part content type to the node types its root
// element may decode as.
var acceptedRootTypes = map[string][]string{
	ContentTypeDocument: {TypeDocument},
	ContentTypeSettings: {TypeSettings},
}

// Write validates the package invariants, then serializes every part into a
// container. XML-backed parts run the structural repair pass before encoding.
// On error the output must be discarded, not resumed.
func (pkg *Package) Write(ctx context.Context) ([]byte, error) {
	if err := pkg.validateClosure(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	ctData, err := pkg.contentTypes.marshal()
	if err != nil {
		return nil, NewDocumentError("marshal", contentTypesLocation, err)
	}
	if err := writeZipFile(zw, contentTypesLocation, ctData); err != nil {
		return nil, err
	}

	if err := pkg.writeRels(zw, pkg.rels); err != nil {
		return nil, err
	}

	for _, part := range pkg.parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content := part.Raw
		if part.Tree != nil {
			content, err = pkg.encodePart(part)
			if err != nil {
				return nil, err
			}
		}
		if err := writeZipFile(zw, part.Location, content); err != nil {
			return nil, err
		}
		if err := pkg.writeRels(zw, part.rels); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewDocumentError("write package", "", err)
	}
	return buf.Bytes(), nil
}

func (pkg *Package) encodePart(part *Part) ([]byte, error) {
	if err := validateTreeProps(part.Tree); err != nil {
		return nil, err
	}
	repaired, err := Repair(pkg.registry, part.Tree)
	if err != nil {
		return nil, err
	}
	root, err := pkg.registry.Encode(repaired, nil)
	if err != nil {
		return nil, err
	}
	pkg.registry.Engine().DeclareNamespaces(root)
	return append([]byte(xmlHeader), []byte(root.OutputXML(true))...), nil
}

// validateClosure enforces the package invariants before writing: every
// internal relationship target exists, and every part's content type
// resolves.
func (pkg *Package) validateClosure() error {
	if _, err := pkg.rels.Related(); err != nil {
		return err
	}
	for _, part := range pkg.parts {
		if _, err := part.rels.Related(); err != nil {
			return err
		}
		if _, err := pkg.ResolveContentType(part); err != nil {
			return err
		}
	}
	return nil
}

func (pkg *Package) writeRels(zw *zip.Writer, rels *Relationships) error {
	if rels == nil || rels.Len() == 0 {
		return nil
	}
	data, err := rels.marshal()
	if err != nil {
		return NewDocumentError("marshal relationships", rels.owner, err)
	}
	return writeZipFile(zw, relsPath(rels.owner), data)
}

// loadRelationships reads an owner's .rels companion. Absent or unreadable
// companions degrade to an empty set with a logged warning; a document
// missing relationship metadata is still readable.
func loadRelationships(pkg *Package, owner string, files map[string]*zip.File) *Relationships {
	data, ok := readZipFile(files, relsPath(owner))
	if !ok {
		GetLogger().WithField("part", relsPath(owner)).Warn("no relationships companion, using empty set")
		return newRelationships(pkg, owner)
	}
	rels, err := parseRelationships(pkg, owner, data)
	if err != nil {
		GetLogger().WithField("part", relsPath(owner)).Warn("unreadable relationships companion, using empty set: %v", err)
		return newRelationships(pkg, owner)
	}
	return rels
}

func isRelsLocation(name string) bool {
	return strings.HasSuffix(name, ".rels") &&
		(strings.HasPrefix(name, "_rels/") || strings.Contains(name, "/_rels/"))
}

func readZipFile(files map[string]*zip.File, name string) ([]byte, bool) {
	f, ok := files[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}

func writeZipFile(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return NewDocumentError("create", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return NewDocumentError("write", name, err)
	}
	return nil
}
