package docmodel

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Relationship types used by the built-in parts.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	RelTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
)

// Relationship is a typed reference from one part to another part or to an
// external resource.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// IsExternal reports whether the relationship targets a resource outside the
// package.
func (r Relationship) IsExternal() bool {
	return r.TargetMode == "External"
}

// relationshipsXML is the wire form of a .rels part.
type relationshipsXML struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Relationships is the relationship collection owned by one part (or by the
// package itself when owner is empty). Ids are assigned sequentially and are
// never reused, even after removal.
type Relationships struct {
	pkg   *Package
	owner string
	next  int
	items []Relationship
}

func newRelationships(pkg *Package, owner string) *Relationships {
	return &Relationships{pkg: pkg, owner: owner, next: 1}
}

// Add appends a relationship and returns its assigned id.
func (rs *Relationships) Add(relType, target string, external bool) string {
	id := fmt.Sprintf("rId%d", rs.next)
	rs.next++
	rel := Relationship{ID: id, Type: relType, Target: target}
	if external {
		rel.TargetMode = "External"
	}
	rs.items = append(rs.items, rel)
	return id
}

// Remove deletes the relationship with the given id. The id is retired: it is
// never assigned again by this collection.
func (rs *Relationships) Remove(id string) bool {
	for i, rel := range rs.items {
		if rel.ID == id {
			rs.items = append(rs.items[:i], rs.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the relationship with the given id.
func (rs *Relationships) Get(id string) (Relationship, bool) {
	for _, rel := range rs.items {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// List returns a copy of the relationships in insertion order.
func (rs *Relationships) List() []Relationship {
	out := make([]Relationship, len(rs.items))
	copy(out, rs.items)
	return out
}

// Len returns the number of relationships.
func (rs *Relationships) Len() int {
	return len(rs.items)
}

// Related resolves every internal relationship to its target part. A dangling
// internal target is an error; external targets are skipped. Used for
// package-closure checks when writing.
func (rs *Relationships) Related() ([]*Part, error) {
	var out []*Part
	for _, rel := range rs.items {
		if rel.IsExternal() {
			continue
		}
		location := resolveTarget(rs.owner, rel.Target)
		part, ok := rs.pkg.byLocation[location]
		if !ok {
			return nil, NewDocumentError("resolve relationship", rs.owner,
				fmt.Errorf("relationship %s targets missing part %q", rel.ID, location))
		}
		out = append(out, part)
	}
	return out, nil
}

func (rs *Relationships) marshal() ([]byte, error) {
	output, err := xml.Marshal(&relationshipsXML{
		Namespace:    NamespacePackageRels,
		Relationship: rs.items,
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), output...), nil
}

func parseRelationships(pkg *Package, owner string, data []byte) (*Relationships, error) {
	var wire relationshipsXML
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	rs := newRelationships(pkg, owner)
	rs.items = wire.Relationship
	for _, rel := range rs.items {
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n >= rs.next {
			rs.next = n + 1
		}
	}
	return rs, nil
}

// relsPath returns the companion .rels location for a part location, e.g.
// "word/document.xml" -> "word/_rels/document.xml.rels". The empty owner is
// the package root, whose companion is "_rels/.rels".
func relsPath(owner string) string {
	if owner == "" {
		return "_rels/.rels"
	}
	dir := path.Dir(owner)
	base := path.Base(owner)
	if dir == "." {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// resolveTarget resolves a relationship target relative to the owning part's
// directory, yielding a package-absolute part location. A leading slash
// marks the target as already package-absolute.
func resolveTarget(owner, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	dir := ""
	if owner != "" {
		dir = path.Dir(owner)
		if dir == "." {
			dir = ""
		}
	}
	return strings.TrimPrefix(path.Clean(path.Join(dir, target)), "/")
}
