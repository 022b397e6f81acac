package docmodel

import (
	"encoding/xml"
	"path"
	"sort"
	"strings"
)

// Content types of the built-in parts.
const (
	ContentTypeDocument      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeSettings      = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	ContentTypeXML           = "application/xml"
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
)

// contentTypesLocation is the fixed location of the declaration part.
const contentTypesLocation = "[Content_Types].xml"

// ContentTypeDefault declares the content type for an extension.
type ContentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypeOverride declares the content type for one specific part.
type ContentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypesXML struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []ContentTypeDefault  `xml:"Default"`
	Overrides []ContentTypeOverride `xml:"Override"`
}

// ContentTypes is the package's content type declaration table: defaults by
// extension plus per-part overrides.
type ContentTypes struct {
	defaults  map[string]string
	overrides map[string]string
}

// NewContentTypes returns an empty declaration table.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		defaults:  make(map[string]string),
		overrides: make(map[string]string),
	}
}

// SetDefault declares the content type for an extension (without dot).
func (ct *ContentTypes) SetDefault(extension, contentType string) {
	ct.defaults[strings.ToLower(extension)] = contentType
}

// SetOverride declares the content type for one part location.
func (ct *ContentTypes) SetOverride(location, contentType string) {
	ct.overrides[normalizePartName(location)] = contentType
}

// Resolve returns the content type for a part location: the explicit override
// wins, then the extension default; otherwise UnresolvedContentTypeError.
func (ct *ContentTypes) Resolve(location string) (string, error) {
	if t, ok := ct.overrides[normalizePartName(location)]; ok {
		return t, nil
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(location), "."))
	if t, ok := ct.defaults[ext]; ok {
		return t, nil
	}
	return "", &UnresolvedContentTypeError{Location: location}
}

func (ct *ContentTypes) marshal() ([]byte, error) {
	wire := contentTypesXML{Namespace: NamespaceContentTypes}

	extensions := make([]string, 0, len(ct.defaults))
	for ext := range ct.defaults {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	for _, ext := range extensions {
		wire.Defaults = append(wire.Defaults, ContentTypeDefault{Extension: ext, ContentType: ct.defaults[ext]})
	}

	parts := make([]string, 0, len(ct.overrides))
	for p := range ct.overrides {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	for _, p := range parts {
		wire.Overrides = append(wire.Overrides, ContentTypeOverride{PartName: p, ContentType: ct.overrides[p]})
	}

	output, err := xml.Marshal(&wire)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), output...), nil
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	var wire contentTypesXML
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	ct := NewContentTypes()
	for _, d := range wire.Defaults {
		ct.SetDefault(d.Extension, d.ContentType)
	}
	for _, o := range wire.Overrides {
		ct.SetOverride(o.PartName, o.ContentType)
	}
	return ct, nil
}

// normalizePartName gives part names the leading slash the content types part
// uses, regardless of how callers spell locations.
func normalizePartName(location string) string {
	if strings.HasPrefix(location, "/") {
		return location
	}
	return "/" + location
}
