package docmodel

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
)

// mustParseElement parses an XML fragment that already carries its namespace
// declarations and returns the root element.
func mustParseElement(t *testing.T, fragment string) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parsing fragment: %v", err)
	}
	root := firstElementChild(doc)
	if root == nil {
		t.Fatalf("fragment has no root element")
	}
	return root
}

// mustParseWML parses a WordprocessingML fragment inside a wrapper that
// carries the standard namespace declarations, and returns the fragment's
// root element.
func mustParseWML(t *testing.T, fragment string) *xmlquery.Node {
	t.Helper()
	wrapped := `<wrap xmlns:w="` + NamespaceWordML + `" xmlns:w15="` + NamespaceWord2012 + `">` +
		fragment + `</wrap>`
	wrap := mustParseElement(t, wrapped)
	elem := firstElementChild(wrap)
	if elem == nil {
		t.Fatalf("fragment has no element")
	}
	detach(elem)
	return elem
}

// textRun builds a run holding one text node, the smallest legal container
// for raw text.
func textRun(content string) *Node {
	return &Node{Type: TypeRun, Children: []Child{
		&Node{Type: TypeText, Children: []Child{Text(content)}},
	}}
}
