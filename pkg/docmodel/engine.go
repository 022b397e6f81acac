// XML transform engine backed by antchfx/xmlquery and antchfx/xpath.
//
// Node encode/decode implementations never touch raw markup directly: encode
// renders a bound template into element nodes, decode evaluates XPath
// queries against parsed elements.

package docmodel

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// WordprocessingML namespaces used by the built-in node types.
const (
	NamespaceWordML        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceWord2012      = "http://schemas.microsoft.com/office/word/2012/wordml"
	NamespacePackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Bindings maps template placeholder names to their values. Values are
// XML-escaped on substitution.
type Bindings map[string]string

// Engine renders bound XML templates into nodes and evaluates XPath queries
// against them. It carries the namespace table templates may reference.
type Engine struct {
	namespaces map[string]string
}

// NewEngine creates an engine preloaded with the WordprocessingML namespace
// bindings (w, r, w15).
func NewEngine() *Engine {
	return &Engine{
		namespaces: map[string]string{
			"w":   NamespaceWordML,
			"r":   NamespaceRelationships,
			"w15": NamespaceWord2012,
		},
	}
}

// BindNamespace adds or replaces a prefix binding available to templates.
func (e *Engine) BindNamespace(prefix, uri string) {
	e.namespaces[prefix] = uri
}

// Render substitutes bindings into the template (placeholders are written
// {name}), parses the result, and returns the template's root element.
// Binding values are XML-escaped.
func (e *Engine) Render(template string, bindings Bindings) (*xmlquery.Node, error) {
	body := template
	if len(bindings) > 0 {
		pairs := make([]string, 0, len(bindings)*2)
		for k, v := range bindings {
			pairs = append(pairs, "{"+k+"}", escapeXML(v))
		}
		body = strings.NewReplacer(pairs...).Replace(template)
	}

	// Wrap so prefixes resolve; the wrapper is discarded.
	var wrapper strings.Builder
	wrapper.WriteString("<template-root")
	for _, prefix := range e.sortedPrefixes() {
		fmt.Fprintf(&wrapper, " xmlns:%s=%q", prefix, e.namespaces[prefix])
	}
	wrapper.WriteString(">")
	wrapper.WriteString(body)
	wrapper.WriteString("</template-root>")

	doc, err := xmlquery.Parse(strings.NewReader(wrapper.String()))
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	root := firstElementChild(doc)
	if root == nil {
		return nil, fmt.Errorf("rendering template: no root element")
	}
	elem := firstElementChild(root)
	if elem == nil {
		return nil, fmt.Errorf("rendering template: template produced no element")
	}
	detach(elem)
	return elem, nil
}

// Query evaluates an XPath expression against n and returns the inner text of
// the first match, or "" when nothing matches.
func (e *Engine) Query(n *xmlquery.Node, path string) (string, error) {
	node, err := e.QueryFirst(n, path)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", nil
	}
	return node.InnerText(), nil
}

// QueryFirst evaluates an XPath expression and returns the first matching node.
func (e *Engine) QueryFirst(n *xmlquery.Node, path string) (*xmlquery.Node, error) {
	expr, err := e.compile(path)
	if err != nil {
		return nil, err
	}
	return xmlquery.QuerySelector(n, expr), nil
}

// QueryAll evaluates an XPath expression and returns all matching nodes.
func (e *Engine) QueryAll(n *xmlquery.Node, path string) ([]*xmlquery.Node, error) {
	expr, err := e.compile(path)
	if err != nil {
		return nil, err
	}
	return xmlquery.QuerySelectorAll(n, expr), nil
}

// compile binds the engine's prefix table into the expression, so queries
// match elements by namespace URI rather than by whatever prefix the source
// document happens to declare.
func (e *Engine) compile(path string) (*xpath.Expr, error) {
	expr, err := xpath.CompileWithNS(path, e.namespaces)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", path, err)
	}
	return expr, nil
}

// DeclareNamespaces attaches the engine's full namespace declaration set to a
// part's root element so every emitted part is self-contained.
func (e *Engine) DeclareNamespaces(root *xmlquery.Node) {
	for _, prefix := range e.sortedPrefixes() {
		xmlquery.AddAttr(root, "xmlns:"+prefix, e.namespaces[prefix])
	}
}

func (e *Engine) sortedPrefixes() []string {
	prefixes := make([]string, 0, len(e.namespaces))
	for p := range e.namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Attr returns the value of the named attribute, or "". Matching is on the
// local name so w:id and plain id both answer to "id".
func Attr(n *xmlquery.Node, name string) string {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present on n.
func HasAttr(n *xmlquery.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element with the given prefix and local
// name. The prefix matches either literally or through its namespace URI, so
// predicates hold for parsed documents regardless of declared prefixes.
func (e *Engine) IsElement(n *xmlquery.Node, prefix, local string) bool {
	if n == nil || n.Type != xmlquery.ElementNode || n.Data != local {
		return false
	}
	if n.Prefix == prefix {
		return true
	}
	if uri, ok := e.namespaces[prefix]; ok && n.NamespaceURI == uri {
		return true
	}
	return false
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

func detach(n *xmlquery.Node) {
	if n.Parent != nil {
		if n.Parent.FirstChild == n {
			n.Parent.FirstChild = n.NextSibling
		}
		if n.Parent.LastChild == n {
			n.Parent.LastChild = n.PrevSibling
		}
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
