package docmodel

import "strings"

// Child is one ordered entry under a Node: either a nested *Node or a raw
// Text segment (only legal under types that allow mixed content).
type Child interface {
	isChild()
}

// Text is a raw text segment inside a mixed-content node.
type Text string

func (Text) isChild() {}

// Node is an in-memory document node: a type name, an opaque prop bag, and an
// ordered child sequence. A node is owned exclusively by its parent; the tree
// carries no back-edges. Ancestry context is supplied transiently during
// encoding.
type Node struct {
	Type     string
	Props    PropBag
	Children []Child
}

func (*Node) isChild() {}

// AppendChild appends a child node or text segment.
func (n *Node) AppendChild(c Child) {
	n.Children = append(n.Children, c)
}

// shallowClone copies type and props but no children. Used by the repair
// algorithm when splitting a parent.
func (n *Node) shallowClone() *Node {
	return &Node{Type: n.Type, Props: n.Props.clone()}
}

// deepClone copies the whole subtree. Repair operates on a clone so callers
// holding references into the input tree never observe splicing.
func (n *Node) deepClone() *Node {
	out := n.shallowClone()
	for _, c := range n.Children {
		switch v := c.(type) {
		case Text:
			out.Children = append(out.Children, v)
		case *Node:
			out.Children = append(out.Children, v.deepClone())
		}
	}
	return out
}

// LeafText returns the concatenated raw text of the subtree in document
// order. Repair preserves this value exactly.
func (n *Node) LeafText() string {
	var sb strings.Builder
	n.collectLeafText(&sb)
	return sb.String()
}

func (n *Node) collectLeafText(sb *strings.Builder) {
	for _, c := range n.Children {
		switch v := c.(type) {
		case Text:
			sb.WriteString(string(v))
		case *Node:
			v.collectLeafText(sb)
		}
	}
}

// BuildTree constructs a node of the given registered type with the given
// props and children. The type must be registered and the props must pass
// numeric validation; child legality is enforced later by the repair pass.
func BuildTree(reg *Registry, rootType string, props PropBag, children ...Child) (*Node, error) {
	if _, err := reg.Lookup(rootType); err != nil {
		return nil, err
	}
	if err := ValidateProps(props); err != nil {
		return nil, err
	}
	node := &Node{Type: rootType, Props: props}
	node.Children = append(node.Children, children...)
	return node, nil
}
