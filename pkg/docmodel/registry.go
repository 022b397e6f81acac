package docmodel

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/antchfx/xmlquery"
)

// NodeDef defines one registered node type: the type name, the ordered set of
// accepted child type names, whether raw text may appear alongside children,
// a predicate matching XML elements this type can decode, and the encode and
// decode operations. Definitions are immutable once registered.
//
// Matching is by predicate rather than a 1:1 tag lookup so one type name can
// cover several structurally distinct XML shapes, and new types can refine
// matching without touching the dispatcher.
type NodeDef struct {
	Name         string
	Children     []string
	MixedContent bool
	Matches      func(n *xmlquery.Node) bool
	Encode       func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error)
	Decode       func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error)
}

func (d NodeDef) acceptsChildType(name string) bool {
	for _, c := range d.Children {
		if c == name {
			return true
		}
	}
	return false
}

// EncodeContext is passed to a node type's Encode operation. Ancestry is the
// read-only chain of ancestor nodes from the root down to the parent of the
// node being encoded; it supports context-dependent formatting decisions.
type EncodeContext struct {
	Engine   *Engine
	Node     *Node
	Ancestry []*Node
}

// Parent returns the immediate parent from the ancestry chain, or nil at the root.
func (ctx *EncodeContext) Parent() *Node {
	if len(ctx.Ancestry) == 0 {
		return nil
	}
	return ctx.Ancestry[len(ctx.Ancestry)-1]
}

// IsFinalSibling reports whether the node being encoded is its parent's last
// node child.
func (ctx *EncodeContext) IsFinalSibling() bool {
	parent := ctx.Parent()
	if parent == nil {
		return true
	}
	for i := len(parent.Children) - 1; i >= 0; i-- {
		if child, ok := parent.Children[i].(*Node); ok {
			return child == ctx.Node
		}
	}
	return false
}

// DecodeContext is passed to a node type's Decode operation.
type DecodeContext struct {
	Engine *Engine
}

// Registry is the write-once table of node type definitions. Registration
// happens at startup; the registry freezes on its first encode or decode and
// is safe for concurrent reads afterwards.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]NodeDef
	frozen atomic.Bool
	engine *Engine
}

// NewRegistry creates an empty registry bound to the given transform engine.
// A nil engine gets the default WordprocessingML engine.
func NewRegistry(engine *Engine) *Registry {
	if engine == nil {
		engine = NewEngine()
	}
	return &Registry{
		defs:   make(map[string]NodeDef),
		engine: engine,
	}
}

// Engine returns the transform engine the registry encodes and decodes with.
func (r *Registry) Engine() *Engine {
	return r.engine
}

// Register adds a node type definition. It fails with DuplicateTypeError if
// the type name already exists and with RegistryFrozenError after the
// registry has served its first encode or decode.
func (r *Registry) Register(def NodeDef) error {
	if r.frozen.Load() {
		return &RegistryFrozenError{TypeName: def.Name}
	}
	if def.Name == "" {
		return NewDocumentError("register node type", "", errors.New("empty type name"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return NewDuplicateTypeError(def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister registers a definition and panics on failure. Intended for
// startup initialization of built-in types.
func (r *Registry) MustRegister(def NodeDef) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for a type name, or UnknownTypeError.
func (r *Registry) Lookup(name string) (NodeDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return NodeDef{}, NewUnknownTypeError(name)
	}
	return def, nil
}

// Encode looks up the node's definition and invokes its encode operation,
// encoding children bottom-up first. Ancestry is the caller's ancestor chain
// for the node (nil at the root) and is extended for child encode calls.
func (r *Registry) Encode(node *Node, ancestry []*Node) (*xmlquery.Node, error) {
	r.frozen.Store(true)

	def, err := r.Lookup(node.Type)
	if err != nil {
		return nil, err
	}

	childAncestry := make([]*Node, len(ancestry)+1)
	copy(childAncestry, ancestry)
	childAncestry[len(ancestry)] = node

	encoded := make([]*xmlquery.Node, 0, len(node.Children))
	for _, c := range node.Children {
		switch v := c.(type) {
		case Text:
			encoded = append(encoded, &xmlquery.Node{Type: xmlquery.TextNode, Data: string(v)})
		case *Node:
			childXML, err := r.Encode(v, childAncestry)
			if err != nil {
				return nil, err
			}
			encoded = append(encoded, childXML)
		}
	}

	ctx := &EncodeContext{Engine: r.engine, Node: node, Ancestry: ancestry}
	return def.Encode(ctx, node.Props, encoded)
}

// DispatchDecode walks the ordered candidate type names, matching each
// definition's predicate against the XML node; the first match decodes, then
// its reported children are dispatched recursively against the matched
// type's accepted-children set. No match is terminal for the subtree.
//
// A child failing with MalformedChangeMetadataError is dropped with an error
// log; its siblings still decode.
func (r *Registry) DispatchDecode(candidates []string, n *xmlquery.Node) (*Node, error) {
	r.frozen.Store(true)

	for _, name := range candidates {
		def, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		if def.Matches == nil || !def.Matches(n) {
			continue
		}

		props, childXML, err := def.Decode(&DecodeContext{Engine: r.engine}, n)
		if err != nil {
			return nil, err
		}

		node := &Node{Type: def.Name, Props: props}
		for _, c := range childXML {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if def.MixedContent {
					node.Children = append(node.Children, Text(c.Data))
					continue
				}
				if strings.TrimSpace(c.Data) == "" {
					continue
				}
				if GetGlobalConfig().StrictMode {
					return nil, NewDocumentError("decode", def.Name, errors.New("unexpected text content under non-mixed node type"))
				}
				GetLogger().WithField("type", def.Name).Warn("dropping unexpected text content under non-mixed node type")
			case xmlquery.ElementNode:
				child, err := r.DispatchDecode(def.Children, c)
				if err != nil {
					if IsMalformedChangeMetadataError(err) {
						GetLogger().WithField("type", def.Name).Error("skipping child with malformed change metadata: %v", err)
						continue
					}
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
		}
		return node, nil
	}

	return nil, NewNoMatchingTypeError(elementName(n), candidates)
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}
