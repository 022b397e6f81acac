package docmodel

import (
	"errors"
	"fmt"

	"github.com/antchfx/xmlquery"
)

// Built-in WordprocessingML node types. This is the minimal set the model
// ships with; further types (tables, images, styles) plug into the same
// registry contract.
//
// Type names are model-level, not tag names: "paragraph" matches w:p,
// "insert" matches w:ins, and so on.
const (
	TypeDocument     = "document"
	TypeBody         = "body"
	TypeParagraph    = "paragraph"
	TypeRun          = "run"
	TypeText         = "text"
	TypeBreak        = "break"
	TypeInsert       = "insert"
	TypeDelete       = "delete"
	TypeSectionProps = "sectionProps"
	TypeSettings     = "settings"
)

// DefaultRegistry returns a fresh registry with the built-in WML types
// registered against the default engine.
func DefaultRegistry() *Registry {
	reg := NewRegistry(NewEngine())
	if err := RegisterBuiltinTypes(reg); err != nil {
		panic(err)
	}
	return reg
}

// RegisterBuiltinTypes registers the built-in WML node types on a registry.
func RegisterBuiltinTypes(reg *Registry) error {
	e := reg.Engine()
	defs := []NodeDef{
		documentDef(e),
		bodyDef(e),
		paragraphDef(e),
		runDef(e),
		textDef(e),
		breakDef(e),
		trackedChangeDef(e, TypeInsert, "ins"),
		trackedChangeDef(e, TypeDelete, "del"),
		sectionPropsDef(e),
		settingsDef(e),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func documentDef(e *Engine) NodeDef {
	return NodeDef{
		Name:     TypeDocument,
		Children: []string{TypeBody},
		Matches:  func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "document") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:document/>`, nil)
			if err != nil {
				return nil, err
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			return nil, childNodes(n), nil
		},
	}
}

func bodyDef(e *Engine) NodeDef {
	return NodeDef{
		Name:     TypeBody,
		Children: []string{TypeParagraph, TypeSectionProps},
		Matches:  func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "body") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:body/>`, nil)
			if err != nil {
				return nil, err
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			var props PropBag
			// Reclaim section properties the encoder folded into the final
			// paragraph's property group.
			sect, err := ctx.Engine.QueryFirst(n, "w:p[last()]/w:pPr/w:sectPr")
			if err != nil {
				return nil, nil, err
			}
			if sect != nil {
				sec, err := decodeSectionProps(ctx.Engine, sect)
				if err != nil {
					return nil, nil, err
				}
				props = PropBag{"section": sec}
			}
			return props, childNodes(n), nil
		},
	}
}

func paragraphDef(e *Engine) NodeDef {
	return NodeDef{
		Name:     TypeParagraph,
		Children: []string{TypeRun, TypeInsert, TypeDelete},
		Matches:  func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "p") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:p/>`, nil)
			if err != nil {
				return nil, err
			}

			var pPr *xmlquery.Node
			if style, ok := props["style"].(string); ok && style != "" {
				pPr, err = ctx.Engine.Render(`<w:pPr><w:pStyle w:val="{style}"/></w:pPr>`, Bindings{"style": style})
				if err != nil {
					return nil, err
				}
			}

			// The body-final paragraph folds the body's section properties
			// into its own property group.
			if parent := ctx.Parent(); parent != nil && parent.Type == TypeBody && ctx.IsFinalSibling() {
				if sec, ok := parent.Props["section"].(PropBag); ok {
					sect, err := encodeSectionProps(ctx.Engine, sec)
					if err != nil {
						return nil, err
					}
					if pPr == nil {
						pPr, err = ctx.Engine.Render(`<w:pPr/>`, nil)
						if err != nil {
							return nil, err
						}
					}
					xmlquery.AddChild(pPr, sect)
				}
			}

			if pPr != nil {
				xmlquery.AddChild(root, pPr)
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			var props PropBag
			if style, err := ctx.Engine.QueryFirst(n, "w:pPr/w:pStyle"); err != nil {
				return nil, nil, err
			} else if style != nil {
				props = PropBag{"style": Attr(style, "val")}
			}
			return props, childNodesExcept(n, "pPr"), nil
		},
	}
}

func runDef(e *Engine) NodeDef {
	return NodeDef{
		Name:     TypeRun,
		Children: []string{TypeText, TypeBreak},
		Matches:  func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "r") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:r/>`, nil)
			if err != nil {
				return nil, err
			}

			bold, _ := props["bold"].(bool)
			italic, _ := props["italic"].(bool)
			if bold || italic {
				rPr, err := ctx.Engine.Render(`<w:rPr/>`, nil)
				if err != nil {
					return nil, err
				}
				if bold {
					b, err := ctx.Engine.Render(`<w:b/>`, nil)
					if err != nil {
						return nil, err
					}
					xmlquery.AddChild(rPr, b)
				}
				if italic {
					i, err := ctx.Engine.Render(`<w:i/>`, nil)
					if err != nil {
						return nil, err
					}
					xmlquery.AddChild(rPr, i)
				}
				xmlquery.AddChild(root, rPr)
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			var props PropBag
			bold, err := ctx.Engine.QueryFirst(n, "w:rPr/w:b")
			if err != nil {
				return nil, nil, err
			}
			italic, err := ctx.Engine.QueryFirst(n, "w:rPr/w:i")
			if err != nil {
				return nil, nil, err
			}
			if bold != nil || italic != nil {
				props = PropBag{}
				if bold != nil {
					props["bold"] = true
				}
				if italic != nil {
					props["italic"] = true
				}
			}
			return props, childNodesExcept(n, "rPr"), nil
		},
	}
}

func textDef(e *Engine) NodeDef {
	return NodeDef{
		Name:         TypeText,
		MixedContent: true,
		Matches:      func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "t") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:t/>`, nil)
			if err != nil {
				return nil, err
			}
			xmlquery.AddAttr(root, "xml:space", "preserve")
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			return nil, childNodes(n), nil
		},
	}
}

func breakDef(e *Engine) NodeDef {
	return NodeDef{
		Name:    TypeBreak,
		Matches: func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "br") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:br/>`, nil)
			if err != nil {
				return nil, err
			}
			if breakType, ok := props["breakType"].(string); ok && breakType != "" {
				xmlquery.AddAttr(root, "w:type", breakType)
			}
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			var props PropBag
			if breakType := Attr(n, "type"); breakType != "" {
				props = PropBag{"breakType": breakType}
			}
			return props, nil, nil
		},
	}
}

// trackedChangeDef builds the definition shared by tracked insertions (w:ins)
// and deletions (w:del). Both carry the id/author/date change metadata.
func trackedChangeDef(e *Engine, typeName, tag string) NodeDef {
	return NodeDef{
		Name:     typeName,
		Children: []string{TypeRun},
		Matches:  func(n *xmlquery.Node) bool { return e.IsElement(n, "w", tag) },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			change, ok := props["change"].(ChangeInfo)
			if !ok {
				return nil, NewDocumentError("encode", typeName, errors.New("props missing change metadata"))
			}
			root, err := ctx.Engine.Render(
				fmt.Sprintf(`<w:%s w:id="{id}" w:author="{author}" w:date="{date}"/>`, tag),
				Bindings{"id": change.ID, "author": change.Author, "date": change.DateString()},
			)
			if err != nil {
				return nil, err
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			change, err := ExtractChangeInfo(n)
			if err != nil {
				return nil, nil, err
			}
			return PropBag{"change": change}, childNodes(n), nil
		},
	}
}

func sectionPropsDef(e *Engine) NodeDef {
	return NodeDef{
		Name:    TypeSectionProps,
		Matches: func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "sectPr") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			return encodeSectionProps(ctx.Engine, props)
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			props, err := decodeSectionProps(ctx.Engine, n)
			return props, nil, err
		},
	}
}

func decodeSectionProps(e *Engine, n *xmlquery.Node) (PropBag, error) {
	pgSz, err := e.QueryFirst(n, "w:pgSz")
	if err != nil {
		return nil, err
	}
	if pgSz == nil {
		return nil, nil
	}
	return PropBag{
		"pageWidth":  Attr(pgSz, "w"),
		"pageHeight": Attr(pgSz, "h"),
	}, nil
}

func encodeSectionProps(e *Engine, props PropBag) (*xmlquery.Node, error) {
	width := propString(props["pageWidth"])
	height := propString(props["pageHeight"])
	if width == "" && height == "" {
		return e.Render(`<w:sectPr/>`, nil)
	}
	return e.Render(
		`<w:sectPr><w:pgSz w:w="{w}" w:h="{h}"/></w:sectPr>`,
		Bindings{"w": width, "h": height},
	)
}

func settingsDef(e *Engine) NodeDef {
	return NodeDef{
		Name:    TypeSettings,
		Matches: func(n *xmlquery.Node) bool { return e.IsElement(n, "w", "settings") },
		Encode: func(ctx *EncodeContext, props PropBag, children []*xmlquery.Node) (*xmlquery.Node, error) {
			root, err := ctx.Engine.Render(`<w:settings/>`, nil)
			if err != nil {
				return nil, err
			}
			if track, _ := props["trackChanges"].(bool); track {
				tc, err := ctx.Engine.Render(`<w:trackChanges/>`, nil)
				if err != nil {
					return nil, err
				}
				xmlquery.AddChild(root, tc)
			}
			if docID, ok := props["documentID"].(string); ok && docID != "" {
				id, err := ctx.Engine.Render(`<w15:docId w15:val="{id}"/>`, Bindings{"id": docID})
				if err != nil {
					return nil, err
				}
				xmlquery.AddChild(root, id)
			}
			appendChildren(root, children)
			return root, nil
		},
		Decode: func(ctx *DecodeContext, n *xmlquery.Node) (PropBag, []*xmlquery.Node, error) {
			props := PropBag{}
			// Accept the whole trackRevisions/trackChanges family.
			for _, tag := range []string{"w:trackChanges", "w:trackRevisions"} {
				toggle, err := ctx.Engine.QueryFirst(n, tag)
				if err != nil {
					return nil, nil, err
				}
				if toggle != nil && Attr(toggle, "val") != "false" {
					props["trackChanges"] = true
					break
				}
			}
			docID, err := ctx.Engine.QueryFirst(n, "w15:docId")
			if err != nil {
				return nil, nil, err
			}
			if docID != nil {
				props["documentID"] = Attr(docID, "val")
			}
			if len(props) == 0 {
				props = nil
			}
			return props, nil, nil
		},
	}
}

func appendChildren(parent *xmlquery.Node, children []*xmlquery.Node) {
	for _, c := range children {
		xmlquery.AddChild(parent, c)
	}
}

// childNodes returns the element and text children of n in document order.
func childNodes(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode, xmlquery.TextNode, xmlquery.CharDataNode:
			out = append(out, c)
		}
	}
	return out
}

// childNodesExcept returns childNodes minus elements whose local name is in
// skip. Used to hide property-group elements already consumed into props.
func childNodesExcept(n *xmlquery.Node, skip ...string) []*xmlquery.Node {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	var out []*xmlquery.Node
	for _, c := range childNodes(n) {
		if c.Type == xmlquery.ElementNode && skipSet[c.Data] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func propString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
