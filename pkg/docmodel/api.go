// Package docmodel builds and reads ZIP-packaged multi-part XML office
// documents through an in-memory hierarchical document model.
//
// Producers assemble a tree of typed nodes (paragraphs, text runs, tracked
// insertions and deletions) against a node type registry; the package model
// serializes that tree into a compliant container and parses an existing
// container back into the same tree shape.
//
// Basic Usage:
//
//	reg := docmodel.DefaultRegistry()
//	pkg := docmodel.NewPackage(reg)
//
//	doc, _ := pkg.GetPart(docmodel.DocumentPartLocation)
//	para, err := docmodel.BuildTree(reg, docmodel.TypeParagraph, nil,
//	    &docmodel.Node{Type: docmodel.TypeRun, Children: []docmodel.Child{
//	        &docmodel.Node{Type: docmodel.TypeText, Children: []docmodel.Child{docmodel.Text("Hello")}},
//	    }},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc.Tree.Children[0].(*docmodel.Node).AppendChild(para)
//
//	output, err := pkg.Write(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.docx", output, 0o644)
//
// Reading reverses the flow:
//
//	pkg, err := docmodel.OpenPackage(ctx, input, reg)
//	part, err := docmodel.PartFromArchive(pkg, docmodel.DocumentPartLocation)
//	// part.Tree is a node tree isomorphic to one a producer could have authored.
package docmodel

import "github.com/antchfx/xmlquery"

// EncodeTree validates the tree's props, runs the structural repair pass,
// and encodes the repaired tree bottom-up into an XML node.
func EncodeTree(reg *Registry, node *Node) (*xmlquery.Node, error) {
	if err := validateTreeProps(node); err != nil {
		return nil, err
	}
	repaired, err := Repair(reg, node)
	if err != nil {
		return nil, err
	}
	return reg.Encode(repaired, nil)
}

// DecodeTree reconstructs a node tree from an XML node, dispatching the root
// element against the given accepted root type names.
func DecodeTree(reg *Registry, n *xmlquery.Node, acceptedRootTypes []string) (*Node, error) {
	return reg.DispatchDecode(acceptedRootTypes, n)
}

func validateTreeProps(node *Node) error {
	if err := ValidateProps(node.Props); err != nil {
		return err
	}
	for _, c := range node.Children {
		if child, ok := c.(*Node); ok {
			if err := validateTreeProps(child); err != nil {
				return err
			}
		}
	}
	return nil
}
