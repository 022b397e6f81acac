package docmodel

// Structural validator: rewrites a tree so every node's children satisfy its
// type's accepted-children contract before serialization.
//
// The repair is a pure transform over a clone of the input; callers holding
// references into the original tree never observe splicing. Repair is
// content-preserving (the leaf text sequence is unchanged) but not
// structure-preserving: an illegally nested child is hoisted out of its
// parent, splitting the parent around it.

// Repair legalizes a tree against the registry's parent/child contract. It
// iterates the split pass to a fixed point, bounded by MaxRepairPasses, and
// fails with StructuralRepairError if more than one top-level node remains or
// the passes do not converge.
func Repair(reg *Registry, root *Node) (*Node, error) {
	maxPasses := GetGlobalConfig().MaxRepairPasses
	current := root.deepClone()

	for pass := 0; pass < maxPasses; pass++ {
		out, err := repairNode(reg, current)
		if err != nil {
			return nil, err
		}
		if len(out) != 1 {
			return nil, &StructuralRepairError{RootType: root.Type, Roots: len(out)}
		}
		single, ok := out[0].(*Node)
		if !ok {
			return nil, &StructuralRepairError{RootType: root.Type, Message: "repair hoisted raw text to the top level"}
		}
		legal, err := treeLegal(reg, single)
		if err != nil {
			return nil, err
		}
		if legal {
			if pass > 0 {
				GetLogger().WithField("type", root.Type).Debug("structural repair converged after %d passes", pass+1)
			}
			return single, nil
		}
		current = single
	}

	return nil, &StructuralRepairError{RootType: root.Type, Message: "did not converge within configured repair passes"}
}

// repairNode repairs a subtree depth-first, post-order, and returns the
// sibling sequence that replaces it. A node whose children are all accepted
// comes back as a single sibling; each illegally placed child splits the node
// at that position: the truncated node, then the hoisted child, then a
// shallow clone of the node carrying the trailing children (itself repaired).
func repairNode(reg *Registry, n *Node) ([]Child, error) {
	def, err := reg.Lookup(n.Type)
	if err != nil {
		return nil, err
	}

	// Repair children first; each child may expand into several siblings.
	var kids []Child
	for _, c := range n.Children {
		switch v := c.(type) {
		case Text:
			kids = append(kids, v)
		case *Node:
			repaired, err := repairNode(reg, v)
			if err != nil {
				return nil, err
			}
			kids = append(kids, repaired...)
		}
	}

	current := n.shallowClone()
	for i, c := range kids {
		if childAccepted(def, c) {
			current.Children = append(current.Children, c)
			continue
		}

		// Split: truncated node, hoisted child, then the rest under a clone.
		out := []Child{current, c}
		rest := kids[i+1:]
		if len(rest) > 0 {
			tail := n.shallowClone()
			tail.Children = append(tail.Children, rest...)
			tailRepaired, err := repairNode(reg, tail)
			if err != nil {
				return nil, err
			}
			out = append(out, tailRepaired...)
		}
		return out, nil
	}

	return []Child{current}, nil
}

func childAccepted(def NodeDef, c Child) bool {
	switch v := c.(type) {
	case Text:
		return def.MixedContent
	case *Node:
		return def.acceptsChildType(v.Type)
	}
	return false
}

// treeLegal reports whether every node's children already satisfy the
// accepted-children contract.
func treeLegal(reg *Registry, n *Node) (bool, error) {
	def, err := reg.Lookup(n.Type)
	if err != nil {
		return false, err
	}
	for _, c := range n.Children {
		if !childAccepted(def, c) {
			return false, nil
		}
		if child, ok := c.(*Node); ok {
			legal, err := treeLegal(reg, child)
			if err != nil || !legal {
				return legal, err
			}
		}
	}
	return true, nil
}
