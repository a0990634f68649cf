package syntax

import "iter"

// Containing yields, in depth-first order, every exposed node whose span
// contains loc. A node that does not contain loc cuts off its subtree;
// unexposed nodes are not yielded but their children are still visited.
func Containing(t *Tree, loc Location) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		root := t.Root()
		if root == nil {
			return
		}
		visitContaining(t, root, loc, yield)
	}
}

func visitContaining(t *Tree, n *Node, loc Location, yield func(*Node) bool) bool {
	if !n.Span.Contains(loc) {
		return true
	}
	if !n.Kind.Unexposed() && !yield(n) {
		return false
	}
	for _, id := range n.Children {
		if !visitContaining(t, t.Node(id), loc, yield) {
			return false
		}
	}
	return true
}

// FindInnermost returns the containing node with the smallest extent. The
// first minimal node in traversal order wins. It returns nil when no exposed
// node contains loc.
func FindInnermost(t *Tree, loc Location) *Node {
	var best *Node
	for n := range Containing(t, loc) {
		if best == nil || n.Span.Extent() < best.Span.Extent() {
			best = n
		}
	}
	return best
}

// Definitions yields every definition node in the tree, unexposed subtrees
// included.
func Definitions(t *Tree) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range t.Walk() {
			if n.IsDefinition && !yield(n) {
				return
			}
		}
	}
}

// DefinitionTable maps symbol keys to the first definition carrying them.
// Nodes without a key are left out.
func DefinitionTable(t *Tree) map[string]*Node {
	defs := make(map[string]*Node)
	for n := range Definitions(t) {
		if n.SymbolKey == "" {
			continue
		}
		if _, ok := defs[n.SymbolKey]; !ok {
			defs[n.SymbolKey] = n
		}
	}
	return defs
}
