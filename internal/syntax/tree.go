package syntax

import "iter"

// Kind is the structural category of a node, usually the grammar's node type.
type Kind string

// KindUnexposed marks nodes that are structurally present but carry no
// meaning of their own: anonymous tokens and wrapper expressions.
const KindUnexposed Kind = "unexposed"

// Unexposed reports whether nodes of this kind are skipped when picking a
// containment result.
func (k Kind) Unexposed() bool {
	return k == KindUnexposed
}

// NodeID is a handle to a node inside the Tree that owns it. The zero value
// refers to no node.
type NodeID int32

// NoNode is the absent handle.
const NoNode NodeID = 0

// Node is one element of a parsed tree. Parent, Children and Referenced are
// handles into the same Tree and do not outlive it.
type Node struct {
	ID           NodeID
	Kind         Kind
	Span         Span
	Location     Location // where the node's name is spelled
	Name         string
	Parent       NodeID
	Children     []NodeID
	Referenced   NodeID
	IsDefinition bool
	SymbolKey    string
}

// Tree is the node arena of one compilation unit.
type Tree struct {
	file  string
	nodes []Node
}

// File returns the identity of the file the tree was parsed from.
func (t *Tree) File() string {
	return t.file
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the first node added to the tree, or nil for an empty tree.
func (t *Tree) Root() *Node {
	return t.Node(1)
}

// Node resolves a handle. It returns nil for NoNode and foreign handles.
func (t *Tree) Node(id NodeID) *Node {
	if id <= NoNode || int(id) > len(t.nodes) {
		return nil
	}
	return &t.nodes[id-1]
}

// Parent returns the node's parent, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	return t.Node(n.Parent)
}

// Referenced returns the node n refers to, or nil.
func (t *Tree) Referenced(n *Node) *Node {
	return t.Node(n.Referenced)
}

// Children yields n's children in order.
func (t *Tree) Children(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range n.Children {
			if !yield(t.Node(id)) {
				return
			}
		}
	}
}

// Walk yields every node reachable from the root in depth-first pre-order.
func (t *Tree) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		root := t.Root()
		if root == nil {
			return
		}
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, t.Node(n.Children[i]))
			}
		}
	}
}

// Builder assembles a Tree. Handles are assigned in insertion order, so a
// builder fed in pre-order produces pre-order IDs.
type Builder struct {
	tree *Tree
}

// NewBuilder starts an empty tree for file.
func NewBuilder(file string) *Builder {
	return &Builder{tree: &Tree{file: file}}
}

// Add appends n under parent and returns its handle. Passing NoNode as parent
// adds a root; only the first root is reachable through Tree.Root.
func (b *Builder) Add(parent NodeID, n Node) NodeID {
	n.ID = NodeID(len(b.tree.nodes) + 1)
	n.Parent = parent
	n.Children = nil
	b.tree.nodes = append(b.tree.nodes, n)
	if p := b.tree.Node(parent); p != nil {
		p.Children = append(p.Children, n.ID)
	}
	return n.ID
}

// Node returns the node for id while the tree is being built. The pointer is
// invalidated by the next Add.
func (b *Builder) Node(id NodeID) *Node {
	return b.tree.Node(id)
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int {
	return len(b.tree.nodes)
}

// Tree finishes the build. The builder must not be used afterwards.
func (b *Builder) Tree() *Tree {
	t := b.tree
	b.tree = nil
	return t
}
