package curriculum

import "log/slog"

// Tree is an indexed curriculum hierarchy. The engine only reads trees; they
// are maintained by the external admin tool.
type Tree struct {
	roots    []string
	byID     map[string]*Node
	children map[string][]string
}

// NewTree indexes the given nodes. Input order is preserved for roots and
// sibling groups. A node referencing an unknown parent is kept as a root and
// warned about rather than dropped.
func NewTree(nodes []Node) *Tree {
	t := &Tree{
		byID:     make(map[string]*Node, len(nodes)),
		children: make(map[string][]string),
	}
	for i := range nodes {
		n := &nodes[i]
		t.byID[n.ID] = n
	}
	for i := range nodes {
		n := &nodes[i]
		if n.ParentID == "" {
			t.roots = append(t.roots, n.ID)
			continue
		}
		if _, ok := t.byID[n.ParentID]; !ok {
			slog.Warn("curriculum node references unknown parent, keeping as root",
				"node_id", n.ID,
				"parent_id", n.ParentID,
			)
			t.roots = append(t.roots, n.ID)
			continue
		}
		t.children[n.ParentID] = append(t.children[n.ParentID], n.ID)
	}
	return t
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Roots returns the top-level discipline node ids in input order.
func (t *Tree) Roots() []string {
	return t.roots
}

// Children returns the child node ids of the given node in input order.
func (t *Tree) Children(id string) []string {
	return t.children[id]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.byID)
}

// Walk visits every node depth-first, parents before children, carrying the
// node's depth (0 for disciplines).
func (t *Tree) Walk(visit func(n *Node, depth int)) {
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := t.byID[id]
		if !ok {
			return
		}
		visit(n, depth)
		for _, child := range t.children[id] {
			walk(child, depth+1)
		}
	}
	for _, root := range t.roots {
		walk(root, 0)
	}
}
