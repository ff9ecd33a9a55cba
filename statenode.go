package controllerim

import "github.com/emaren84/controllerim/pkg/plain"

// StateNode is one controller's slot in the state tree.
// Children are kept in attachment order.
type StateNode struct {
	// Index is the ordinal assigned by the last indexing pass, nil until then.
	Index    *int
	Name     string
	State    map[string]any
	Children []*StateNode
}

func newStateNode(name string) *StateNode {
	return &StateNode{
		Name:  name,
		State: map[string]any{},
	}
}

// IndexValue returns the node's ordinal and whether one was assigned.
func (n *StateNode) IndexValue() (int, bool) {
	if n.Index == nil {
		return 0, false
	}
	return *n.Index, true
}

func (n *StateNode) attach(child *StateNode) {
	n.Children = appendUnique(n.Children, child)
}

// Walk visits the subtree depth-first in child order. Returning false from
// visit skips the node's children.
func (n *StateNode) Walk(visit func(node *StateNode, depth int) bool) {
	type item struct {
		node  *StateNode
		depth int
	}

	stack := make([]item, 0, 16)
	stack = append(stack, item{node: n})
	visited := make(map[*StateNode]bool)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.node == nil || visited[current.node] {
			continue
		}
		visited[current.node] = true

		if !visit(current.node, current.depth) {
			continue
		}

		// push in reverse so the first child is visited first
		for i := len(current.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{node: current.node.Children[i], depth: current.depth + 1})
		}
	}
}

// Find returns the first node in the subtree with the given name.
func (n *StateNode) Find(name string) *StateNode {
	var found *StateNode
	n.Walk(func(node *StateNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of the subtree.
func (n *StateNode) Clone() *StateNode {
	if n == nil {
		return nil
	}

	out := &StateNode{Name: n.Name}
	if n.Index != nil {
		idx := *n.Index
		out.Index = &idx
	}
	if n.State != nil {
		out.State = plain.CloneMap(n.State)
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// merge applies patch onto n. Zero fields of the patch are treated as
// absent and children merge by position; patch children past the end of
// n.Children are ignored because children only grow through attachment.
func (n *StateNode) merge(patch *StateNode) {
	if patch == nil {
		return
	}
	if patch.Index != nil {
		idx := *patch.Index
		n.Index = &idx
	}
	if patch.Name != "" {
		n.Name = patch.Name
	}
	if patch.State != nil {
		if n.State == nil {
			n.State = map[string]any{}
		}
		plain.Merge(n.State, patch.State)
	}
	for i, child := range patch.Children {
		if i >= len(n.Children) {
			break
		}
		if child != nil && n.Children[i] != nil {
			n.Children[i].merge(child)
		}
	}
}

// teardown clears every field. The node itself stays in its parent's
// children list.
func (n *StateNode) teardown() {
	n.Index = nil
	n.Name = ""
	n.State = nil
	n.Children = nil
}
