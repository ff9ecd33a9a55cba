package controllerim

import "sync"

// Listener receives the state node that changed.
type Listener func(node *StateNode)

type listenerEntry struct {
	fn Listener
}

// ListenerNode shadows a controller's StateNode with the callbacks to fire
// when that node changes. Listener nodes form their own tree so listener
// wiring never touches state.
type ListenerNode struct {
	listeners []*listenerEntry
	children  []*ListenerNode
}

func newListenerNode() *ListenerNode {
	return &ListenerNode{}
}

// Len returns the number of listeners registered on the node, including
// ones propagated from ancestors.
func (n *ListenerNode) Len() int {
	return len(n.listeners)
}

// Children returns a copy of the node's children.
func (n *ListenerNode) Children() []*ListenerNode {
	result := make([]*ListenerNode, len(n.children))
	copy(result, n.children)
	return result
}

func (n *ListenerNode) attach(child *ListenerNode) {
	n.children = appendUnique(n.children, child)
}

// subscribe registers fn on n and on every descendant present right now.
// Descendants attached later do not receive fn. The returned func removes
// every copy and is safe to call more than once.
func (n *ListenerNode) subscribe(fn Listener) func() {
	entry := &listenerEntry{fn: fn}
	reached := append([]*ListenerNode{n}, n.descendants()...)

	for _, node := range reached {
		node.listeners = append(node.listeners, entry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, node := range reached {
				node.listeners = removeElement(node.listeners, entry)
			}
		})
	}
}

// descendants walks the subtree iteratively, excluding n itself.
func (n *ListenerNode) descendants() []*ListenerNode {
	stack := make([]*ListenerNode, 0, 16)
	stack = append(stack, n.children...)

	result := make([]*ListenerNode, 0, 16)
	visited := map[*ListenerNode]bool{n: true}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)

		for _, child := range current.children {
			if !visited[child] {
				stack = append(stack, child)
			}
		}
	}

	return result
}

// fire calls every listener with node. The list is copied first so a
// listener may unsubscribe while being called.
func (n *ListenerNode) fire(node *StateNode) {
	entries := make([]*listenerEntry, len(n.listeners))
	copy(entries, n.listeners)

	for _, entry := range entries {
		entry.fn(node)
	}
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
