package controllerim

// IndexPass hands out sibling ordinals while a parent renders its children.
// Children pick up the next ordinal from DidMount or DidUpdate as long as
// the pass is active.
type IndexPass struct {
	active bool
	next   int
}

// Active reports whether the pass still assigns ordinals.
func (p *IndexPass) Active() bool {
	return p != nil && p.active
}

// Assigned returns how many ordinals the pass has handed out.
func (p *IndexPass) Assigned() int {
	if p == nil {
		return 0
	}
	return p.next
}

// End stops the pass. Later lifecycle calls leave indices untouched.
func (p *IndexPass) End() {
	if p != nil {
		p.active = false
	}
}

func (p *IndexPass) assign(node *StateNode) bool {
	if !p.Active() || node == nil {
		return false
	}
	idx := p.next
	p.next++
	node.Index = &idx
	return true
}
