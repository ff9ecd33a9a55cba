package controllerim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	name    string
	updates int
}

func newComponent(name string) *fakeComponent {
	return &fakeComponent{name: name}
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) ForceUpdate() { f.updates++ }

// nestedComponent has no controller of its own and reports its parent.
type nestedComponent struct {
	fakeComponent
	parent Component
}

func (n *nestedComponent) ParentComponent() Component { return n.parent }

func newTestScope(opts ...ScopeOption) *Scope {
	return NewScope(append([]ScopeOption{WithIDGenerator(NewSequenceGenerator("ctrl-"))}, opts...)...)
}

func mustController(t *testing.T, s *Scope, parent *Controller, name string) *Controller {
	t.Helper()
	c, err := s.NewController(parent, newComponent(name), WithName(name))
	require.NoError(t, err)
	return c
}

// recorder collects listener invocations.
type recorder struct {
	nodes []*StateNode
}

func (r *recorder) listen(node *StateNode) {
	r.nodes = append(r.nodes, node)
}

func (r *recorder) count() int {
	return len(r.nodes)
}

// recordingExtension records every hook call.
type recordingExtension struct {
	BaseExtension
	order      int
	events     *[]string
	ops        []OperationKind
	errs       []error
	classified map[string]MethodKind
	notified   []string
}

func newRecordingExtension(name string, order int, events *[]string) *recordingExtension {
	return &recordingExtension{
		BaseExtension: NewBaseExtension(name),
		order:         order,
		events:        events,
		classified:    make(map[string]MethodKind),
	}
}

func (e *recordingExtension) Order() int { return e.order }

func (e *recordingExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	e.ops = append(e.ops, op.Kind)
	if e.events != nil {
		*e.events = append(*e.events, e.Name()+":before")
	}
	result, err := next()
	if e.events != nil {
		*e.events = append(*e.events, e.Name()+":after")
	}
	return result, err
}

func (e *recordingExtension) OnError(err error, op *Operation, scope *Scope) {
	e.errs = append(e.errs, err)
}

func (e *recordingExtension) OnClassify(ctrl *Controller, method string, kind MethodKind) {
	e.classified[method] = kind
}

func (e *recordingExtension) OnNotify(ctrl *Controller, node *StateNode) {
	e.notified = append(e.notified, ctrl.Name())
}
