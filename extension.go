package controllerim

import "context"

// Extension provides hooks into controller operations
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a scope
	Init(scope *Scope) error

	// Wrap intercepts operations (method calls, state replacement, unmount)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError is called when an operation returns an error
	OnError(err error, op *Operation, scope *Scope)

	// OnClassify is called once per method when its kind is fixed
	OnClassify(ctrl *Controller, method string, kind MethodKind)

	// OnNotify is called before a controller's listeners fire
	OnNotify(ctrl *Controller, node *StateNode)

	// Dispose is called when the scope is disposed
	Dispose(scope *Scope) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(scope *Scope) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, scope *Scope) {
}

func (e *BaseExtension) OnClassify(ctrl *Controller, method string, kind MethodKind) {
}

func (e *BaseExtension) OnNotify(ctrl *Controller, node *StateNode) {
}

func (e *BaseExtension) Dispose(scope *Scope) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind       OperationKind
	Controller *Controller
	// Method is set for OpInvoke
	Method string
	Scope  *Scope
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpInvoke indicates a call to a defined method
	OpInvoke OperationKind = "invoke"
	// OpSetState indicates a state assignment
	OpSetState OperationKind = "set-state"
	// OpClearState indicates a reset to the initial state
	OpClearState OperationKind = "clear-state"
	// OpSetStateTree indicates a merge into the state tree
	OpSetStateTree OperationKind = "set-state-tree"
	// OpMockState indicates a test-mode state override
	OpMockState OperationKind = "mock-state"
	// OpUnmount indicates the owning component unmounted
	OpUnmount OperationKind = "unmount"
)
