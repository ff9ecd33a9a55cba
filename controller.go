package controllerim

import (
	"fmt"

	"github.com/emaren84/controllerim/pkg/plain"
	"github.com/emaren84/controllerim/pkg/schema"
)

// Controller owns one node of the state tree and is attached to one
// component. It is not safe for concurrent use.
type Controller struct {
	id        string
	name      string
	scope     *Scope
	component Component
	parent    *Controller
	// ancestors is root first, nearest ancestor last
	ancestors []*Controller

	node      *StateNode
	listeners *ListenerNode
	internal  internalState
	schema    schema.Schema

	classes *classifier
	methods map[string]struct{}
	frames  []*callFrame
	parents cache[string, *Controller]

	childPass *IndexPass
	cleanups  []cleanupEntry
	unmounted bool
}

type internalState struct {
	methodUsingState      string
	previousStateSnapshot string
	initialStateSnapshot  map[string]any
	seeded                bool
}

// ControllerOption is a modifier for controllers
type ControllerOption func(*Controller)

// WithName names the controller. Descendants look it up by this name.
func WithName(name string) ControllerOption {
	return func(c *Controller) {
		if name != "" {
			c.name = name
		}
	}
}

// WithStateSchema validates every SetState against s on top of the plain
// mapping check.
func WithStateSchema(s schema.Schema) ControllerOption {
	return func(c *Controller) {
		c.schema = s
	}
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) Component() Component {
	return c.component
}

// Parent returns the controller this one was attached under, or nil.
func (c *Controller) Parent() *Controller {
	return c.parent
}

func (c *Controller) Scope() *Scope {
	return c.scope
}

// Root returns the outermost ancestor, or c itself.
func (c *Controller) Root() *Controller {
	if len(c.ancestors) == 0 {
		return c
	}
	return c.ancestors[0]
}

// State returns the live state mapping. Writes made directly to it are seen
// by snapshot change detection only.
func (c *Controller) State() map[string]any {
	return c.node.State
}

// SetState replaces the state. The first call also fixes the initial state
// that ClearState restores.
func (c *Controller) SetState(value any) error {
	op := &Operation{Kind: OpSetState, Controller: c, Scope: c.scope}

	_, err := c.scope.run(op, func() (any, error) {
		m, err := c.validateState(value)
		if err != nil {
			return nil, err
		}

		c.node.State = m
		if !c.internal.seeded {
			c.internal.seeded = true
			c.internal.initialStateSnapshot = plain.CloneMap(m)
			c.internal.previousStateSnapshot = plain.Snapshot(c.internal.initialStateSnapshot)
			return nil, nil
		}

		c.observe()
		return nil, nil
	})
	return err
}

func (c *Controller) validateState(value any) (map[string]any, error) {
	validated, err := schema.Plain().Validate(value)
	if err == nil && c.schema != nil {
		_, err = c.schema.Validate(validated)
	}
	if err != nil {
		return nil, newControllerError(c.name, "SetState", fmt.Errorf("%w: %w", ErrInvalidStateShape, err))
	}
	return validated.(map[string]any), nil
}

// InitialState returns a copy of the state captured by the first SetState.
func (c *Controller) InitialState() map[string]any {
	if !c.internal.seeded {
		return nil
	}
	return plain.CloneMap(c.internal.initialStateSnapshot)
}

// Get reads one state key.
func (c *Controller) Get(key string) (any, bool) {
	v, ok := c.node.State[key]
	return v, ok
}

// Set writes one state key and records the mutation.
func (c *Controller) Set(key string, value any) error {
	if verr := schema.ValidateValue(value); verr != nil {
		return newControllerError(c.name, "Set", fmt.Errorf("%w: %w", ErrInvalidStateShape, verr))
	}
	if c.node.State == nil {
		c.node.State = map[string]any{}
	}
	c.node.State[key] = value
	c.observe()
	return nil
}

// Delete removes one state key and records the mutation.
func (c *Controller) Delete(key string) {
	if _, ok := c.node.State[key]; !ok {
		return
	}
	delete(c.node.State, key)
	c.observe()
}

// ClearState restores the initial state in one transaction and asks the
// component to refresh. Listeners are not notified.
func (c *Controller) ClearState() {
	op := &Operation{Kind: OpClearState, Controller: c, Scope: c.scope}

	_, _ = c.scope.run(op, func() (any, error) {
		value := plain.CloneMap(c.internal.initialStateSnapshot)

		c.scope.Transaction(func() {
			if c.node.State == nil {
				c.node.State = map[string]any{}
			}
			state := c.node.State
			for key := range state {
				delete(state, key)
			}
			for key, v := range value {
				state[key] = v
			}
		})

		c.classes.forget()
		c.scope.detector.rebase(c)
		return nil, nil
	})

	c.component.ForceUpdate()
}

// StateTree returns the controller's live state node.
func (c *Controller) StateTree() *StateNode {
	return c.node
}

// SetStateTree deep-merges patch into the controller's state node in one
// transaction and asks the component to refresh. Zero fields of patch are
// left alone.
func (c *Controller) SetStateTree(patch *StateNode) error {
	op := &Operation{Kind: OpSetStateTree, Controller: c, Scope: c.scope}

	_, err := c.scope.run(op, func() (any, error) {
		if err := validatePatch(patch); err != nil {
			return nil, newControllerError(c.name, "SetStateTree", fmt.Errorf("%w: %w", ErrInvalidStateShape, err))
		}

		c.scope.Transaction(func() {
			c.node.merge(patch)
		})

		c.classes.forget()
		c.scope.detector.rebase(c)
		return nil, nil
	})
	if err != nil {
		return err
	}

	c.component.ForceUpdate()
	return nil
}

func validatePatch(patch *StateNode) error {
	if patch == nil {
		return nil
	}
	if patch.State != nil {
		if _, err := schema.Plain().Validate(patch.State); err != nil {
			return err
		}
	}
	for _, child := range patch.Children {
		if err := validatePatch(child); err != nil {
			return err
		}
	}
	return nil
}

// AddOnStateTreeChangeListener registers listener on this controller and on
// every descendant attached at this moment. Controllers attached later are
// not covered. A listener fired through a descendant receives that
// descendant's node. The returned func unsubscribes every copy.
func (c *Controller) AddOnStateTreeChangeListener(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	return c.listeners.subscribe(listener)
}

// ListenerTree returns the controller's listener node.
func (c *Controller) ListenerTree() *ListenerNode {
	return c.listeners
}

// ParentController returns the ancestor called name. The first successful
// lookup per name is cached for the controller's lifetime.
func (c *Controller) ParentController(name string) (*Controller, error) {
	if parent, ok := c.parents.Load(name); ok {
		return parent, nil
	}

	parent, err := c.scope.lookupParent(c.name, c.ancestors, name)
	if err != nil {
		return nil, err
	}

	c.parents.Store(name, parent)
	return parent, nil
}

// MockState merges partial into the state. Test mode only.
func (c *Controller) MockState(partial map[string]any) error {
	if !c.scope.TestMode() {
		return newControllerError(c.name, "MockState", ErrNotInTestMode)
	}

	op := &Operation{Kind: OpMockState, Controller: c, Scope: c.scope}

	_, err := c.scope.run(op, func() (any, error) {
		if len(partial) > 0 {
			if _, err := schema.Plain().Validate(partial); err != nil {
				return nil, newControllerError(c.name, "MockState", fmt.Errorf("%w: %w", ErrInvalidStateShape, err))
			}
		}

		frame := c.enter("mockState")
		defer c.leave(frame)
		c.scope.detector.begin(c, frame)

		c.scope.Transaction(func() {
			if c.node.State == nil {
				c.node.State = map[string]any{}
			}
			for key, v := range partial {
				c.node.State[key] = v
			}
			frame.mutated = len(partial) > 0

			if notify, _ := c.scope.detector.detect(c, frame); notify {
				c.scope.queue(c)
			}
		})
		return nil, nil
	})
	return err
}

// notify fires the controller's listeners with its own node and asks the
// component to refresh.
func (c *Controller) notify() {
	if c.unmounted {
		return
	}
	c.scope.notified(c)
	c.listeners.fire(c.node)
	c.component.ForceUpdate()
}
