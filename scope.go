package controllerim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/emaren84/controllerim/pkg/plain"
)

// Scope creates controllers and holds everything they share: configuration,
// extensions, the identifier service, the change detection strategy and the
// transaction coordinator.
//
// Controller trees are single-threaded. Drive a scope and its controllers
// from one goroutine, the host's UI thread.
type Scope struct {
	mu         sync.RWMutex
	extensions []Extension
	mocked     map[string]*Controller
	testCtrls  []*Controller
	components cache[Component, *Controller]

	ids       IDGenerator
	detection ChangeDetection
	detector  changeDetector
	testMode  bool
	logger    *slog.Logger
	tx        transaction
}

// ScopeOption is a modifier for scopes
type ScopeOption func(*Scope)

// WithChangeDetection selects the change detection strategy. Unknown values
// panic.
func WithChangeDetection(mode ChangeDetection) ScopeOption {
	return func(s *Scope) {
		if !mode.valid() {
			panic(fmt.Sprintf("unknown change detection %q", mode))
		}
		s.detection = mode
	}
}

// WithIDGenerator replaces the UUID identifier service
func WithIDGenerator(ids IDGenerator) ScopeOption {
	return func(s *Scope) {
		s.ids = ids
	}
}

// WithTestMode enables MockState and mocked parents
func WithTestMode() ScopeOption {
	return func(s *Scope) {
		s.testMode = true
	}
}

// WithMockedParent registers a stand-in returned by parent lookups for name
// when no real ancestor matches. Only consulted in test mode.
func WithMockedParent(name string, parent *Controller) ScopeOption {
	return func(s *Scope) {
		s.mocked[name] = parent
	}
}

// WithExtension returns an option that registers an extension to a scope
func WithExtension(ext Extension) ScopeOption {
	return func(s *Scope) {
		if err := s.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithLogger sets the logger used for lifecycle debug records
func WithLogger(logger *slog.Logger) ScopeOption {
	return func(s *Scope) {
		s.logger = logger
	}
}

// NewScope creates a new scope with optional configuration
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{
		extensions: []Extension{},
		mocked:     make(map[string]*Controller),
		ids:        UUIDGenerator{},
		detection:  DetectSnapshot,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.detector = newChangeDetector(s.detection)

	return s
}

// NewController attaches a controller to component. When parent is not nil
// the controller's state node and listener node are appended to the
// parent's trees.
func (s *Scope) NewController(parent *Controller, component Component, opts ...ControllerOption) (*Controller, error) {
	if plain.IsEmpty(component) {
		return nil, newControllerError("", "NewController", ErrMissingComponentInstance)
	}

	c := &Controller{
		id:        s.ids.NextID(),
		name:      anonymousName(component),
		scope:     s,
		component: component,
		parent:    parent,
		listeners: newListenerNode(),
		classes:   newClassifier(),
		methods:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.node = newStateNode(c.name)

	if parent != nil {
		c.ancestors = make([]*Controller, 0, len(parent.ancestors)+1)
		c.ancestors = append(c.ancestors, parent.ancestors...)
		c.ancestors = append(c.ancestors, parent)
		parent.node.attach(c.node)
		parent.listeners.attach(c.listeners)
	}

	if reflect.TypeOf(component).Comparable() {
		s.components.Store(component, c)
	}

	if s.testMode {
		s.mu.Lock()
		s.testCtrls = append(s.testCtrls, c)
		s.mu.Unlock()
	}

	s.logger.Debug("controller attached",
		"controller", c.name,
		"id", c.id,
		"parent", parentName(parent),
	)

	return c, nil
}

func parentName(parent *Controller) string {
	if parent == nil {
		return ""
	}
	return parent.name
}

// ControllerFor returns the controller attached to component.
func (s *Scope) ControllerFor(component Component) (*Controller, bool) {
	if plain.IsEmpty(component) || !reflect.TypeOf(component).Comparable() {
		return nil, false
	}
	return s.components.Load(component)
}

// ParentController finds the ancestor controller called name for code that
// only holds a component. Components without a controller of their own are
// resolved through ChildComponent to the nearest ancestor that has one.
// Unlike Controller.ParentController the result is not memoized.
func (s *Scope) ParentController(component Component, name string) (*Controller, error) {
	if plain.IsEmpty(component) {
		return nil, newControllerError("", "ParentController", ErrMissingComponentInstance)
	}

	if c, ok := s.ControllerFor(component); ok {
		return s.lookupParent(c.name, c.ancestors, name)
	}

	from := anonymousName(component)
	var current Component = component
	for {
		child, ok := current.(ChildComponent)
		if !ok {
			break
		}
		current = child.ParentComponent()
		if plain.IsEmpty(current) {
			break
		}
		if c, ok := s.ControllerFor(current); ok {
			ancestors := append(append([]*Controller{}, c.ancestors...), c)
			return s.lookupParent(from, ancestors, name)
		}
	}

	return s.lookupParent(from, nil, name)
}

// lookupParent searches ancestors root first, so the outermost controller
// with a matching name wins.
func (s *Scope) lookupParent(from string, ancestors []*Controller, name string) (*Controller, error) {
	for _, ancestor := range ancestors {
		if ancestor.name == name {
			return ancestor, nil
		}
	}

	if s.testMode {
		s.mu.RLock()
		mocked, ok := s.mocked[name]
		s.mu.RUnlock()
		if ok {
			return mocked, nil
		}
	}

	return nil, newControllerError(from, "ParentController",
		fmt.Errorf("%w: %s is not a parent of %s", ErrParentNotFound, name, from))
}

// TestMode reports whether the scope was created with WithTestMode
func (s *Scope) TestMode() bool {
	return s.testMode
}

// TestControllers returns the controllers created while in test mode, in
// creation order.
func (s *Scope) TestControllers() []*Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Controller, len(s.testCtrls))
	copy(result, s.testCtrls)
	return result
}

// ChangeDetection returns the strategy in use
func (s *Scope) ChangeDetection() ChangeDetection {
	return s.detection
}

// UseExtension registers an extension to the scope
func (s *Scope) UseExtension(ext Extension) error {
	s.mu.Lock()
	s.extensions = append(s.extensions, ext)
	sort.SliceStable(s.extensions, func(i, j int) bool {
		return s.extensions[i].Order() < s.extensions[j].Order()
	})
	s.mu.Unlock()

	return ext.Init(s)
}

func (s *Scope) snapshotExtensions() []Extension {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	return exts
}

// run chains the extensions around fn (middleware pattern) and reports
// errors to them.
func (s *Scope) run(op *Operation, fn func() (any, error)) (any, error) {
	exts := s.snapshotExtensions()

	next := fn
	// Apply extensions in reverse order (last registered wraps first)
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(context.Background(), currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		for _, ext := range exts {
			ext.OnError(err, op, s)
		}
	}

	return result, err
}

func (s *Scope) classified(c *Controller, method string, kind MethodKind) {
	for _, ext := range s.snapshotExtensions() {
		ext.OnClassify(c, method, kind)
	}
}

func (s *Scope) notified(c *Controller) {
	for _, ext := range s.snapshotExtensions() {
		ext.OnNotify(c, c.node)
	}
}

// Dispose disposes every extension. Errors are joined.
func (s *Scope) Dispose() error {
	var errs []error
	for _, ext := range s.snapshotExtensions() {
		if err := ext.Dispose(s); err != nil {
			errs = append(errs, fmt.Errorf("disposing extension %s: %w", ext.Name(), err))
		}
	}
	return errors.Join(errs...)
}
