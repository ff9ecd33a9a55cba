package controllerim

import (
	"fmt"

	"github.com/emaren84/controllerim/pkg/plain"
)

// MethodKind is the role a method was inferred to play. A method starts
// Unclassified and moves to Getter or Setter at most once.
type MethodKind int

const (
	Unclassified MethodKind = iota
	Getter
	Setter
)

func (k MethodKind) String() string {
	switch k {
	case Getter:
		return "GETTER"
	case Setter:
		return "SETTER"
	default:
		return "UNCLASSIFIED"
	}
}

// MethodFunc is the body of a controller method.
type MethodFunc func(args ...any) (any, error)

// Method is a registered controller method. Calls are attributed to the
// method's name, batched in one transaction and classified on first use.
type Method func(args ...any) (any, error)

type classifier struct {
	kinds map[string]MethodKind
	memo  cache[string, any]
}

func newClassifier() *classifier {
	return &classifier{kinds: make(map[string]MethodKind)}
}

func (cl *classifier) kind(method string) MethodKind {
	return cl.kinds[method]
}

// commit fixes the classification of method. It reports false when the
// method was already classified.
func (cl *classifier) commit(method string, kind MethodKind) bool {
	if kind == Unclassified || cl.kinds[method] != Unclassified {
		return false
	}
	cl.kinds[method] = kind
	return true
}

// memoized serves a getter. Calls without arguments share one cached
// result; calls with arguments always recompute.
func (cl *classifier) memoized(method string, fn MethodFunc, args []any) (any, error) {
	if len(args) > 0 {
		return fn(args...)
	}
	if v, ok := cl.memo.Load(method); ok {
		return v, nil
	}
	v, err := fn()
	if err == nil {
		cl.memo.Store(method, v)
	}
	return v, err
}

func (cl *classifier) forget() {
	cl.memo.Clear()
}

// callFrame tracks one in-flight method call on a controller.
type callFrame struct {
	method   string
	previous string
	mutated  bool
	// before is the state snapshot taken when an unclassified call began
	before string
}

// Define registers fn under name and returns the wrapped method. Defining
// the same name twice on one controller panics.
//
// The first call that returns without error decides the method's kind: a
// result other than a nil interface or nil pointer makes it a Getter (nil
// maps and slices count as results); no result and a state change made
// during the call make it a Setter.
func (c *Controller) Define(name string, fn MethodFunc) Method {
	if name == "" || fn == nil {
		panic("controllerim: Define needs a name and a function")
	}
	if _, exists := c.methods[name]; exists {
		panic(fmt.Sprintf("controllerim: method %s already defined on %s", name, c.name))
	}
	c.methods[name] = struct{}{}

	return func(args ...any) (any, error) {
		return c.invoke(name, fn, args)
	}
}

// MethodKind returns the classification recorded for a method.
func (c *Controller) MethodKind(name string) MethodKind {
	return c.classes.kind(name)
}

// MethodUsingState returns the method the current state access is
// attributed to, or "" outside any method call.
func (c *Controller) MethodUsingState() string {
	return c.internal.methodUsingState
}

func (c *Controller) invoke(name string, fn MethodFunc, args []any) (any, error) {
	op := &Operation{Kind: OpInvoke, Controller: c, Method: name, Scope: c.scope}

	return c.scope.run(op, func() (any, error) {
		frame := c.enter(name)
		defer c.leave(frame)

		var result any
		var err error
		c.scope.Transaction(func() {
			result, err = c.dispatch(frame, fn, args)
		})
		return result, err
	})
}

func (c *Controller) dispatch(frame *callFrame, fn MethodFunc, args []any) (any, error) {
	detector := c.scope.detector

	switch c.classes.kind(frame.method) {
	case Getter:
		return c.classes.memoized(frame.method, fn, args)
	case Setter:
		result, err := fn(args...)
		detector.rebase(c)
		c.scope.queue(c)
		return result, err
	}

	detector.begin(c, frame)
	result, err := fn(args...)
	if err == nil && !plain.IsUndefined(result) {
		c.classify(frame.method, Getter)
		if len(args) == 0 {
			c.classes.memo.Store(frame.method, result)
		}
	}

	notify, mutated := detector.detect(c, frame)
	if mutated && err == nil {
		c.classify(frame.method, Setter)
	}
	if notify || mutated {
		c.scope.queue(c)
	}

	return result, err
}

func (c *Controller) classify(method string, kind MethodKind) {
	if !c.classes.commit(method, kind) {
		return
	}
	c.scope.logger.Debug("method classified",
		"controller", c.name,
		"method", method,
		"kind", kind.String(),
	)
	c.scope.classified(c, method, kind)
}

func (c *Controller) enter(method string) *callFrame {
	frame := &callFrame{method: method, previous: c.internal.methodUsingState}
	c.internal.methodUsingState = method
	c.frames = append(c.frames, frame)
	return frame
}

func (c *Controller) leave(frame *callFrame) {
	c.frames = removeElement(c.frames, frame)
	c.internal.methodUsingState = frame.previous
}

// observe records a mutation made through the controller's accessors.
func (c *Controller) observe() {
	if n := len(c.frames); n > 0 {
		c.frames[n-1].mutated = true
		return
	}
	if c.scope.detection == DetectFineGrained && c.internal.seeded {
		c.scope.queue(c)
	}
}
