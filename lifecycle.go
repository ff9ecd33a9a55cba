package controllerim

import (
	"errors"
	"fmt"
)

type cleanupEntry struct {
	fn    func() error
	order int
}

// OnUnmount registers a cleanup to run when the component unmounts.
// Cleanups run in reverse registration order.
func (c *Controller) OnUnmount(fn func() error) {
	if fn == nil {
		return
	}
	c.cleanups = append(c.cleanups, cleanupEntry{
		fn:    fn,
		order: len(c.cleanups),
	})
}

// BeginIndexPass starts a new indexing pass over this controller's
// children, resetting the counter to zero. The host calls it when the
// component renders its children and ends the pass once they are visited.
func (c *Controller) BeginIndexPass() *IndexPass {
	c.childPass = &IndexPass{active: true}
	return c.childPass
}

// DidMount is called by the host after the component mounted. It takes the
// next ordinal when the parent's indexing pass is active.
func (c *Controller) DidMount() {
	c.updateIndex()
}

// DidUpdate is called by the host after the component updated.
func (c *Controller) DidUpdate() {
	c.updateIndex()
}

func (c *Controller) updateIndex() {
	if c.parent == nil || c.unmounted {
		return
	}
	if c.parent.childPass.assign(c.node) {
		idx, _ := c.node.IndexValue()
		c.scope.logger.Debug("controller indexed", "controller", c.name, "index", idx)
	}
}

// WillUnmount tears the controller down: cleanups run, the state node is
// cleared in place and the component is forgotten by the scope. Later calls
// are no-ops. Cleanup errors are joined and returned.
func (c *Controller) WillUnmount() error {
	if c.unmounted {
		return nil
	}

	op := &Operation{Kind: OpUnmount, Controller: c, Scope: c.scope}

	_, err := c.scope.run(op, func() (any, error) {
		var errs []error
		for i := len(c.cleanups) - 1; i >= 0; i-- {
			entry := c.cleanups[i]
			if err := entry.fn(); err != nil {
				errs = append(errs, fmt.Errorf("cleanup %d: %w", entry.order, err))
			}
		}
		c.cleanups = nil

		c.unmounted = true
		c.node.teardown()
		if existing, ok := c.scope.ControllerFor(c.component); ok && existing == c {
			c.scope.components.Delete(c.component)
		}

		c.scope.logger.Debug("controller unmounted", "controller", c.name, "id", c.id)
		return nil, errors.Join(errs...)
	})
	return err
}

// Unmounted reports whether WillUnmount ran.
func (c *Controller) Unmounted() bool {
	return c.unmounted
}
