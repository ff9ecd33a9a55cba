package controllerim

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrMissingComponentInstance is returned when a controller is created
	// without a component to attach to.
	ErrMissingComponentInstance = errors.New("component instance is missing")
	// ErrInvalidStateShape is returned when state is not a plain mapping.
	ErrInvalidStateShape = errors.New("state must be a plain mapping")
	// ErrParentNotFound is returned when no ancestor has the requested name.
	ErrParentNotFound = errors.New("parent controller not found")
	// ErrNotInTestMode is returned by test-only operations outside test mode.
	ErrNotInTestMode = errors.New("not in test mode")
)

type ControllerError struct {
	Controller string
	Op         string
	Cause      error
	StackTrace []byte
}

func (e *ControllerError) Error() string {
	if e.Controller != "" {
		return fmt.Sprintf("controller %s: %s: %v", e.Controller, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *ControllerError) Unwrap() error {
	return e.Cause
}

func newControllerError(controller, op string, cause error) *ControllerError {
	return &ControllerError{
		Controller: controller,
		Op:         op,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}
