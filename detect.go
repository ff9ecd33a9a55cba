package controllerim

import (
	"fmt"

	"github.com/emaren84/controllerim/pkg/plain"
)

// ChangeDetection selects how a controller finds out that a method call
// changed its state.
type ChangeDetection string

const (
	// DetectSnapshot serializes the state after every unclassified call and
	// compares it with the previous serialization.
	DetectSnapshot ChangeDetection = "snapshot"
	// DetectFineGrained relies on mutations made through Set, Delete,
	// SetState and MockState. Direct writes to the map returned by State
	// are not observed in this mode.
	DetectFineGrained ChangeDetection = "fine-grained"
)

func (d ChangeDetection) valid() bool {
	return d == DetectSnapshot || d == DetectFineGrained
}

type changeDetector interface {
	// begin records what detect compares against to tell whether the call
	// itself changed state.
	begin(c *Controller, frame *callFrame)
	// detect reports whether listeners must be notified, moving the
	// baseline forward when they must, and whether the call described by
	// frame changed state itself.
	detect(c *Controller, frame *callFrame) (notify, mutated bool)
	// rebase records the current state as the new baseline.
	rebase(c *Controller)
}

func newChangeDetector(mode ChangeDetection) changeDetector {
	switch mode {
	case DetectSnapshot:
		return snapshotDetector{}
	case DetectFineGrained:
		return fineGrainedDetector{}
	}
	panic(fmt.Sprintf("unknown change detection %q", mode))
}

// snapshotDetector notifies for any difference from the last baseline,
// including writes made outside methods, but attributes a change to the
// call only when state differs from what it was when the call began.
type snapshotDetector struct{}

func (snapshotDetector) begin(c *Controller, frame *callFrame) {
	frame.before = plain.Snapshot(c.node.State)
}

func (snapshotDetector) detect(c *Controller, frame *callFrame) (bool, bool) {
	current := plain.Snapshot(c.node.State)
	mutated := frame != nil && current != frame.before

	if current == c.internal.previousStateSnapshot {
		return false, mutated
	}
	c.internal.previousStateSnapshot = current
	return true, mutated
}

func (snapshotDetector) rebase(c *Controller) {
	c.internal.previousStateSnapshot = plain.Snapshot(c.node.State)
}

type fineGrainedDetector struct{}

func (fineGrainedDetector) begin(*Controller, *callFrame) {}

func (fineGrainedDetector) detect(_ *Controller, frame *callFrame) (bool, bool) {
	mutated := frame != nil && frame.mutated
	return mutated, mutated
}

func (fineGrainedDetector) rebase(*Controller) {}
