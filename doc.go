// Package controllerim attaches managed, hierarchical state to tree-structured
// UI components and propagates change notifications through that hierarchy.
//
// # Overview
//
// Controllerim organizes code around three concepts:
//
//  1. Controllers: one per component, owning one node of the state tree
//  2. Scopes: create controllers and hold what they share (options,
//     extensions, change detection, transactions)
//  3. Methods: controller behavior registered with Define, classified as
//     readers or mutators from how they behave on first use
//
// # Basic Usage
//
// The host UI framework creates a controller for each component, passing the
// parent controller when there is one:
//
//	scope := controllerim.NewScope()
//
//	app, err := scope.NewController(nil, appComponent, controllerim.WithName("App"))
//	if err != nil {
//	    return err
//	}
//	_ = app.SetState(map[string]any{"count": 0})
//
//	list, err := scope.NewController(app, listComponent, controllerim.WithName("List"))
//
// # Methods
//
// Methods are registered explicitly:
//
//	increment := app.Define("increment", func(args ...any) (any, error) {
//	    n, _ := app.Get("count")
//	    return nil, app.Set("count", n.(int)+1)
//	})
//
//	getCount := app.Define("getCount", func(args ...any) (any, error) {
//	    n, _ := app.Get("count")
//	    return n, nil
//	})
//
// The first call decides how a method is treated for the rest of the
// controller's life:
//
//   - it returns a value other than a nil interface or nil pointer: GETTER.
//     Nil maps and slices count as values. Later calls without arguments
//     return the value cached by the first computation; calls with arguments
//     recompute.
//   - it returns nil and the state changed during the call: SETTER. Every
//     later call notifies listeners, changed or not.
//   - otherwise it stays unclassified and is tried again next time.
//
// Every call runs inside one transaction, so listeners see the whole call
// as a single change.
//
// # Change Detection
//
// By default a controller serializes its state after each unclassified call
// and compares it with the previous serialization:
//
//	scope := controllerim.NewScope(
//	    controllerim.WithChangeDetection(controllerim.DetectSnapshot),
//	)
//
// DetectFineGrained skips serialization and only observes mutations made
// through Set, Delete, SetState and MockState.
//
// # Listeners
//
//	unsubscribe := app.AddOnStateTreeChangeListener(func(node *controllerim.StateNode) {
//	    fmt.Println(node.Name, node.State)
//	})
//	defer unsubscribe()
//
// A listener is copied to the descendants that exist when it is registered.
// It receives the node of whichever controller changed. Controllers attached
// afterwards are not covered.
//
// # Lifecycle
//
// The host drives the lifecycle hooks:
//
//	pass := app.BeginIndexPass()
//	list.DidMount() // list's node gets Index 0
//	pass.End()
//
//	list.OnUnmount(func() error { return nil })
//	_ = list.WillUnmount()
//
// # Testing
//
// Test mode enables MockState and stand-in parents:
//
//	scope := controllerim.NewScope(
//	    controllerim.WithTestMode(),
//	    controllerim.WithMockedParent("App", fakeApp),
//	)
//
// # Thread Safety
//
// Controllers are single-threaded. Drive a scope and its controllers from
// the goroutine that runs the host's UI.
package controllerim
