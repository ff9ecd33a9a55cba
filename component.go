package controllerim

// Component is the host UI component a controller is attached to.
type Component interface {
	// Name identifies the component type. Controllers created without
	// WithName are called "AnonymousControllerFor" + Name().
	Name() string
	// ForceUpdate asks the host to refresh the component. It is called
	// after listeners fire and after ClearState and SetStateTree.
	ForceUpdate()
}

// ChildComponent is implemented by components that can report their parent
// in the composition. Scope.ParentController uses it for components that
// have no controller of their own.
type ChildComponent interface {
	Component
	ParentComponent() Component
}

const anonymousPrefix = "AnonymousControllerFor"

func anonymousName(component Component) string {
	return anonymousPrefix + component.Name()
}
