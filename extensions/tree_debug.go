package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/emaren84/controllerim"
	"github.com/m1gwings/treedrawer/tree"
)

// TreeDebugExtension logs the state tree when an operation fails and, at
// debug level, whenever a controller notifies its listeners.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewTreeDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewTreeDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewTreeDebugExtension(extensions.NewSilentHandler())
type TreeDebugExtension struct {
	controllerim.BaseExtension

	classified map[*controllerim.Controller]map[string]controllerim.MethodKind
	logger     *slog.Logger
}

// NewTreeDebugExtension creates a new tree debug extension.
func NewTreeDebugExtension(logHandler slog.Handler) *TreeDebugExtension {
	return &TreeDebugExtension{
		BaseExtension: controllerim.NewBaseExtension("tree-debug"),
		classified:    make(map[*controllerim.Controller]map[string]controllerim.MethodKind),
		logger:        slog.New(logHandler),
	}
}

// OnClassify remembers method kinds so failures can list them.
func (e *TreeDebugExtension) OnClassify(ctrl *controllerim.Controller, method string, kind controllerim.MethodKind) {
	kinds, ok := e.classified[ctrl]
	if !ok {
		kinds = make(map[string]controllerim.MethodKind)
		e.classified[ctrl] = kinds
	}
	kinds[method] = kind
}

// Wrap forgets a controller's method kinds once it unmounts.
func (e *TreeDebugExtension) Wrap(ctx context.Context, next func() (any, error), op *controllerim.Operation) (any, error) {
	result, err := next()
	if op.Kind == controllerim.OpUnmount && op.Controller != nil {
		delete(e.classified, op.Controller)
	}
	return result, err
}

// OnError logs the whole tree the failing controller belongs to.
func (e *TreeDebugExtension) OnError(err error, op *controllerim.Operation, scope *controllerim.Scope) {
	attrs := []any{
		"error", err.Error(),
		"operation", string(op.Kind),
	}
	if op.Controller != nil {
		attrs = append(attrs,
			"controller", op.Controller.Name(),
			"methods", e.describeMethods(op.Controller),
			"state_tree", RenderStateTree(op.Controller.Root().StateTree()),
		)
	}
	if op.Method != "" {
		attrs = append(attrs, "method", op.Method)
	}

	e.logger.Error("State Tree Error", attrs...)
}

func (e *TreeDebugExtension) OnNotify(ctrl *controllerim.Controller, node *controllerim.StateNode) {
	if !e.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	e.logger.Debug("State Tree Changed",
		"controller", ctrl.Name(),
		"state_tree", RenderStateTree(node),
	)
}

func (e *TreeDebugExtension) describeMethods(ctrl *controllerim.Controller) string {
	kinds := e.classified[ctrl]
	if len(kinds) == 0 {
		return "(none classified)"
	}

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, kinds[name]))
	}
	return strings.Join(parts, ", ")
}

// RenderStateTree draws node and its descendants as box-drawing text.
func RenderStateTree(node *controllerim.StateNode) string {
	if node == nil {
		return "(empty)"
	}

	root := tree.NewTree(tree.NodeString(nodeLabel(node)))
	type item struct {
		node *controllerim.StateNode
		tree *tree.Tree
	}
	stack := []item{{node: node, tree: root}}
	visited := map[*controllerim.StateNode]bool{node: true}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range current.node.Children {
			if child == nil || visited[child] {
				continue
			}
			visited[child] = true
			stack = append(stack, item{
				node: child,
				tree: current.tree.AddChild(tree.NodeString(nodeLabel(child))),
			})
		}
	}

	return root.String()
}

func nodeLabel(node *controllerim.StateNode) string {
	name := node.Name
	if name == "" {
		name = "(unmounted)"
	}
	if idx, ok := node.IndexValue(); ok {
		name = fmt.Sprintf("%s #%d", name, idx)
	}
	return fmt.Sprintf("%s %s", name, formatState(node.State))
}

func formatState(state map[string]any) string {
	if len(state) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", key, state[key]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with proper line breaks, printing rendered state trees verbatim.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "State Tree Error" {
		return h.handleTreeError(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "state_tree" {
			_, writeErr = fmt.Fprintf(h.writer, "  %s:\n%s\n", a.Key, a.Value.String())
		} else {
			_, writeErr = fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value)
		}
		return writeErr == nil
	})
	return writeErr
}

func (h *HumanHandler) handleTreeError(record slog.Record) error {
	var controller, method, errorMsg, operation, methods, stateTree string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "controller":
			controller = a.Value.String()
		case "method":
			method = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "operation":
			operation = a.Value.String()
		case "methods":
			methods = a.Value.String()
		case "state_tree":
			stateTree = a.Value.String()
		}
		return true
	})

	rule := strings.Repeat("=", 70)
	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "[TreeDebug] State Tree Error"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nController: %s\n", controller); return err },
		func() error {
			if method == "" {
				return nil
			}
			_, err := fmt.Fprintf(h.writer, "Method: %s\n", method)
			return err
		},
		func() error { _, err := fmt.Fprintf(h.writer, "Error: %s\n", errorMsg); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Operation: %s\n", operation); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Methods: %s\n", methods); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nState Tree:\n%s\n", stateTree); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
		func() error { _, err := fmt.Fprintln(h.writer); return err },
	}

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}

	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
