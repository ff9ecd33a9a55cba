package extensions

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/emaren84/controllerim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type component struct {
	name    string
	updates int
}

func (c *component) Name() string { return c.name }

func (c *component) ForceUpdate() { c.updates++ }

// counterTree builds App > Child with a counter on App.
func counterTree(t *testing.T, scope *controllerim.Scope) (app, child *controllerim.Controller, inc controllerim.Method) {
	t.Helper()

	app, err := scope.NewController(nil, &component{name: "App"}, controllerim.WithName("App"))
	require.NoError(t, err)
	child, err = scope.NewController(app, &component{name: "Child"}, controllerim.WithName("Child"))
	require.NoError(t, err)

	require.NoError(t, app.SetState(map[string]any{"n": 0}))
	inc = app.Define("inc", func(args ...any) (any, error) {
		n, _ := app.Get("n")
		return nil, app.Set("n", n.(int)+1)
	})
	return app, child, inc
}

func TestLoggingExtension(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scope := controllerim.NewScope(controllerim.WithExtension(NewLoggingExtension(logger)))
	app, _, inc := counterTree(t, scope)

	_, err := inc()
	require.NoError(t, err)
	require.Error(t, app.SetState("not a mapping"))

	output := buf.String()
	require.Contains(t, output, "operation completed")
	require.Contains(t, output, "operation=invoke")
	require.Contains(t, output, "method=inc")
	require.Contains(t, output, "kind=SETTER")
	require.Contains(t, output, "listeners notified")
	require.Contains(t, output, "operation failed")
	require.Contains(t, output, "extension=logging")
}

func TestTreeDebugExtension_OnError(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHumanHandler(&buf, slog.LevelError)

	scope := controllerim.NewScope(controllerim.WithExtension(NewTreeDebugExtension(handler)))
	defer scope.Dispose()
	_, child, inc := counterTree(t, scope)

	_, err := inc()
	require.NoError(t, err)

	err = child.SetState(map[string]any{"handler": func() {}})
	require.ErrorIs(t, err, controllerim.ErrInvalidStateShape)

	output := buf.String()
	require.Contains(t, output, strings.Repeat("=", 70))
	require.Contains(t, output, "[TreeDebug] State Tree Error")
	require.Contains(t, output, "Controller: Child")
	require.Contains(t, output, "Operation: set-state")
	require.Contains(t, output, "Methods: (none classified)")
	require.Contains(t, output, "App {n:1}")
	require.Contains(t, output, "Child {}")
	// debug records are below the handler's level
	require.NotContains(t, output, "State Tree Changed")
}

func TestTreeDebugExtension_ListsClassifiedMethods(t *testing.T) {
	var buf bytes.Buffer
	scope := controllerim.NewScope(controllerim.WithExtension(
		NewTreeDebugExtension(NewHumanHandler(&buf, slog.LevelDebug)),
	))
	app, _, inc := counterTree(t, scope)

	_, err := inc()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "State Tree Changed")

	boom := errors.New("boom")
	fail := app.Define("fail", func(args ...any) (any, error) { return nil, boom })
	_, err = fail()
	require.ErrorIs(t, err, boom)

	require.Contains(t, buf.String(), "Methods: inc=SETTER")
	require.Contains(t, buf.String(), "Method: fail")
}

func TestTreeDebugExtension_ForgetsUnmountedControllers(t *testing.T) {
	ext := NewTreeDebugExtension(NewSilentHandler())
	scope := controllerim.NewScope(controllerim.WithExtension(ext))
	app, child, inc := counterTree(t, scope)

	_, err := inc()
	require.NoError(t, err)
	require.Contains(t, ext.classified, app)

	require.NoError(t, child.WillUnmount())
	require.Contains(t, ext.classified, app)

	require.NoError(t, app.WillUnmount())
	require.NotContains(t, ext.classified, app)
	require.Empty(t, ext.classified)
}

func TestTreeDebugExtension_Silent(t *testing.T) {
	scope := controllerim.NewScope(controllerim.WithExtension(NewTreeDebugExtension(NewSilentHandler())))
	app, _, _ := counterTree(t, scope)
	require.Error(t, app.SetState(nil))
}

func TestRenderStateTree(t *testing.T) {
	scope := controllerim.NewScope()
	app, child, _ := counterTree(t, scope)

	pass := app.BeginIndexPass()
	child.DidMount()
	pass.End()

	out := RenderStateTree(app.StateTree())
	require.Contains(t, out, "App {n:0}")
	require.Contains(t, out, "Child #0 {}")
	require.Less(t, strings.Index(out, "App"), strings.Index(out, "Child"))

	require.NoError(t, child.WillUnmount())
	require.Contains(t, RenderStateTree(app.StateTree()), "(unmounted) {}")
	require.Equal(t, "(empty)", RenderStateTree(nil))
}

func TestMetricsExtension(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg)
	require.NoError(t, err)

	scope := controllerim.NewScope(controllerim.WithExtension(ext))
	app, _, inc := counterTree(t, scope)
	get := app.Define("get", func(args ...any) (any, error) {
		n, _ := app.Get("n")
		return n, nil
	})

	for i := 0; i < 3; i++ {
		_, err := inc()
		require.NoError(t, err)
	}
	_, err = get()
	require.NoError(t, err)
	require.Error(t, app.SetState(1))

	require.Equal(t, 4.0, testutil.ToFloat64(ext.operations.WithLabelValues("invoke")))
	require.Equal(t, 2.0, testutil.ToFloat64(ext.operations.WithLabelValues("set-state")))
	require.Equal(t, 1.0, testutil.ToFloat64(ext.errors.WithLabelValues("set-state")))
	require.Equal(t, 1.0, testutil.ToFloat64(ext.classifications.WithLabelValues("SETTER")))
	require.Equal(t, 1.0, testutil.ToFloat64(ext.classifications.WithLabelValues("GETTER")))
	require.Equal(t, 3.0, testutil.ToFloat64(ext.notifications.WithLabelValues("App")))
	require.Equal(t, 2, testutil.CollectAndCount(ext.duration))

	_, err = NewMetricsExtension(reg)
	require.Error(t, err)
}

func TestTracingExtension(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	scope := controllerim.NewScope(controllerim.WithExtension(NewTracingExtension(provider)))
	app, _, inc := counterTree(t, scope)

	outer := app.Define("outer", func(args ...any) (any, error) {
		return inc()
	})
	_, err := outer()
	require.NoError(t, err)

	spans := exporter.GetSpans()
	// set-state, then inc ends before outer
	require.Len(t, spans, 3)
	require.Equal(t, "controllerim.set-state", spans[0].Name)
	require.Equal(t, "controllerim.invoke", spans[1].Name)
	require.Equal(t, "controllerim.invoke", spans[2].Name)
	require.Equal(t, spans[2].SpanContext.SpanID(), spans[1].Parent.SpanID())

	var events []string
	for _, ev := range spans[1].Events {
		events = append(events, ev.Name)
	}
	require.Equal(t, []string{"method classified"}, events)

	events = nil
	for _, ev := range spans[2].Events {
		events = append(events, ev.Name)
	}
	require.Contains(t, events, "listeners notified")

	exporter.Reset()
	boom := errors.New("boom")
	fail := app.Define("fail", func(args ...any) (any, error) { return nil, boom })
	_, err = fail()
	require.ErrorIs(t, err, boom)

	spans = exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "exception", spans[0].Events[0].Name)
}
