package extensions

import (
	"context"

	"github.com/emaren84/controllerim"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/emaren84/controllerim"

// TracingExtension starts one OpenTelemetry span per controller operation.
// Classifications and notifications that happen inside an operation are
// recorded as events on its span.
type TracingExtension struct {
	controllerim.BaseExtension
	tracer trace.Tracer
	active []trace.Span
}

// NewTracingExtension traces with provider, or the global provider when
// provider is nil.
func NewTracingExtension(provider trace.TracerProvider) *TracingExtension {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracingExtension{
		BaseExtension: controllerim.NewBaseExtension("tracing"),
		tracer:        provider.Tracer(tracerName),
	}
}

func (e *TracingExtension) Wrap(ctx context.Context, next func() (any, error), op *controllerim.Operation) (any, error) {
	attrs := []attribute.KeyValue{
		attribute.String("controllerim.operation", string(op.Kind)),
	}
	if op.Controller != nil {
		attrs = append(attrs,
			attribute.String("controllerim.controller", op.Controller.Name()),
			attribute.String("controllerim.controller_id", op.Controller.ID()),
		)
	}
	if op.Method != "" {
		attrs = append(attrs, attribute.String("controllerim.method", op.Method))
	}

	if parent := e.current(); parent != nil {
		ctx = trace.ContextWithSpan(ctx, parent)
	}
	_, span := e.tracer.Start(ctx, "controllerim."+string(op.Kind), trace.WithAttributes(attrs...))
	e.active = append(e.active, span)
	defer func() {
		e.active = e.active[:len(e.active)-1]
		span.End()
	}()

	result, err := next()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(op.Kind)+" failed")
	}
	return result, err
}

func (e *TracingExtension) OnClassify(ctrl *controllerim.Controller, method string, kind controllerim.MethodKind) {
	if span := e.current(); span != nil {
		span.AddEvent("method classified", trace.WithAttributes(
			attribute.String("controllerim.method", method),
			attribute.String("controllerim.kind", kind.String()),
		))
	}
}

func (e *TracingExtension) OnNotify(ctrl *controllerim.Controller, node *controllerim.StateNode) {
	if span := e.current(); span != nil {
		span.AddEvent("listeners notified", trace.WithAttributes(
			attribute.String("controllerim.controller", ctrl.Name()),
			attribute.Int("controllerim.listeners", ctrl.ListenerTree().Len()),
		))
	}
}

func (e *TracingExtension) current() trace.Span {
	if n := len(e.active); n > 0 {
		return e.active[n-1]
	}
	return nil
}
