package extensions

import (
	"context"
	"log/slog"
	"time"

	"github.com/emaren84/controllerim"
)

// LoggingExtension logs all operations
type LoggingExtension struct {
	controllerim.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension writing to logger.
// A nil logger uses slog.Default().
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{
		BaseExtension: controllerim.NewBaseExtension("logging"),
		logger:        logger.With("extension", "logging"),
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *controllerim.Operation) (any, error) {
	start := time.Now()
	attrs := operationAttrs(op)
	e.logger.DebugContext(ctx, "operation starting", attrs...)

	result, err := next()

	attrs = append(attrs, "duration", time.Since(start))
	if err != nil {
		e.logger.WarnContext(ctx, "operation failed", append(attrs, "error", err)...)
	} else {
		e.logger.InfoContext(ctx, "operation completed", attrs...)
	}

	return result, err
}

func (e *LoggingExtension) OnClassify(ctrl *controllerim.Controller, method string, kind controllerim.MethodKind) {
	e.logger.Info("method classified",
		"controller", ctrl.Name(),
		"method", method,
		"kind", kind.String(),
	)
}

func (e *LoggingExtension) OnNotify(ctrl *controllerim.Controller, node *controllerim.StateNode) {
	e.logger.Debug("listeners notified",
		"controller", ctrl.Name(),
		"listeners", ctrl.ListenerTree().Len(),
	)
}

func operationAttrs(op *controllerim.Operation) []any {
	attrs := []any{"operation", string(op.Kind)}
	if op.Controller != nil {
		attrs = append(attrs, "controller", op.Controller.Name())
	}
	if op.Method != "" {
		attrs = append(attrs, "method", op.Method)
	}
	return attrs
}
