package extensions

import (
	"context"
	"fmt"

	"github.com/emaren84/controllerim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsExtension exports Prometheus metrics for controller operations,
// method classification and listener notifications.
type MetricsExtension struct {
	controllerim.BaseExtension

	operations      *prometheus.CounterVec
	errors          *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// NewMetricsExtension registers the collectors with reg. Registering twice
// on the same registry fails.
func NewMetricsExtension(reg prometheus.Registerer) (ext *MetricsExtension, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = fmt.Errorf("registering controllerim metrics: %v", r)
		}
	}()

	factory := promauto.With(reg)
	return &MetricsExtension{
		BaseExtension: controllerim.NewBaseExtension("metrics"),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controllerim",
			Name:      "operations_total",
			Help:      "Controller operations by kind",
		}, []string{"operation"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controllerim",
			Name:      "operation_errors_total",
			Help:      "Controller operations that returned an error",
		}, []string{"operation"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "controllerim",
			Name:      "operation_duration_seconds",
			Help:      "Duration of controller operations",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"operation"}),
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controllerim",
			Name:      "method_classifications_total",
			Help:      "Methods classified, by kind",
		}, []string{"kind"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controllerim",
			Name:      "notifications_total",
			Help:      "State change notifications, by controller",
		}, []string{"controller"}),
	}, nil
}

func (e *MetricsExtension) Wrap(ctx context.Context, next func() (any, error), op *controllerim.Operation) (any, error) {
	kind := string(op.Kind)
	timer := prometheus.NewTimer(e.duration.WithLabelValues(kind))
	defer timer.ObserveDuration()

	e.operations.WithLabelValues(kind).Inc()
	return next()
}

func (e *MetricsExtension) OnError(err error, op *controllerim.Operation, scope *controllerim.Scope) {
	e.errors.WithLabelValues(string(op.Kind)).Inc()
}

func (e *MetricsExtension) OnClassify(ctrl *controllerim.Controller, method string, kind controllerim.MethodKind) {
	e.classifications.WithLabelValues(kind.String()).Inc()
}

func (e *MetricsExtension) OnNotify(ctrl *controllerim.Controller, node *controllerim.StateNode) {
	e.notifications.WithLabelValues(ctrl.Name()).Inc()
}
