package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/kube"
)

var (
	reconcileDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trustify",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation passes in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"namespace", "name", "controller"},
	)

	reconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustify",
			Name:      "reconcile_errors_total",
			Help:      "Total number of reconciliation errors",
		},
		[]string{"namespace", "name", "controller", "reason"},
	)

	managedObjectOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustify",
			Name:      "managed_object_operations_total",
			Help:      "Total number of writes to managed objects",
		},
		[]string{"kind", "role", "operation"},
	)

	passIncompleteTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustify",
			Name:      "pass_incomplete_total",
			Help:      "Total number of managed kinds skipped because their precondition did not hold",
		},
		[]string{"namespace", "name", "kind"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		reconcileDurationHistogram,
		reconcileErrorsTotal,
		managedObjectOperationsTotal,
		passIncompleteTotal,
	)
}

// ReconcileMetrics provides helpers to record reconcile-level metrics for a
// specific controller and Trustify resource.
type ReconcileMetrics struct {
	namespace  string
	name       string
	controller string
}

// NewReconcileMetrics creates a new ReconcileMetrics instance.
func NewReconcileMetrics(namespace, name, controller string) *ReconcileMetrics {
	return &ReconcileMetrics{
		namespace:  namespace,
		name:       name,
		controller: controller,
	}
}

// ObserveDuration records the duration of a reconcile pass in seconds.
func (m *ReconcileMetrics) ObserveDuration(durationSeconds float64) {
	reconcileDurationHistogram.
		WithLabelValues(m.namespace, m.name, m.controller).
		Observe(durationSeconds)
}

// IncrementError increments the reconcile error counter with the given reason.
// Reason values should be low-cardinality strings (for example, "HostnameUnresolved").
func (m *ReconcileMetrics) IncrementError(reason string) {
	reconcileErrorsTotal.
		WithLabelValues(m.namespace, m.name, m.controller, reason).
		Inc()
}

// IncrementIncomplete records a kind skipped on an unmet precondition.
func (m *ReconcileMetrics) IncrementIncomplete(kind string) {
	passIncompleteTotal.
		WithLabelValues(m.namespace, m.name, kind).
		Inc()
}

// Clear removes the per-resource series after the Trustify resource is gone.
func (m *ReconcileMetrics) Clear() {
	reconcileDurationHistogram.DeleteLabelValues(m.namespace, m.name, m.controller)
	reconcileErrorsTotal.DeletePartialMatch(prometheus.Labels{"namespace": m.namespace, "name": m.name})
	passIncompleteTotal.DeletePartialMatch(prometheus.Labels{"namespace": m.namespace, "name": m.name})
}

// RecordOperation is a kube.OperationRecorder counting writes per kind.
func RecordOperation(kind conditions.Kind, op kube.Operation) {
	managedObjectOperationsTotal.
		WithLabelValues(kind.Object, string(kind.Role), string(op)).
		Inc()
}
