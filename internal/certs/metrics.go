package certs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	tlsCertExpiryTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "trustify",
			Name:      "tls_cert_expiry_timestamp",
			Help:      "Unix timestamp when the self-issued certificate expires",
		},
		[]string{"namespace", "name", "purpose"},
	)

	tlsSelfSignedIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustify",
			Name:      "tls_self_signed_issued_total",
			Help:      "Total number of self-issued certificates generated",
		},
		[]string{"namespace", "name", "purpose"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		tlsCertExpiryTimestamp,
		tlsSelfSignedIssuedTotal,
	)
}

// tlsMetrics records TLS metrics for one Trustify resource.
type tlsMetrics struct {
	namespace string
	name      string
}

func newTLSMetrics(namespace, name string) *tlsMetrics {
	return &tlsMetrics{
		namespace: namespace,
		name:      name,
	}
}

func (m *tlsMetrics) setExpiry(purpose string, expiry time.Time) {
	tlsCertExpiryTimestamp.
		WithLabelValues(m.namespace, m.name, purpose).
		Set(float64(expiry.Unix()))
}

func (m *tlsMetrics) incrementIssued(purpose string) {
	tlsSelfSignedIssuedTotal.
		WithLabelValues(m.namespace, m.name, purpose).
		Inc()
}
