package resolver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	outcomePublic      = "public"
	outcomeToken       = "token"
	outcomeHeader      = "header"
	outcomeRejected400 = "rejected_400"
	outcomeRejected401 = "rejected_401"
	outcomeRejected404 = "rejected_404"
	outcomeError       = "error"
)

type Metrics struct {
	Resolutions *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_tenant_resolution_total",
				Help: "Tenant resolution outcomes",
			}, []string{"outcome"}),
		}
	})
	return metrics
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}
