package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rollback results.
const (
	RollbackSucceeded = "succeeded"
	RollbackFailed    = "failed"
)

type Metrics struct {
	OrganizationsCreated prometheus.Counter
	Rollbacks            *prometheus.CounterVec
	ProvisionDuration    prometheus.Histogram
}

var (
	once     sync.Once
	instance *Metrics
)

func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			OrganizationsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "tenantgate_organizations_created_total",
				Help: "Total number of organizations provisioned",
			}),
			Rollbacks: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_organization_rollbacks_total",
				Help: "Compensating deletes after failed provisioning, by result",
			}, []string{"result"}),
			ProvisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tenantgate_organization_provision_duration_seconds",
				Help:    "Duration of organization provisioning including schema creation",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			}),
		}
	})
	return instance
}

func (m *Metrics) IncrementOrganizationCreated() {
	if m == nil {
		return
	}
	m.OrganizationsCreated.Inc()
}

func (m *Metrics) IncrementRollback(result string) {
	if m == nil {
		return
	}
	m.Rollbacks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveProvision(start time.Time) {
	if m == nil {
		return
	}
	m.ProvisionDuration.Observe(time.Since(start).Seconds())
}
