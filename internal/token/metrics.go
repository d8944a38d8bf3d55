package token

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Generations        *prometheus.CounterVec
	Validations        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide token metrics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			Generations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_token_generations_total",
				Help: "Tokens minted, by type",
			}, []string{"token_type"}),
			Validations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_token_validations_total",
				Help: "Token verifications, by outcome",
			}, []string{"valid"}),
			ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tenantgate_auth_token_validation_duration_seconds",
				Help:    "Duration of token verification",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			}),
		}
	})
	return metrics
}

func (m *Metrics) generated(t Type) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) validated(start time.Time, valid bool) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(strconv.FormatBool(valid)).Inc()
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}
