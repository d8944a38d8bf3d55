package request

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics returns the process-wide HTTP metrics; safe to call repeatedly.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tenantgate_endpoint_latency_seconds",
				Help:    "Latency of endpoints in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"endpoint", "status"}),
		}
	})
	return metricsInstance
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, status int, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(durationSeconds)
}
