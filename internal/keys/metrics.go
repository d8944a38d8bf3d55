package keys

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes signing-key state.
type Metrics struct {
	Fallback   prometheus.Gauge
	PublicKeys prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide key metrics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			Fallback: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "tenantgate_signing_key_fallback",
				Help: "1 when tokens are signed with the pre-shared fallback secret",
			}),
			PublicKeys: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "tenantgate_verification_keys",
				Help: "Number of public keys available for verification",
			}),
		}
	})
	return metrics
}

func (m *Metrics) record(fallback bool, publicKeys int) {
	if m == nil {
		return
	}
	if fallback {
		m.Fallback.Set(1)
	} else {
		m.Fallback.Set(0)
	}
	m.PublicKeys.Set(float64(publicKeys))
}
