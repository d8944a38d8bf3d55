package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks login traffic per tenant schema.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	LoginSuccesses *prometheus.CounterVec
	LoginFailures  *prometheus.CounterVec
	LoginDuration  prometheus.Histogram
	UsersCreated   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// New returns the process-wide auth metrics.
func New() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_login_attempts_total",
				Help: "Login attempts by tenant",
			}, []string{"tenant"}),
			LoginSuccesses: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_login_successes_total",
				Help: "Successful logins by tenant",
			}, []string{"tenant"}),
			LoginFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_login_failures_total",
				Help: "Failed logins by tenant and reason",
			}, []string{"tenant", "reason"}),
			LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tenantgate_auth_login_duration_seconds",
				Help:    "Login latency including password verification",
				Buckets: prometheus.DefBuckets,
			}),
			UsersCreated: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tenantgate_auth_users_created_total",
				Help: "Users registered by tenant",
			}, []string{"tenant"}),
		}
	})
	return metrics
}

func (m *Metrics) IncrementLoginAttempt(tenant string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(tenant).Inc()
}

func (m *Metrics) IncrementLoginSuccess(tenant string) {
	if m == nil {
		return
	}
	m.LoginSuccesses.WithLabelValues(tenant).Inc()
}

func (m *Metrics) IncrementLoginFailure(tenant, reason string) {
	if m == nil {
		return
	}
	m.LoginFailures.WithLabelValues(tenant, reason).Inc()
}

func (m *Metrics) ObserveLoginDuration(start time.Time) {
	if m == nil {
		return
	}
	m.LoginDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementUserCreated(tenant string) {
	if m == nil {
		return
	}
	m.UsersCreated.WithLabelValues(tenant).Inc()
}
