// Package metrics описывает метрики Prometheus витрины:
// обходы истёкших подписок, переходы жизненного цикла и ошибки доставки уведомлений.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Metrics набор счётчиков и гистограмм. Методы безопасны для nil.
type Metrics struct {
	sweepCandidates *prometheus.CounterVec
	sweepSucceeded  *prometheus.CounterVec
	sweepFailed     *prometheus.CounterVec
	sweepDuration   *prometheus.HistogramVec
	expired         prometheus.Counter
	lifecycle       *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
}

// New регистрирует метрики в reg. nil означает prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		sweepCandidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "candidates_total",
			Help:      "Accounts selected by a sweep run",
		}, []string{"job"}),
		sweepSucceeded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "succeeded_total",
			Help:      "Accounts processed successfully by a sweep run",
		}, []string{"job"}),
		sweepFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "failed_total",
			Help:      "Accounts that failed during a sweep run",
		}, []string{"job"}),
		sweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Wall time of a sweep run",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"job"}),
		expired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_expired_total",
			Help:      "Subscriptions moved to expired",
		}),
		lifecycle: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Lifecycle operations by name and outcome",
		}, []string{"operation", "outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "dispatched_total",
			Help:      "Notifications by type and outcome",
		}, []string{"type", "outcome"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"scope"}),
	}
}

// ObserveSweep записывает итог одного обхода.
func (m *Metrics) ObserveSweep(job string, total, succeeded, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepCandidates.WithLabelValues(job).Add(float64(total))
	m.sweepSucceeded.WithLabelValues(job).Add(float64(succeeded))
	m.sweepFailed.WithLabelValues(job).Add(float64(failed))
	m.sweepDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *Metrics) IncExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
}

// ObserveLifecycle считает операцию жизненного цикла; err == nil означает успех.
func (m *Metrics) ObserveLifecycle(operation string, err error) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveNotification(notificationType string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(notificationType, outcome(err)).Inc()
}

func (m *Metrics) IncRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
