package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters exposed on /metrics.
type Metrics struct {
	StatusChanges        *prometheus.CounterVec
	Repairs              prometheus.Counter
	CompensationFailures prometheus.Counter
	NotificationsDropped prometheus.Counter
}

// NewMetrics registers the marketplace counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Status writes applied to order parts, by resulting status.",
		}, []string{"status"}),
		Repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_repairs_total",
			Help: "Diverged parts force-synchronized by the consistency auditor.",
		}),
		CompensationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compensation_failures_total",
			Help: "Commission or stock compensation steps that failed and were logged.",
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Status notifications dropped because the dispatch queue was full.",
		}),
	}
	reg.MustRegister(m.StatusChanges, m.Repairs, m.CompensationFailures, m.NotificationsDropped)
	return m
}
