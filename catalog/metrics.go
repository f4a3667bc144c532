package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts snapshot cache activity. A nil *Metrics records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	refreshes     prometheus.Counter
	refreshErrors prometheus.Counter
	staleServed   prometheus.Counter
	products      prometheus.Gauge
}

// NewMetrics registers the catalog collectors on reg. A nil registerer
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "hits_total",
			Help: "Snapshot reads served without a refresh.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "misses_total",
			Help: "Snapshot reads that found no fresh snapshot.",
		}),
		refreshes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "refreshes_total",
			Help: "Successful snapshot refreshes.",
		}),
		refreshErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "refresh_errors_total",
			Help: "Failed snapshot refreshes.",
		}),
		staleServed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "stale_served_total",
			Help: "Reads answered with an expired snapshot after a failed refresh.",
		}),
		products: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalog", Subsystem: "snapshot", Name: "products",
			Help: "Products in the current snapshot.",
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) refreshed(n int) {
	if m != nil {
		m.refreshes.Inc()
		m.products.Set(float64(n))
	}
}

func (m *Metrics) refreshFailed() {
	if m != nil {
		m.refreshErrors.Inc()
	}
}

func (m *Metrics) stale() {
	if m != nil {
		m.staleServed.Inc()
	}
}
