package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records loader activity. A nil *Metrics records nothing.
type Metrics struct {
	loads               *prometheus.CounterVec
	loadDuration        *prometheus.HistogramVec
	subResourceFailures *prometheus.CounterVec
	realtimeUpdates     prometheus.Counter
	toolCount           prometheus.Gauge
}

// NewMetrics registers loader metrics on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidir_catalog_loads_total",
				Help: "Catalog loads by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		loadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aidir_catalog_load_duration_seconds",
				Help:    "Duration of catalog loads in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		subResourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidir_catalog_subresource_failures_total",
				Help: "Sub-resource reads that failed",
			},
			[]string{"resource"},
		),
		realtimeUpdates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "aidir_catalog_realtime_updates_total",
				Help: "Change notifications re-hydrated by the realtime subscriber",
			},
		),
		toolCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aidir_catalog_tools",
				Help: "Tools in the current catalog snapshot",
			},
		),
	}
}

func (m *Metrics) observeLoad(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.loads.WithLabelValues(kind, outcome).Inc()
	m.loadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) subResourceFailed(resource string) {
	if m == nil {
		return
	}
	m.subResourceFailures.WithLabelValues(resource).Inc()
}

func (m *Metrics) realtimeUpdate() {
	if m == nil {
		return
	}
	m.realtimeUpdates.Inc()
}

func (m *Metrics) setToolCount(n int) {
	if m == nil {
		return
	}
	m.toolCount.Set(float64(n))
}
