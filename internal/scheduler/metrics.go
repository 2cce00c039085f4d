// internal/scheduler/metrics.go
package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type schedulerMetrics struct {
	runsTotal      *prometheus.CounterVec
	membersUpdated prometheus.Gauge
	lastRunTime    prometheus.Gauge
	runDuration    prometheus.Histogram
}

func (s *Scheduler) initMetrics(registry prometheus.Registerer) {
	factory := promauto.With(registry)
	s.metrics = &schedulerMetrics{}
	s.metrics.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rejestr_recalculation_runs_total",
			Help: "number of contribution recalculation runs by outcome",
		},
		[]string{"outcome"},
	)
	s.metrics.membersUpdated = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "rejestr_recalculation_members_updated",
			Help: "number of members updated by the last successful recalculation",
		},
	)
	s.metrics.lastRunTime = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "rejestr_recalculation_last_run_timestamp_seconds",
			Help: "unix time of the last successful recalculation",
		},
	)
	s.metrics.runDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rejestr_recalculation_duration_seconds",
			Help:    "wall-clock duration of recalculation runs",
			Buckets: prometheus.DefBuckets,
		},
	)
}
