// Package metrics exposes Prometheus metrics for the scheduling engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MaintenanceRuns counts rolling maintenance passes per channel by outcome.
	MaintenanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cablecast_maintenance_runs_total",
		Help: "Total number of per-channel maintenance passes by result",
	}, []string{"result"})

	// BlocksGenerated counts scheduled blocks emitted by the builder.
	BlocksGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cablecast_blocks_generated_total",
		Help: "Total number of scheduled blocks generated by block kind",
	}, []string{"kind"})

	// BlocksPruned counts blocks removed past the retention cutoff.
	BlocksPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cablecast_blocks_pruned_total",
		Help: "Total number of scheduled blocks pruned",
	})

	// BuildDuration tracks how long one schedule generation run takes.
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cablecast_schedule_build_duration_seconds",
		Help:    "Time taken to generate one schedule extension",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Maintenance pass results.
const (
	ResultExtended = "extended"
	ResultSkipped  = "skipped"
	ResultLostRace = "lost_race"
	ResultError    = "error"
)

// ObserveBuildDuration records one schedule generation run.
func ObserveBuildDuration(d time.Duration) {
	BuildDuration.Observe(d.Seconds())
}

// RecordBlocks counts one generated block of the given kind.
func RecordBlocks(kind string, n int) {
	BlocksGenerated.WithLabelValues(kind).Add(float64(n))
}
