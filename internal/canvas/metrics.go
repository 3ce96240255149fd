package canvas

import "github.com/prometheus/client_golang/prometheus"

var (
	commitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorplan_editor_commits_total",
			Help: "Device commits issued by editors, by kind and result",
		},
		[]string{"kind", "result"},
	)
	commitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floorplan_editor_commit_duration_seconds",
			Help:    "Time from commit start until the store acknowledged or failed",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	commitsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "floorplan_editor_commits_in_flight",
			Help: "Commits submitted but not yet completed",
		},
	)
	gesturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorplan_editor_gestures_total",
			Help: "Completed editor gestures by kind",
		},
		[]string{"gesture"},
	)
)

// MetricsCollectors returns collectors for the editor engine.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		commitsTotal,
		commitDuration,
		commitsInFlight,
		gesturesTotal,
	}
}
