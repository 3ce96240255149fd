package session

import "github.com/prometheus/client_golang/prometheus"

var sessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "floorplan_editor_sessions_open",
	Help: "Number of open editor sessions.",
})

// MetricsCollectors returns the session collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{sessionsOpen}
}
