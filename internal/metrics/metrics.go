package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Sessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchflow_sessions_total",
			Help: "Playback sessions by terminal state",
		},
		[]string{"state"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitchflow_active_sessions",
			Help: "Number of sessions loading or playing",
		},
	)

	SynthLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchflow_synth_latency_seconds",
			Help:    "Time to fetch and decode phrase audio",
			Buckets: prometheus.DefBuckets,
		},
	)

	HighlightChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitchflow_highlight_changes_total",
			Help: "Number of times the active mora changed",
		},
	)

	EstimatedMorae = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitchflow_estimated_morae_total",
			Help: "Morae timed by the fallback estimator because their word had no anchor",
		},
	)

	Connections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitchflow_ws_connections",
			Help: "Open websocket connections",
		},
	)

	Superseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitchflow_superseded_sessions_total",
			Help: "Sessions cancelled because a new phrase replaced them",
		},
	)
)
