package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_reconcile_decisions_total",
		Help: "Snapshots reconciled, by decision",
	}, []string{"decision"})

	heldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskboard_reconcile_held_total",
		Help: "Snapshots held back while a view was cooling down",
	})

	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taskboard_reconcile_apply_duration_seconds",
		Help:    "Time spent reconciling one snapshot",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)
