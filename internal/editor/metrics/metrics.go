package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus metrics
// ============================================================

var (
	// EditsTotal: успешные изменения документа.
	// Labels: action (edit, undo, redo, replace_graph, replace_rooms)
	EditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorplan",
		Subsystem: "editor",
		Name:      "changes_total",
		Help:      "Committed document changes by action",
	}, []string{"action"})

	// EditFailures: отклонённые изменения.
	// Labels: action, reason (apply, noop, undo_failed, redo_failed, closed)
	EditFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorplan",
		Subsystem: "editor",
		Name:      "change_failures_total",
		Help:      "Rejected document changes by action and reason",
	}, []string{"action", "reason"})

	// SavesTotal: асинхронные сохранения.
	// Labels: result (ok, error)
	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorplan",
		Subsystem: "persistence",
		Name:      "saves_total",
		Help:      "Asynchronous document saves by result",
	}, []string{"result"})

	SaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "floorplan",
		Subsystem: "persistence",
		Name:      "save_duration_seconds",
		Help:      "Time spent writing a document part to the gateway",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "floorplan",
		Subsystem: "editor",
		Name:      "open_sessions",
		Help:      "Currently open editing sessions",
	})

	// SimplifyTotal: вызовы сервиса упрощения.
	// Labels: result (ok, error)
	SimplifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorplan",
		Subsystem: "geometry",
		Name:      "simplify_total",
		Help:      "Polygon simplification calls by result",
	}, []string{"result"})
)
