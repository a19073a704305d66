// Package metrics exposes the controller's Prometheus collectors, served by
// the status API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "redistq",
		Name:      "ticks_total",
		Help:      "Admission checks performed.",
	})

	ItemsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "redistq",
		Name:      "items_dispatched_total",
		Help:      "Work-list items dispatched.",
	})

	ItemsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "redistq",
		Name:      "items_skipped_total",
		Help:      "Items skipped after a failed deployment type lookup.",
	})

	ActionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "redistq",
		Name:      "actions_issued_total",
		Help:      "Begin-distribution actions issued, counting fan-out.",
	})

	ActionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "redistq",
		Name:      "actions_failed_total",
		Help:      "Begin-distribution actions rejected by the backend.",
	})

	AvailableSlots = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "redistq",
		Name:      "available_slots",
		Help:      "Admission slots computed at the last tick.",
	})

	CursorPosition = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "redistq",
		Name:      "cursor_position",
		Help:      "Highest work-list index dispatched so far.",
	})
)
