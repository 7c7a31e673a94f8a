package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	monitorTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwave_monitor_ticks_total",
			Help: "Total number of continuity monitor ticks",
		},
	)

	monitorTickErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwave_monitor_tick_errors_total",
			Help: "Continuity monitor tick failures partitioned by step",
		},
		[]string{"step"},
	)

	monitorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airwave_monitor_tick_duration_seconds",
			Help:    "Continuity monitor tick latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	queueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "airwave_queue_length",
			Help: "Number of items in the playback queue at the last tick",
		},
	)

	deadAirTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwave_dead_air_total",
			Help: "Times the monitor needed the next item and the queue was empty",
		},
	)

	autoAdvanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwave_auto_advance_total",
			Help: "Items started by the monitor, partitioned by reason",
		},
		[]string{"source"},
	)

	commercialsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwave_commercials_dispatched_total",
			Help: "Commercial plays committed, partitioned by trigger",
		},
		[]string{"trigger"},
	)

	slotsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwave_slots_skipped_total",
			Help: "Slots whose dispatch window passed without a tick",
		},
	)

	autoQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwave_auto_queued_total",
			Help: "Songs appended by queue leveling",
		},
	)

	flowsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "airwave_flows_active",
			Help: "Looping flows currently inside their schedule window",
		},
	)
)
