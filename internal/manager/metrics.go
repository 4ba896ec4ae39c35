package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	gateSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "gate",
			Name:      "slots",
			Help:      "Configured worker slots",
		},
	)

	gateInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "gate",
			Name:      "inflight",
			Help:      "Engine calls currently holding a slot",
		},
	)

	gateWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "gate",
			Name:      "waiting",
			Help:      "Callers parked at the gate",
		},
	)

	gateWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "gate",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a worker slot",
			Buckets:   prometheus.DefBuckets,
		},
	)

	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "completions_total",
			Help:      "Completions by outcome",
		},
		[]string{"outcome"},
	)

	completionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "completion_duration_seconds",
			Help:      "Wall-clock duration of engine calls",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	completionTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "completion_tokens_total",
			Help:      "Tokens generated across all completions",
		},
	)
)

func init() {
	prometheus.MustRegister(gateSlots, gateInflight, gateWaiting, gateWaitSeconds,
		completionsTotal, completionSeconds, completionTokens)
}

// observeCompletion records one engine call outcome.
func observeCompletion(outcome string, dur time.Duration, tokens int) {
	completionsTotal.WithLabelValues(outcome).Inc()
	completionSeconds.Observe(dur.Seconds())
	if tokens > 0 {
		completionTokens.Add(float64(tokens))
	}
}
