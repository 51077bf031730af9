// Package metrics exposes the engine's Prometheus metrics. All metrics are
// package-level promauto vars registered on the default registry and served
// by the API's /metrics endpoint.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
)

// ─── Session Metrics ────────────────────────────────────────────────────────

// SessionsStarted counts started focus sessions.
var SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "session",
	Name:      "started_total",
	Help:      "Total focus sessions started.",
})

// SessionsCompleted counts completed focus sessions.
var SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "session",
	Name:      "completed_total",
	Help:      "Total focus sessions completed.",
})

// SessionsCancelled counts cancelled focus sessions.
var SessionsCancelled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "session",
	Name:      "cancelled_total",
	Help:      "Total focus sessions cancelled.",
})

// ─── Reward Metrics ─────────────────────────────────────────────────────────

// SeedsEarned counts seeds credited to the ledger.
var SeedsEarned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "seeds",
	Name:      "earned_total",
	Help:      "Total seeds earned.",
})

// SeedsSpent counts seeds debited from the ledger.
var SeedsSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "seeds",
	Name:      "spent_total",
	Help:      "Total seeds spent.",
})

// ─── Bus Metrics ────────────────────────────────────────────────────────────

// BusEvents counts emitted events by type prefix (the segment before the dot).
var BusEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "bus",
	Name:      "events_total",
	Help:      "Total events emitted on the bus, by domain prefix.",
}, []string{"domain"})

// ─── Persistence Metrics ────────────────────────────────────────────────────

// PersistFlushes counts snapshot flushes to the KV store.
var PersistFlushes = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "persist",
	Name:      "flushes_total",
	Help:      "Total coalesced snapshot flushes.",
})

// PersistFailures counts section writes that failed even after the per-key
// fallback.
var PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "grove",
	Subsystem: "persist",
	Name:      "failures_total",
	Help:      "Total section writes that could not be persisted.",
}, []string{"section"})

// HydrationSeconds observes how long store hydration took.
var HydrationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "grove",
	Subsystem: "persist",
	Name:      "hydration_seconds",
	Help:      "Duration of store hydration from the KV store.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Wiring ─────────────────────────────────────────────────────────────────

// Observe subscribes the metric counters to the bus. Handlers only touch
// Prometheus counters, never the store.
func Observe(b *bus.Bus) {
	b.On("*", func(e bus.Event) {
		prefix := e.Type
		if i := strings.IndexByte(prefix, '.'); i > 0 {
			prefix = prefix[:i]
		}
		BusEvents.WithLabelValues(prefix).Inc()

		switch e.Type {
		case domain.EventSessionStarted:
			SessionsStarted.Inc()
		case domain.EventSessionCompleted:
			SessionsCompleted.Inc()
		case domain.EventSessionCancelled:
			SessionsCancelled.Inc()
		case domain.EventSeedsEarned:
			if p, ok := e.Payload.(domain.RewardEventPayload); ok {
				SeedsEarned.Add(float64(p.Amount))
			}
		case domain.EventSeedsSpent:
			if p, ok := e.Payload.(domain.RewardEventPayload); ok {
				SeedsSpent.Add(float64(p.Amount))
			}
		}
	})
}
