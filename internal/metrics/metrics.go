// Package metrics is the counter/histogram surface spec §4.I names:
// backfill outcomes, artifact misses, state-root mismatches, and hash
// mismatches, plus backfill latency percentiles. Registered once at
// startup and scraped the ordinary Prometheus way; counters are never
// reset in-band (prometheus.Counter's monotonic semantics already forbid
// it), matching spec's "clearing is an explicit operational action" rule.
//
// Grounded on the pack's own use of github.com/prometheus/client_golang
// (named via apps/cosmos and AKJUS-bsc-erigon's go.mod files) rather than
// the teacher, which carries no metrics surface of its own.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every collector this binary exposes. Construct one per
// process and register it with a prometheus.Registerer at startup.
type Registry struct {
	BackfillTotal       prometheus.Counter
	BackfillSuccess     prometheus.Counter
	BackfillPartial     prometheus.Counter
	ArtifactMisses      prometheus.Counter
	StateRootMismatches prometheus.Counter
	HashMismatches      prometheus.Counter
	BackfillLatencyMs   prometheus.Histogram
}

// NewRegistry constructs every collector unregistered; call Register to
// attach them to a prometheus.Registerer.
func NewRegistry() *Registry {
	return &Registry{
		BackfillTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "backfill",
			Name:      "total",
			Help:      "Total backfill requests issued.",
		}),
		BackfillSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "backfill",
			Name:      "success_total",
			Help:      "Backfill requests where every requested artifact was recovered.",
		}),
		BackfillPartial: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "backfill",
			Name:      "partial_total",
			Help:      "Backfill requests where only some requested artifacts were recovered.",
		}),
		ArtifactMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "artifacts",
			Name:      "misses_total",
			Help:      "Artifact lookups that found nothing stored for the requested hash.",
		}),
		StateRootMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "consensus",
			Name:      "state_root_mismatches_total",
			Help:      "Times this replica's computed state root diverged from the reported consensus root.",
		}),
		HashMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casinochain",
			Subsystem: "artifacts",
			Name:      "hash_mismatches_total",
			Help:      "Stored-or-received artifact bytes that did not hash to their claimed identifier.",
		}),
		BackfillLatencyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "casinochain",
			Subsystem: "backfill",
			Name:      "latency_ms",
			Help:      "Wall-clock latency of a backfill round trip, in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1ms..32s
		}),
	}
}

// Register attaches every collector to reg. Call once at process startup.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.BackfillTotal,
		r.BackfillSuccess,
		r.BackfillPartial,
		r.ArtifactMisses,
		r.StateRootMismatches,
		r.HashMismatches,
		r.BackfillLatencyMs,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveBackfill records one completed backfill: total always increments,
// success increments when every requested artifact was recovered, partial
// when only some were (neither when none were), and the latency sample
// feeds the p50/p95/p99
// histogram spec §4.I names.
func (r *Registry) ObserveBackfill(requested, recovered int, latencyMs float64) {
	r.BackfillTotal.Inc()
	if recovered >= requested {
		r.BackfillSuccess.Inc()
	} else if recovered > 0 {
		r.BackfillPartial.Inc()
	}
	r.BackfillLatencyMs.Observe(latencyMs)
}
