//nolint:gochecknoglobals // prometheus metrics registered at init
package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prom.CounterOpts{
			Name: "macscope_lookups_total",
			Help: "Vendor lookups per source by outcome (Counter). outcome=ok|not_found|timeout|rate_limited|transient|malformed.",
		},
		[]string{"source", "outcome"},
	)

	CacheOperationsTotal = promauto.NewCounterVec(
		prom.CounterOpts{
			Name: "macscope_cache_operations_total",
			Help: "OUI cache reads by result (Counter). result=hit|stale|miss.",
		},
		[]string{"result"},
	)

	RateLimitSkipsTotal = promauto.NewCounterVec(
		prom.CounterOpts{
			Name: "macscope_ratelimit_skips_total",
			Help: "Lookups skipped because a source bucket was empty (Counter).",
		},
		[]string{"source"},
	)

	ResolveDuration = promauto.NewHistogram(
		prom.HistogramOpts{
			Name:    "macscope_resolve_duration_seconds",
			Help:    "End-to-end Resolve latency (Histogram).",
			Buckets: prom.DefBuckets,
		},
	)

	BatchInFlight = promauto.NewGauge(
		prom.GaugeOpts{
			Name: "macscope_batch_in_flight",
			Help: "Currently running batch resolutions (Gauge).",
		},
	)
)

// LookupOutcome labels for LookupsTotal.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeTimeout     = "timeout"
	OutcomeRateLimited = "rate_limited"
	OutcomeTransient   = "transient"
	OutcomeMalformed   = "malformed"
)
