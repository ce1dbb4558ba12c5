// Package resolver orchestrates vendor resolution: static table, durable
// cache, then a bounded concurrent fan-out across remote sources with
// single-flight de-duplication per OUI.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/bavix/macscope/internal/macaddr"
	"github.com/bavix/macscope/internal/metrics"
	"github.com/bavix/macscope/internal/ouicache"
	"github.com/bavix/macscope/internal/ratelimit"
	"github.com/bavix/macscope/internal/vendordb"
)

const (
	// DefaultFanoutWidth bounds how many sources are queried at once on a
	// cache miss.
	DefaultFanoutWidth = 3
	// DefaultOverallTimeout bounds one Resolve call regardless of per-source
	// timeouts.
	DefaultOverallTimeout = 15 * time.Second
)

// Options tune the resolution pipeline.
type Options struct {
	FanoutWidth    int
	OverallTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.FanoutWidth <= 0 {
		o.FanoutWidth = DefaultFanoutWidth
	}

	if o.OverallTimeout <= 0 {
		o.OverallTimeout = DefaultOverallTimeout
	}
}

// Resolver resolves MAC addresses to vendor records. Safe for concurrent use.
type Resolver struct {
	static   *vendordb.StaticTable
	cache    *ouicache.Store
	adapters []vendordb.Adapter
	limiter  *ratelimit.Limiter
	filter   *vendordb.ResponseFilter
	opts     Options

	sf singleflight.Group
}

// New wires a resolver. Adapters are consulted in the given priority order;
// the static table and cache are consulted first and are never rate limited.
func New(
	static *vendordb.StaticTable,
	cache *ouicache.Store,
	limiter *ratelimit.Limiter,
	filter *vendordb.ResponseFilter,
	adapters []vendordb.Adapter,
	opts Options,
) *Resolver {
	opts.applyDefaults()

	if filter == nil {
		filter = vendordb.NewResponseFilter(nil)
	}

	return &Resolver{
		static:   static,
		cache:    cache,
		adapters: adapters,
		limiter:  limiter,
		filter:   filter,
		opts:     opts,
	}
}

// Resolve maps a MAC address in any common notation to a vendor record.
// Lookup failures never propagate: once every source is exhausted the caller
// gets an Unknown record together with vendordb.ErrNotFound. Only malformed
// input yields a different error.
func (r *Resolver) Resolve(ctx context.Context, mac string) (vendordb.Record, error) {
	started := time.Now()
	defer func() { metrics.ResolveDuration.Observe(time.Since(started).Seconds()) }()

	normalized, err := macaddr.Normalize(mac)
	if err != nil {
		return vendordb.Record{}, err
	}

	oui := macaddr.OUI(normalized)

	if vendor, err := r.static.Lookup(ctx, oui); err == nil {
		return vendordb.Record{
			OUI:        oui,
			Vendor:     vendor,
			Source:     vendordb.SourceStatic,
			ResolvedAt: time.Now(),
			Confidence: vendordb.ConfidenceExact,
		}, nil
	}

	cached, result := r.cache.Get(ctx, oui)

	metrics.CacheOperationsTotal.WithLabelValues(result.String()).Inc()

	if result == ouicache.Hit {
		cached.Source = vendordb.SourceCache

		return cached, nil
	}

	// Coalesce concurrent misses for the same OUI into one fan-out.
	v, err, _ := r.sf.Do(oui, func() (any, error) {
		return r.fanout(ctx, oui)
	})
	if err != nil {
		return vendordb.Unknown(oui), err
	}

	rec, ok := v.(vendordb.Record)
	if !ok {
		return vendordb.Unknown(oui), vendordb.ErrNotFound
	}

	return rec, nil
}

type adapterResult struct {
	source string
	vendor string
	ok     bool
}

// fanout queries remote sources concurrently up to the fan-out width, in
// priority order, returning the first validated vendor. All sibling calls
// are cancelled once a winner is known.
func (r *Resolver) fanout(parent context.Context, oui string) (vendordb.Record, error) {
	if len(r.adapters) == 0 {
		return vendordb.Record{}, vendordb.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(parent, r.opts.OverallTimeout)
	defer cancel()

	sem := make(chan struct{}, r.opts.FanoutWidth)
	results := make(chan adapterResult, len(r.adapters))

	go func() {
		for _, adapter := range r.adapters {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Winner found or deadline expired; stop issuing new calls.
				results <- adapterResult{}

				continue
			}

			go func(a vendordb.Adapter) {
				defer func() { <-sem }()

				results <- r.query(ctx, a, oui)
			}(adapter)
		}
	}()

	for range r.adapters {
		res := <-results
		if !res.ok {
			continue
		}

		cancel()

		rec := vendordb.Record{
			OUI:        oui,
			Vendor:     res.vendor,
			Source:     res.source,
			ResolvedAt: time.Now(),
			Confidence: vendordb.ConfidenceHeuristic,
		}

		if err := r.cache.Put(parent, rec); err != nil {
			zerolog.Ctx(parent).Warn().Err(err).Str("oui", oui).Msg("cache write-through failed")
		}

		return rec, nil
	}

	// Negative results are not cached: a later attempt or another source
	// priority may still succeed.
	return vendordb.Record{}, vendordb.ErrNotFound
}

// query runs one adapter under the rate limiter and validates its answer.
func (r *Resolver) query(ctx context.Context, a vendordb.Adapter, oui string) adapterResult {
	logger := zerolog.Ctx(ctx)
	source := a.Name()

	if r.limiter != nil && !r.limiter.TryAcquire(source) {
		metrics.RateLimitSkipsTotal.WithLabelValues(source).Inc()
		logger.Debug().Str("source", source).Str("oui", oui).Msg("source skipped: no rate limit token")

		return adapterResult{source: source}
	}

	raw, err := a.Lookup(ctx, oui)
	if err != nil {
		if errors.Is(err, vendordb.ErrRateLimited) && r.limiter != nil {
			r.limiter.Throttle(source)
		}

		metrics.LookupsTotal.WithLabelValues(source, outcomeLabel(err)).Inc()
		logger.Debug().Err(err).Str("source", source).Str("oui", oui).Msg("vendor lookup failed")

		return adapterResult{source: source}
	}

	vendor, valid := r.filter.Clean(raw)
	if !valid {
		metrics.LookupsTotal.WithLabelValues(source, metrics.OutcomeNotFound).Inc()
		logger.Debug().Str("source", source).Str("oui", oui).Str("raw", raw).Msg("placeholder response treated as miss")

		return adapterResult{source: source}
	}

	metrics.LookupsTotal.WithLabelValues(source, metrics.OutcomeOK).Inc()

	return adapterResult{source: source, vendor: vendor, ok: true}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, vendordb.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, vendordb.ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, vendordb.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	case errors.Is(err, vendordb.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeTransient
	}
}
