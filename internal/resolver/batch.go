package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bavix/macscope/internal/metrics"
	"github.com/bavix/macscope/internal/vendordb"
)

// DefaultBatchConcurrency is the global in-flight resolution bound for batch
// runs, independent of per-source rate limits.
const DefaultBatchConcurrency = 10

// BatchOutcome is one MAC's result within a batch. Err carries the lookup
// error kind, or input validation failure for unparseable MACs.
type BatchOutcome struct {
	Record vendordb.Record
	Err    error
}

// BatchResolve resolves many MACs concurrently under a global concurrency
// bound, reusing the resolver's cache and single-flight machinery. Results
// are keyed by the input strings; completion order is unspecified. One MAC's
// failure never aborts the rest.
func (r *Resolver) BatchResolve(ctx context.Context, macs []string, concurrency int) map[string]BatchOutcome {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	var (
		mu      sync.Mutex
		results = make(map[string]BatchOutcome, len(macs))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, mac := range macs {
		mac := mac

		mu.Lock()

		_, seen := results[mac]
		if !seen {
			// Reserve the key so duplicate inputs are resolved once.
			results[mac] = BatchOutcome{}
		}

		mu.Unlock()

		if seen {
			continue
		}

		g.Go(func() error {
			metrics.BatchInFlight.Inc()
			defer metrics.BatchInFlight.Dec()

			rec, err := r.Resolve(ctx, mac)

			mu.Lock()
			results[mac] = BatchOutcome{Record: rec, Err: err}
			mu.Unlock()

			// Failures are isolated per MAC; never abort the group.
			return nil
		})
	}

	_ = g.Wait()

	return results
}
