package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCapacity = 5
	defaultRefill   = 1.0
	// cooldownDivisor shrinks a source's refill rate after a 429.
	cooldownDivisor = 4
	defaultCooldown = 30 * time.Second
)

// SourceConfig is the token bucket policy for one lookup source.
type SourceConfig struct {
	// Capacity is the bucket size (maximum burst).
	Capacity int
	// Refill is the token refill rate in tokens per second.
	Refill float64
	// Cooldown is how long the refill rate stays reduced after the source
	// signals quota exhaustion. Zero means defaultCooldown.
	Cooldown time.Duration
}

type bucket struct {
	lim      *rate.Limiter
	refill   rate.Limit
	cooldown time.Duration
	restore  *time.Timer
}

// Limiter gatekeeps outbound calls per lookup source. Acquisition never
// blocks: an exhausted bucket means "skip this source for this call".
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	defaults SourceConfig
}

// New creates a limiter. Sources not registered explicitly get the default
// policy on first use.
func New(defaults SourceConfig) *Limiter {
	if defaults.Capacity <= 0 {
		defaults.Capacity = defaultCapacity
	}

	if defaults.Refill <= 0 {
		defaults.Refill = defaultRefill
	}

	if defaults.Cooldown <= 0 {
		defaults.Cooldown = defaultCooldown
	}

	return &Limiter{
		buckets:  make(map[string]*bucket),
		defaults: defaults,
	}
}

// Register installs a per-source policy, replacing any existing bucket.
func (l *Limiter) Register(source string, cfg SourceConfig) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = l.defaults.Capacity
	}

	if cfg.Refill <= 0 {
		cfg.Refill = l.defaults.Refill
	}

	if cfg.Cooldown <= 0 {
		cfg.Cooldown = l.defaults.Cooldown
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets[source] = &bucket{
		lim:      rate.NewLimiter(rate.Limit(cfg.Refill), cfg.Capacity),
		refill:   rate.Limit(cfg.Refill),
		cooldown: cfg.Cooldown,
	}
}

// TryAcquire consumes one token for the source if available. It never
// blocks; false means the source should be skipped for this call.
func (l *Limiter) TryAcquire(source string) bool {
	return l.bucket(source).lim.Allow()
}

// Throttle reacts to a RateLimited signal from a source: the bucket is
// drained and the refill rate reduced for a cooldown window, after which the
// configured rate is restored.
func (l *Limiter) Throttle(source string) {
	b := l.bucket(source)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Drain whatever tokens are left.
	now := time.Now()
	for b.lim.AllowN(now, 1) { //nolint:revive // drain loop
	}

	b.lim.SetLimit(b.refill / cooldownDivisor)

	if b.restore != nil {
		b.restore.Stop()
	}

	b.restore = time.AfterFunc(b.cooldown, func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		b.lim.SetLimit(b.refill)
		b.restore = nil
	})
}

// Tokens reports the currently available tokens for a source, for
// diagnostics only.
func (l *Limiter) Tokens(source string) float64 {
	return l.bucket(source).lim.Tokens()
}

func (l *Limiter) bucket(source string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[source]
	if !ok {
		b = &bucket{
			lim:      rate.NewLimiter(rate.Limit(l.defaults.Refill), l.defaults.Capacity),
			refill:   rate.Limit(l.defaults.Refill),
			cooldown: l.defaults.Cooldown,
		}
		l.buckets[source] = b
	}

	return b
}
