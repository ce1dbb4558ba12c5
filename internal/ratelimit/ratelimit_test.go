package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bavix/macscope/internal/ratelimit"
)

func TestLimiter_CapacityBound(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{})
	l.Register("api", ratelimit.SourceConfig{Capacity: 3, Refill: 0.001})

	granted := 0

	for i := 0; i < 10; i++ {
		if l.TryAcquire("api") {
			granted++
		}
	}

	// With a near-zero refill rate no more than the capacity may be granted.
	assert.Equal(t, 3, granted)
}

func TestLimiter_NeverBlocks(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{})
	l.Register("api", ratelimit.SourceConfig{Capacity: 1, Refill: 0.001})

	start := time.Now()

	for i := 0; i < 100; i++ {
		l.TryAcquire("api")
	}

	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiter_Refill(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{})
	l.Register("api", ratelimit.SourceConfig{Capacity: 1, Refill: 50})

	assert.True(t, l.TryAcquire("api"))
	assert.False(t, l.TryAcquire("api"))

	// 50 tokens/sec refills one token within tens of milliseconds.
	assert.Eventually(t, func() bool {
		return l.TryAcquire("api")
	}, time.Second, 5*time.Millisecond)
}

func TestLimiter_UnregisteredSourceUsesDefaults(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{Capacity: 2, Refill: 0.001})

	assert.True(t, l.TryAcquire("surprise"))
	assert.True(t, l.TryAcquire("surprise"))
	assert.False(t, l.TryAcquire("surprise"))
}

func TestLimiter_ThrottleDrainsBucket(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{})
	l.Register("api", ratelimit.SourceConfig{Capacity: 5, Refill: 0.001, Cooldown: time.Minute})

	assert.True(t, l.TryAcquire("api"))

	l.Throttle("api")

	assert.False(t, l.TryAcquire("api"))
	assert.LessOrEqual(t, l.Tokens("api"), 1.0)
}

func TestLimiter_CooldownRestoresRefill(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.SourceConfig{})
	l.Register("api", ratelimit.SourceConfig{Capacity: 1, Refill: 100, Cooldown: 20 * time.Millisecond})

	l.Throttle("api")

	// After the cooldown window the full refill rate applies again, so a
	// token shows up quickly.
	assert.Eventually(t, func() bool {
		return l.TryAcquire("api")
	}, time.Second, 5*time.Millisecond)
}
