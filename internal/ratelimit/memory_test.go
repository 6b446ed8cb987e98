package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhub/backend/internal/ratelimit"
)

func TestMemoryStoreWindowSequence(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStore(ratelimit.WithNow(func() time.Time { return now }))
	ctx := context.Background()

	// max=2: three calls inside the window allow, allow, deny.
	r1, err := store.Check(ctx, "vote:u1", time.Minute, 2)
	require.NoError(t, err)
	r2, err := store.Check(ctx, "vote:u1", time.Minute, 2)
	require.NoError(t, err)
	r3, err := store.Check(ctx, "vote:u1", time.Minute, 2)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, false}, []bool{r1.Allowed, r2.Allowed, r3.Allowed})
	assert.Equal(t, []int{1, 0, 0}, []int{r1.Remaining, r2.Remaining, r3.Remaining})
	assert.Equal(t, now.Add(time.Minute), r1.ResetAt)
	assert.Equal(t, r1.ResetAt, r3.ResetAt, "denial must not move the reset instant")
}

func TestMemoryStoreWindowExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStore(ratelimit.WithNow(func() time.Time { return now }))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Check(ctx, "vote:u1", time.Minute, 2)
		require.NoError(t, err)
	}
	denied, err := store.Check(ctx, "vote:u1", time.Minute, 2)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	// Past the reset instant the window starts over.
	now = now.Add(time.Minute + time.Second)
	fresh, err := store.Check(ctx, "vote:u1", time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, 1, fresh.Remaining)
	assert.Equal(t, now.Add(time.Minute), fresh.ResetAt)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	ctx := context.Background()

	// Exhaust key A.
	for i := 0; i < 3; i++ {
		_, err := store.Check(ctx, "vote:a", time.Minute, 2)
		require.NoError(t, err)
	}
	exhausted, err := store.Check(ctx, "vote:a", time.Minute, 2)
	require.NoError(t, err)
	assert.False(t, exhausted.Allowed)

	// Key B is untouched.
	other, err := store.Check(ctx, "vote:b", time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 1, other.Remaining)
}

func TestMemoryStoreSweepAtHighWater(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStore(
		ratelimit.WithNow(func() time.Time { return now }),
		ratelimit.WithHighWater(3),
	)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, err := store.Check(ctx, key, time.Minute, 5)
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.Len())

	// All three windows expire; the next new key triggers the sweep.
	now = now.Add(2 * time.Minute)
	_, err := store.Check(ctx, "d", time.Minute, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreConcurrentChecksNeverOverAllow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	ctx := context.Background()

	const workers = 50
	allowed := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Check(ctx, "burst", time.Minute, 10)
			assert.NoError(t, err)
			allowed <- res.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count)
}

func TestLimiterUsesPolicyTable(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), nil)
	ctx := context.Background()

	// post-create allows 5 per hour.
	for i := 0; i < 5; i++ {
		res := limiter.Check(ctx, "post-create", "u1")
		assert.True(t, res.Allowed)
	}
	res := limiter.Check(ctx, "post-create", "u1")
	assert.False(t, res.Allowed)

	// Unknown actions fall back to the default policy, not to deny.
	res = limiter.Check(ctx, "mystery-action", "u1")
	assert.True(t, res.Allowed)
	assert.Equal(t, ratelimit.DefaultPolicies["default"].Max-1, res.Remaining)
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(failingStore{}, nil)
	res := limiter.Check(context.Background(), "vote", "u1")
	assert.True(t, res.Allowed)
}

type failingStore struct{}

func (failingStore) Check(context.Context, string, time.Duration, int) (ratelimit.Result, error) {
	return ratelimit.Result{}, assert.AnError
}
