package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func countingLoader(calls *int, payload interface{}) LoaderFunc {
	return func(ctx context.Context) (interface{}, error) {
		*calls++
		return payload, nil
	}
}

func TestGetOrLoadWithinTTLReturnsCachedPayload(t *testing.T) {
	clock := newFakeClock()
	c := New(5*time.Minute, WithClock(clock.Now))

	calls := 0
	payload := &struct{ Price float64 }{Price: 101.5}

	first, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, payload))
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)

	second, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, payload))
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second access within TTL must not call the loader")
	assert.Same(t, first, second, "cached payload must be the identical object")
}

func TestGetOrLoadAfterTTLRefetchesOnce(t *testing.T) {
	clock := newFakeClock()
	c := New(5*time.Minute, WithClock(clock.Now))

	calls := 0
	_, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "v1"))
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)

	v, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 2, calls, "expired entry must trigger exactly one refetch")

	// The refetch overwrote the entry, so it is fresh again.
	_, err = c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "v3"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadErrorIsNotCached(t *testing.T) {
	c := New(5 * time.Minute)

	boom := errors.New("upstream down")
	_, err := c.GetOrLoad(context.Background(), "AAPL", func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	calls := 0
	v, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "recovered"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadConcurrentMissesCollapse(t *testing.T) {
	c := New(5 * time.Minute)

	var mu sync.Mutex
	calls := 0
	release := make(chan struct{})

	loader := func(ctx context.Context) (interface{}, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return "shared", nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]interface{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "AAPL", loader)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every goroutine a chance to reach the flight group before the
	// single loader completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "simultaneous misses must share one loader call")
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestSetEvictsOldestWhenCapped(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Hour, WithClock(clock.Now), WithMaxEntries(2))

	c.Set("a", 1)
	clock.Advance(time.Second)
	c.Set("b", 2)
	clock.Advance(time.Second)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	c := New(time.Hour)

	calls := 0
	_, err := c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "x"))
	require.NoError(t, err)
	_, err = c.GetOrLoad(context.Background(), "AAPL", countingLoader(&calls, "x"))
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestGetReturnsFalseForStaleEntry(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("AAPL", "v")
	_, ok := c.Get("AAPL")
	require.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("AAPL")
	assert.False(t, ok)

	// Stale entries stay in place until overwritten.
	assert.Equal(t, 1, c.Len())
}
