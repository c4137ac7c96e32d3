package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache() (*Cache, *clock) {
	clk := &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := New(DefaultTTLs())
	c.now = clk.Now
	return c, clk
}

func counting(calls *int32, v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}
}

func TestGetOrFetch_TTL(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()
	var calls int32

	v, err := c.GetOrFetch(ctx, KeyListings, 5*time.Second, counting(&calls, "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	clk.Advance(4 * time.Second)
	v, err = c.GetOrFetch(ctx, KeyListings, 5*time.Second, counting(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clk.Advance(2 * time.Second)
	v, err = c.GetOrFetch(ctx, KeyListings, 5*time.Second, counting(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetOrFetch_SingleFlight(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	var calls int32
	release := make(chan struct{})

	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"x"}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]any, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(ctx, KeyAgents, 0, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// let every caller join the in-flight fetch before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, []string{"x"}, r)
	}
}

func TestGetOrFetch_StaleOnError(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()
	var calls int32
	boom := errors.New("backend down")

	_, err := c.GetOrFetch(ctx, KeyUsers, time.Second, counting(&calls, "good"))
	require.NoError(t, err)
	clk.Advance(2 * time.Second)

	v, err := c.GetOrFetch(ctx, KeyUsers, time.Second, func(context.Context) (any, error) {
		return nil, boom
	})
	require.NoError(t, err)
	assert.Equal(t, "good", v)

	// no fallback for a key that never succeeded
	_, err = c.GetOrFetch(ctx, KeyChat, time.Second, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// invalidation drops the fallback too
	c.InvalidateAll()
	_, err = c.GetOrFetch(ctx, KeyUsers, time.Second, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	var calls int32

	_, err := c.GetOrFetch(ctx, KeyListings, 0, counting(&calls, 1))
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, KeyAgents, 0, counting(&calls, 2))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.Invalidate(KeyListings)
	assert.Equal(t, 1, c.Len())
	_, err = c.GetOrFetch(ctx, KeyAgents, 0, counting(&calls, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	c.InvalidateAll()
	assert.Zero(t, c.Len())
	_, err = c.GetOrFetch(ctx, KeyAgents, 0, counting(&calls, 3))
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestInvalidateDuringFetchDoesNotStore(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan any)
	go func() {
		v, _ := c.GetOrFetch(ctx, KeyListings, 0, func(context.Context) (any, error) {
			close(started)
			<-release
			return "before-mutation", nil
		})
		done <- v
	}()

	<-started
	c.InvalidateAll()
	close(release)
	assert.Equal(t, "before-mutation", <-done)
	assert.Zero(t, c.Len())

	var calls int32
	v, err := c.GetOrFetch(ctx, KeyListings, 0, counting(&calls, "after-mutation"))
	require.NoError(t, err)
	assert.Equal(t, "after-mutation", v)
}

func TestGetOrFetch_CallerTimeoutDoesNotAbortFetch(t *testing.T) {
	c, _ := newTestCache()
	started := make(chan struct{})
	release := make(chan struct{})
	detached := make(chan bool, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.GetOrFetch(ctx, KeyChat, 0, func(fctx context.Context) (any, error) {
		close(started)
		<-release
		detached <- fctx.Err() == nil
		return "done", nil
	})
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.True(t, <-detached)
	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()
	var calls int32

	_, _ = c.GetOrFetch(ctx, KeyChat, 0, counting(&calls, "c"))
	_, _ = c.GetOrFetch(ctx, KeyUsers, 0, counting(&calls, "u"))

	clk.Advance(time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	// swept keys keep their stale fallback
	v, err := c.GetOrFetch(ctx, KeyChat, 0, func(context.Context) (any, error) {
		return nil, errors.New("down")
	})
	require.NoError(t, err)
	assert.Equal(t, "c", v)
}

func TestFetchTyped(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	got, err := Fetch(ctx, c, KeyListings, func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	_, err = Fetch(ctx, c, KeyListings, func(context.Context) (string, error) {
		return "unused", nil
	})
	require.Error(t, err)
}

func TestTTLsFor(t *testing.T) {
	ttls := DefaultTTLs()
	tcases := map[string]time.Duration{
		KeyListings:    5 * time.Minute,
		KeyAgents:      10 * time.Minute,
		KeyUsers:       15 * time.Minute,
		KeyLeaderboard: 2 * time.Minute,
		KeyChat:        30 * time.Second,
		"other":        time.Minute,
	}
	for key, want := range tcases {
		assert.Equal(t, want, ttls.For(key), key)
	}

	ttls.Chat = 0
	assert.Equal(t, time.Minute, ttls.For(KeyChat))
}
