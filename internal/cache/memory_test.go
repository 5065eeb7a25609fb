package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	_, err := c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)

	st, _ := c.Stats(ctx)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestMemory_TTLExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "code", "user-1", time.Minute))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Take(ctx, "code"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "memcached"})
	assert.Error(t, err)
}

func TestMemory_IncrFixedWindow(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	n, ttl, err := c.Incr(ctx, "rl:ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, ttl)

	n, ttl, err = c.Incr(ctx, "rl:ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.LessOrEqual(t, ttl, time.Minute)

	n, _, err = c.Incr(ctx, "rl:ip", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "window is fixed by the first hit")
}

func TestMemory_IncrNewWindowAfterExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	_, _, _ = c.Incr(ctx, "k", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	n, _, err := c.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
