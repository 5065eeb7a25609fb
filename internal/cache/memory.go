package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
type memoryClient struct {
	prefix string
	c      *gocache.Cache
	// mu serializa Take e Incr: go-cache no tiene get-and-delete atómico
	mu     sync.Mutex
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria con limpieza cada minuto.
func NewMemory(prefix string) *memoryClient {
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string { return prefixed(c.prefix, k) }

func (c *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := c.c.Get(c.key(key))
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	c.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.c.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Take(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	c.c.Delete(c.key(key))
	return v, nil
}

func (c *memoryClient) Delete(_ context.Context, key string) error {
	c.c.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.c.Get(c.key(key))
	return ok, nil
}

func (c *memoryClient) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(key)
	if err := c.c.Add(k, int64(1), window); err == nil {
		return 1, window, nil
	}
	n, err := c.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: nueva ventana
		c.c.Set(k, int64(1), window)
		return 1, window, nil
	}
	ttl := window
	if _, exp, ok := c.c.GetWithExpiration(k); ok && !exp.IsZero() {
		ttl = time.Until(exp)
	}
	return n, ttl, nil
}

func (c *memoryClient) Ping(context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.c.Flush()
	return nil
}

func (c *memoryClient) Stats(context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(c.c.ItemCount()),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}, nil
}
