// Package rate implementa rate limiting de ventana fija sobre cache.Client.
package rate

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindow: max hits por ventana (INCR + EXPIRE en redis, go-cache en memoria).
type FixedWindow struct {
	Cache  cache.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewFixedWindow(c cache.Client, prefix string, max int, window time.Duration) *FixedWindow {
	if prefix == "" {
		prefix = "rl:"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindow{Cache: c, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	k := l.Prefix + strings.ReplaceAll(key, " ", "_")
	hits, ttl, err := l.Cache.Incr(ctx, k, l.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.Max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.Window
		}
	}
	return res, nil
}
