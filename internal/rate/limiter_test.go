package rate

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
)

func TestFixedWindow_BlocksAfterMax(t *testing.T) {
	l := NewFixedWindow(cache.NewMemory(""), "", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/token")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	res, err := l.Allow(ctx, "1.2.3.4|/token")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed || res.Remaining != 0 || res.RetryAfter <= 0 {
		t.Fatalf("third hit: got %+v", res)
	}

	other, _ := l.Allow(ctx, "5.6.7.8|/token")
	if !other.Allowed {
		t.Fatalf("keys must be independent")
	}
}
