package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

func TestLog_WritesStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, EventAuthenticated, map[string]string{"provider": "google", "user_id": "u1"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "audit" {
		t.Fatalf("logger name = %q", e.LoggerName)
	}
	fields := e.ContextMap()
	if fields["event"] != EventAuthenticated || fields["provider"] != "google" || fields["user_id"] != "u1" {
		t.Fatalf("fields = %v", fields)
	}
}
