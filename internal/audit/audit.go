// Package audit registra eventos de seguridad como logs estructurados
// (logger "audit", un evento por línea).
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// Eventos auditados.
const (
	EventAuthenticated      = "authenticated"
	EventSignedUp           = "signed_up"
	EventAccountConnected   = "social_account_connected"
	EventAccountRemoved     = "social_account_removed"
	EventEmailConfirmed     = "email_confirmed"
	EventPasswordSet        = "password_set"
	EventEnumerationBlocked = "signup_enumeration_blocked"
	EventLoggedOut          = "logged_out"
)

// Log escribe un evento de auditoría con sus atributos.
func Log(ctx context.Context, event string, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logger.Field, 0, len(keys)+2)
	fields = append(fields,
		logger.String("event", event),
		logger.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
	)
	for _, k := range keys {
		fields = append(fields, logger.String(k, attrs[k]))
	}
	logger.From(ctx).Named("audit").Info("audit", fields...)
}
