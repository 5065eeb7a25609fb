package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Field es el campo estructurado de zap; alias para no importar zap en cada capa.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field         { return zap.String("request_id", v) }
func Method(v string) zap.Field            { return zap.String("method", v) }
func Path(v string) zap.Field              { return zap.String("path", v) }
func Status(v int) zap.Field               { return zap.Int("status", v) }
func Bytes(v int) zap.Field                { return zap.Int("bytes", v) }
func DurationMs(v time.Duration) zap.Field { return zap.Int64("duration_ms", v.Milliseconds()) }

// ─── Social login ───

// Provider identifica el provider/config externo (google, github, ...).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// UID es el identificador del usuario dentro del provider.
func UID(v string) zap.Field { return zap.String("uid", v) }

// Process es la disposición pedida por el caller (login, connect, redirect).
func Process(v string) zap.Field { return zap.String("process", v) }

// Outcome es el resultado terminal de un flujo.
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// EmailMasked loguea solo los dos primeros caracteres y el dominio.
func EmailMasked(v string) zap.Field { return zap.String("email_masked", MaskEmail(v)) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }

// MaskEmail: "john@acme.io" -> "jo***@acme.io".
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	switch {
	case len(email) < 3:
		return "***"
	case at < 2:
		return email[:2] + "***"
	default:
		return email[:2] + "***" + email[at:]
	}
}

// MaskToken deja visibles solo los primeros 6 caracteres.
func MaskToken(v string) string {
	if len(v) <= 6 {
		return "***"
	}
	return v[:6] + "***"
}
