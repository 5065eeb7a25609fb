package account

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/socialauth/internal/audit"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// AuthenticationMethodsKey es la key de sesión con los métodos usados.
const AuthenticationMethodsKey = "account_authentication_methods"

// AuthRecord es un método de autenticación usado en la sesión.
type AuthRecord struct {
	Method string            `json:"method"`
	At     int64             `json:"at"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// AuthRecorder implementa social.AuthRecorder.
type AuthRecorder struct {
	now func() time.Time
}

func NewAuthRecorder(now func() time.Time) *AuthRecorder {
	if now == nil {
		now = time.Now
	}
	return &AuthRecorder{now: now}
}

func (r *AuthRecorder) RecordAuthentication(ctx context.Context, sess social.Session, method string, attrs map[string]string) {
	records := AuthenticationMethods(sess)
	records = append(records, AuthRecord{Method: method, At: r.now().Unix(), Attrs: attrs})
	if raw, err := json.Marshal(records); err == nil {
		sess.Set(AuthenticationMethodsKey, raw)
	} else {
		logger.From(ctx).Warn("auth record not stored", logger.Component("account.recorder"), logger.Err(err))
	}

	fields := map[string]string{"method": method}
	for k, v := range attrs {
		fields[k] = v
	}
	audit.Log(ctx, audit.EventAuthenticated, fields)
}

// AuthenticationMethods lee los métodos registrados en la sesión.
func AuthenticationMethods(sess social.Session) []AuthRecord {
	raw, ok := sess.Get(AuthenticationMethodsKey)
	if !ok {
		return nil
	}
	var records []AuthRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	return records
}

// AuditListener deja registro de altas y bajas de conexiones sociales.
func AuditListener() social.Listener {
	return func(ctx context.Context, ev social.Event) {
		var event string
		switch ev.Name {
		case social.EventSocialAccountAdded:
			event = audit.EventAccountConnected
		case social.EventSocialAccountRemoved:
			event = audit.EventAccountRemoved
		default:
			return
		}
		attrs := map[string]string{"user_id": ev.UserID}
		if ev.Account != nil {
			attrs["provider"] = ev.Account.Provider
			attrs["uid"] = ev.Account.UID
		}
		audit.Log(ctx, event, attrs)
	}
}
