// Package session implementa la sesión de navegador server-side.
//
// El token viaja en cookie (browser) o en el header X-Session-Token (apps);
// en cache se guarda bajo "sess:" + sha256(token), nunca en claro.
package session

import (
	"encoding/json"
	"time"
)

// Session es el scope key/value de un navegador. No es thread-safe:
// pertenece a un único request.
type Session struct {
	token     string
	userID    string
	values    map[string]json.RawMessage
	createdAt time.Time

	isNew     bool
	dirty     bool
	destroyed bool
	// previous token a borrar del cache tras rotar
	rotatedFrom string
}

type record struct {
	UserID    string                     `json:"uid,omitempty"`
	Values    map[string]json.RawMessage `json:"values,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

// Token retorna el token opaco actual.
func (s *Session) Token() string { return s.token }

// Destroyed indica que la sesión se borra al final del request.
func (s *Session) Destroyed() bool { return s.destroyed }

// IsNew indica que la sesión no existía en el cache.
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) Get(key string) (json.RawMessage, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key string, value json.RawMessage) {
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	s.values[key] = value
	s.dirty = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// GetJSON decodifica el valor de key en dst.
func (s *Session) GetJSON(key string, dst any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

// SetJSON codifica v y lo guarda en key.
func (s *Session) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Set(key, raw)
	return nil
}

func (s *Session) UserID() string { return s.userID }

// SetUserID liga la sesión a un usuario. Cambiar de usuario rota el token
// (fijación de sesión); "" hace logout y descarta los valores.
func (s *Session) SetUserID(userID string) {
	if userID == s.userID {
		return
	}
	if userID == "" {
		s.values = nil
	}
	s.userID = userID
	s.dirty = true
	s.rotate()
}

// Destroy marca la sesión para borrado al final del request.
func (s *Session) Destroy() {
	s.destroyed = true
	s.userID = ""
	s.values = nil
	s.dirty = true
}

func (s *Session) rotate() {
	if s.isNew {
		return
	}
	if s.rotatedFrom == "" {
		s.rotatedFrom = s.token
	}
	s.token = ""
}
