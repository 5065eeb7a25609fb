package session

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/cache"
)

func newManager() (*Manager, cache.Client) {
	c := cache.NewMemory("")
	return NewManager(c, Config{TTL: time.Hour}), c
}

func TestLoad_UnknownTokenGivesNewSession(t *testing.T) {
	m, _ := newManager()
	s, err := m.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.Empty(t, s.Token())
}

func TestSave_OnlyWhenDirty(t *testing.T) {
	ctx := context.Background()
	m, c := newManager()

	s, _ := m.Load(ctx, "")
	require.NoError(t, m.Save(ctx, s))
	assert.Empty(t, s.Token(), "untouched sessions are not persisted")

	s.Set("k", []byte(`"v"`))
	require.NoError(t, m.Save(ctx, s))
	require.NotEmpty(t, s.Token())

	ok, _ := c.Exists(ctx, cacheKey(s.Token()))
	assert.True(t, ok)

	again, err := m.Load(ctx, s.Token())
	require.NoError(t, err)
	raw, ok := again.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `"v"`, string(raw))
}

func TestSetUserID_RotatesToken(t *testing.T) {
	ctx := context.Background()
	m, c := newManager()

	s, _ := m.Load(ctx, "")
	require.NoError(t, s.SetJSON("pending", map[string]string{"a": "b"}))
	require.NoError(t, m.Save(ctx, s))
	anon := s.Token()

	s, _ = m.Load(ctx, anon)
	s.SetUserID("user-1")
	require.NoError(t, m.Save(ctx, s))

	assert.NotEqual(t, anon, s.Token())
	old, _ := c.Exists(ctx, cacheKey(anon))
	assert.False(t, old, "previous token must be invalidated")

	loaded, err := m.Load(ctx, s.Token())
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.UserID())
	var pending map[string]string
	found, err := loaded.GetJSON("pending", &pending)
	require.NoError(t, err)
	assert.True(t, found, "values survive login")
}

func TestLogout_DropsValues(t *testing.T) {
	s := &Session{userID: "u", values: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}
	s.SetUserID("")
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Empty(t, s.UserID())
}

func TestDestroy_DeletesFromCache(t *testing.T) {
	ctx := context.Background()
	m, c := newManager()

	s, _ := m.Load(ctx, "")
	s.SetUserID("u")
	require.NoError(t, m.Save(ctx, s))
	tok := s.Token()

	s.Destroy()
	require.NoError(t, m.Save(ctx, s))
	ok, _ := c.Exists(ctx, cacheKey(tok))
	assert.False(t, ok)
}

func TestTokenFromRequest_HeaderWins(t *testing.T) {
	m, _ := newManager()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(m.Cookie(&Session{token: "cookie-token"}))
	tok, fromHeader := m.TokenFromRequest(r)
	assert.Equal(t, "cookie-token", tok)
	assert.False(t, fromHeader)

	r.Header.Set(HeaderName, "app-token")
	tok, fromHeader = m.TokenFromRequest(r)
	assert.Equal(t, "app-token", tok)
	assert.True(t, fromHeader)
}
