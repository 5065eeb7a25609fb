package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	t.Run("ok ignores unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","other":1}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var b body
		if !ReadJSON(rec, req, &b) || b.Name != "x" {
			t.Fatalf("ReadJSON failed: %d %+v", rec.Code, b)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		var b body
		if ReadJSON(rec, req, &b) || rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := httptest.NewRecorder()
		var b body
		if ReadJSON(rec, req, &b) || rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var b body
		if ReadJSON(rec, req, &b) || rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("want 413, got %d", rec.Code)
		}
	})
}
