package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromError_UnwrapsAppError(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrSignupClosed)
	if got := FromError(wrapped); got != ErrSignupClosed {
		t.Fatalf("FromError = %v, want ErrSignupClosed", got)
	}
	plain := stderrors.New("boom")
	got := FromError(plain)
	if got.HTTPStatus != http.StatusInternalServerError || !stderrors.Is(got, plain) {
		t.Fatalf("FromError(plain) = %+v", got)
	}
}

func TestWithFields_CopiesBase(t *testing.T) {
	e := ErrValidation.WithFields(FieldError{Param: "username", Code: "username_taken"})
	if len(ErrValidation.Fields) != 0 {
		t.Fatalf("base error mutated")
	}
	if len(e.Fields) != 1 {
		t.Fatalf("fields = %v", e.Fields)
	}
}

func TestWriteError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rec, req, ErrValidation.
		WithFields(FieldError{Param: "token", Code: "invalid_token", Message: "Invalid token."}).
		WithCause(stderrors.New("secret")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Fatalf("code = %v", body["code"])
	}
	fields, _ := body["fields"].([]any)
	if len(fields) != 1 {
		t.Fatalf("fields = %v", body["fields"])
	}
	if _, leaked := body["Err"]; leaked {
		t.Fatalf("cause leaked to client")
	}
}
