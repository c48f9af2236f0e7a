package accounts

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuth(t *testing.T) {
	maker := NewTokenMaker("test-secret", time.Hour)

	next := func(got *string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			*got = UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}
	}

	t.Run("passes user id through on a valid token", func(t *testing.T) {
		token, err := maker.Issue("user-7")
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		var got string
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		RequireAuth(maker, next(&got))(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got != "user-7" {
			t.Errorf("expected user-7 in context, got %q", got)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		rec := httptest.NewRecorder()

		RequireAuth(maker, next(&got))(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
		if got != "" {
			t.Errorf("handler should not have been called, got user %q", got)
		}
	})

	t.Run("rejects non-bearer scheme", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		RequireAuth(maker, next(&got))(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		token, err := maker.Issue("user-7")
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		var got string
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()

		RequireAuth(maker, next(&got))(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := UserIDFromContext(req.Context()); id != "" {
		t.Errorf("expected empty user id, got %q", id)
	}
}
