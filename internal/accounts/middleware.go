package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey struct{}

var userIDKey contextKey

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" outside an
// authenticated request.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireAuth wraps a handler with Bearer token verification, scoping the
// request to the token's user.
func RequireAuth(maker *TokenMaker, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w)
			return
		}

		userID, err := maker.Verify(token)
		if err != nil {
			unauthorized(w)
			return
		}

		next(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
