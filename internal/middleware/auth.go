package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/deepfraud/deepfraud/internal/domain/session"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionValidator reports whether a bearer token belongs to an active
// operator session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*session.Session, error)
}

// SessionAuth gates protected routes on a valid bearer token.
func SessionAuth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				// SSE consumers (EventSource) cannot set headers; allow the
				// token via query parameter for stream endpoints.
				auth = r.URL.Query().Get("token")
			}
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			sess, err := validator.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session, if any.
func SessionFromContext(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(SessionKey).(*session.Session); ok {
		return s
	}
	return nil
}
