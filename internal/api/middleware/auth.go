package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ayo6706/merchant-gateway/internal/api/problem"
	"github.com/ayo6706/merchant-gateway/internal/session"
	"go.uber.org/zap"
)

type contextKey string

const traceContextKey contextKey = "trace_id"

// SessionAuthenticator resolves a bearer token to a live session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware validates the session token and places the session in the
// request context.
func AuthMiddleware(auth SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/authorization-header-required"), http.StatusText(http.StatusUnauthorized), "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-format"), http.StatusText(http.StatusUnauthorized), "Invalid token format")
				return
			}

			sess, err := auth.Authenticate(r.Context(), tokenString)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrInvalidToken):
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token"), http.StatusText(http.StatusUnauthorized), "Invalid token")
				return
			case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/session-expired"), http.StatusText(http.StatusUnauthorized), "Session expired. Please log in again.")
				return
			default:
				zap.L().Error("session lookup failed", zap.Error(err), zap.String("trace_id", TraceIDFromContext(r.Context())))
				problem.Write(w, r, http.StatusServiceUnavailable, problem.Type("auth/session-store-unavailable"), http.StatusText(http.StatusServiceUnavailable), "session store unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// SessionIDFromContext returns the authenticated session id.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := session.FromContext(ctx); ok {
		return s.ID
	}
	return ""
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
