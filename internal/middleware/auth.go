package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/writeflow/backend/internal/auth"
	"github.com/writeflow/backend/internal/models"
)

type contextKey string

const ctxCallerKey contextKey = "caller"

// TokenValidator is the part of auth.Service the middleware uses.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (auth.Caller, error)
}

// Authenticate validates the Bearer token and stores the caller in the
// request context.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			caller, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireRole lets the request through only for the listed roles. It must run
// after Authenticate.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromCtx(r.Context())
			if !ok {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, caller.Role) {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerFromCtx returns the authenticated caller.
func CallerFromCtx(ctx context.Context) (auth.Caller, bool) {
	c, ok := ctx.Value(ctxCallerKey).(auth.Caller)
	return c, ok
}

// WithCaller returns a context carrying the given caller.
func WithCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, ctxCallerKey, c)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
