// Package middleware provides HTTP middlewares for authentication, logging
// and the cross-origin, rate limiting and security header policies.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/service"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(raw string) (*service.Claims, error)
}

// JWTAuth is a middleware that requires a valid bearer token.
//
// The token is read from the Authorization header ("Bearer <token>"). A
// missing, malformed, badly signed or expired token ends the request with
// 401. On success the token subject is stored in the request context as
// the authenticated user ID.
func JWTAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := verifier.Verify(raw)
			if err != nil {
				log.Debug("rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    "Unauthorized",
	})
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a copy of ctx carrying userID as the authenticated user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}
