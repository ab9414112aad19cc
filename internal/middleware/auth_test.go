package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/service"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func newAuth(t *testing.T) (*service.TokenManager, http.Handler, *dummyHandler) {
	t.Helper()
	tokens := service.NewTokenManager("test-secret", time.Minute)
	dummy := &dummyHandler{}
	return tokens, JWTAuth(tokens, zap.NewNop())(dummy), dummy
}

func TestJWTAuth_ValidToken(t *testing.T) {
	tokens, h, dummy := newAuth(t)
	raw, err := tokens.Issue("alice-id", "alice@x.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)

	require.True(t, dummy.called, "next handler not called for a valid token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice-id", GetUserIDFromContext(dummy.ctx))
}

func TestJWTAuth_Rejects(t *testing.T) {
	other := service.NewTokenManager("other-secret", time.Minute)
	foreign, _ := other.Issue("mallory", "m@x.com")

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic dXNlcjpwYXNz",
		"empty bearer":    "Bearer ",
		"garbage token":   "Bearer abc.def.ghi",
		"foreign secret":  "Bearer " + foreign,
		"no space scheme": "Bearer" + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, h, dummy := newAuth(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/projects", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			h.ServeHTTP(rec, req)

			assert.False(t, dummy.called, "next handler called")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"statusCode":401`)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	assert.Empty(t, GetUserIDFromContext(context.Background()))

	ctx := WithUserID(context.Background(), "bob")
	assert.Equal(t, "bob", GetUserIDFromContext(ctx))
}
