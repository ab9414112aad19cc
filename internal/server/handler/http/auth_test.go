package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/models"
	"github.com/atinyakov/todo-app-pro/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	result   *service.AuthResult
	err      error
	gotEmail string
	gotName  *string
}

func (f *fakeAuthService) Register(_ context.Context, email, _ string, name *string) (*service.AuthResult, error) {
	f.gotEmail, f.gotName = email, name
	return f.result, f.err
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (*service.AuthResult, error) {
	f.gotEmail = email
	return f.result, f.err
}

func okResult() *service.AuthResult {
	name := "Ann"
	return &service.AuthResult{
		User: models.User{
			ID: "u1", Email: "a@x.com", Name: &name,
			PasswordHash: []byte("never-leaked"),
			CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		AccessToken: "tok",
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		service        *fakeAuthService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "missing email",
			body:           `{"password":"pw"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid email",
		},
		{
			name:           "not an email",
			body:           `{"email":"nope","password":"pw"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid email",
		},
		{
			name:           "missing password",
			body:           `{"email":"a@x.com"}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid password",
		},
		{
			name:           "duplicate email",
			body:           `{"email":"a@x.com","password":"pw"}`,
			service:        &fakeAuthService{err: service.ErrDuplicateEmail},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "Email already in use",
		},
		{
			name:           "service failure",
			body:           `{"email":"a@x.com","password":"pw"}`,
			service:        &fakeAuthService{err: errors.New("db error")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "Internal server error",
		},
		{
			name:           "success",
			body:           `{"email":" a@x.com ","password":"pw","name":"Ann"}`,
			service:        &fakeAuthService{result: okResult()},
			expectedCode:   http.StatusCreated,
			expectedSubstr: `"accessToken":"tok"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service, Log: zap.NewNop()}
			h.Register(rec, req)

			require.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedSubstr)
			assert.NotContains(t, rec.Body.String(), "never-leaked", "password hash leaked")
		})
	}
}

func TestAuthHandler_RegisterResponseShape(t *testing.T) {
	svc := &fakeAuthService{result: okResult()}
	h := &AuthHandler{AuthService: svc, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/auth/register",
		bytes.NewBufferString(`{"email":"  a@x.com","password":"pw","name":"Ann"}`)))

	assert.Equal(t, "a@x.com", svc.gotEmail, "email is trimmed before the service")
	require.NotNil(t, svc.gotName)
	assert.Equal(t, "Ann", *svc.gotName)

	var payload struct {
		User struct {
			ID        string  `json:"id"`
			Email     string  `json:"email"`
			Name      *string `json:"name"`
			CreatedAt string  `json:"createdAt"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "u1", payload.User.ID)
	assert.Equal(t, "a@x.com", payload.User.Email)
	assert.NotEmpty(t, payload.User.CreatedAt)
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{"invalid JSON", `{`, &fakeAuthService{}, http.StatusBadRequest},
		{"missing password", `{"email":"a@x.com"}`, &fakeAuthService{}, http.StatusBadRequest},
		{"bad credentials", `{"email":"a@x.com","password":"x"}`, &fakeAuthService{err: service.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"service failure", `{"email":"a@x.com","password":"x"}`, &fakeAuthService{err: errors.New("boom")}, http.StatusInternalServerError},
		{"success", `{"email":"a@x.com","password":"pw"}`, &fakeAuthService{result: okResult()}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(tt.body))

			h := &AuthHandler{AuthService: tt.service, Log: zap.NewNop()}
			h.Login(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestAuthHandler_LoginFailuresLookAlike(t *testing.T) {
	h := &AuthHandler{AuthService: &fakeAuthService{err: service.ErrInvalidCredentials}, Log: zap.NewNop()}

	unknown := httptest.NewRecorder()
	h.Login(unknown, httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"email":"nobody@x.com","password":"pw"}`)))
	wrong := httptest.NewRecorder()
	h.Login(wrong, httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"email":"a@x.com","password":"bad"}`)))

	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, `{"statusCode":401,"message":"Invalid credentials","error":"Unauthorized"}`+"\n", unknown.Body.String())
}
