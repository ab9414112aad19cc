// Package http provides the REST handlers, routing and middleware wiring
// of the todo API.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a user and returns it with a session token.
	Register(ctx context.Context, email, password string, name *string) (*service.AuthResult, error)
	// Login authenticates a user and returns it with a session token.
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log records unexpected failures.
	Log *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=200"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// Register handles POST /auth/register.
// A taken email answers 400 "Email already in use".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req, func() { req.Email = strings.TrimSpace(req.Email) }) {
		return
	}

	res, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, service.ErrDuplicateEmail) {
		writeError(w, http.StatusBadRequest, "Email already in use")
		return
	}
	if err != nil {
		writeInternal(w, h.Log, r, err)
		return
	}

	createdAt := res.User.CreatedAt
	writeJSON(w, http.StatusCreated, authResponse{
		User: userResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Name:      res.User.Name,
			CreatedAt: &createdAt,
		},
		AccessToken: res.AccessToken,
	})
}

// Login handles POST /auth/login.
// Unknown emails and wrong passwords both answer 401 "Invalid credentials".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req, nil) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeInternal(w, h.Log, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User: userResponse{
			ID:    res.User.ID,
			Email: res.User.Email,
			Name:  res.User.Name,
		},
		AccessToken: res.AccessToken,
	})
}
