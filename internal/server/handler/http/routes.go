package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/middleware"
)

// ServiceName is reported by the root banner.
const ServiceName = "todo-app-pro API"

// Policy holds the cross-origin and rate limiting settings of the router.
type Policy struct {
	AllowedOrigins       []string
	AllowedOriginPattern string
	AuthRateLimit        int
	AuthRateWindow       time.Duration
}

// NewRouter constructs and returns an HTTP handler that serves the todo API.
//
// Routes:
//
//	GET    /                          → banner
//	GET    /health                    → liveness
//	POST   /auth/register             → authHandler.Register (rate-limited)
//	POST   /auth/login                → authHandler.Login (rate-limited)
//	GET    /projects                  → projectHandler.ListProjects
//	POST   /projects                  → projectHandler.CreateProject
//	GET    /projects/{projectId}/todos → projectHandler.ListTodos
//	POST   /projects/{projectId}/todos → projectHandler.CreateTodo
//	PATCH  /todos/{id}                → projectHandler.UpdateTodo
//	DELETE /todos/{id}                → projectHandler.DeleteTodo
//
// Everything under /projects and /todos requires a valid bearer token.
//
// Middleware chain (applied in order):
//  1. RequestID, WithRequestLogging, Recoverer
//  2. SecurityHeaders on every response
//  3. CORS allow-list plus origin pattern
//  4. AllowContentType("application/json") for requests with a body
func NewRouter(
	authHandler *AuthHandler,
	projectHandler *ProjectHandler,
	verifier middleware.TokenVerifier,
	policy Policy,
	logger *zap.Logger,
) (http.Handler, error) {
	cors, err := middleware.CORS(policy.AllowedOrigins, policy.AllowedOriginPattern)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(cors)
	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": ServiceName})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Public endpoints, throttled per client
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AuthRateLimit(policy.AuthRateLimit, policy.AuthRateWindow))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Protected group: requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(verifier, logger))

		r.Get("/projects", projectHandler.ListProjects)
		r.Post("/projects", projectHandler.CreateProject)
		r.Get("/projects/{projectId}/todos", projectHandler.ListTodos)
		r.Post("/projects/{projectId}/todos", projectHandler.CreateTodo)
		r.Patch("/todos/{id}", projectHandler.UpdateTodo)
		r.Delete("/todos/{id}", projectHandler.DeleteTodo)
	})

	return r, nil
}
