package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/todo-app-pro/internal/middleware"
	"github.com/atinyakov/todo-app-pro/internal/models"
	"github.com/atinyakov/todo-app-pro/internal/service"
)

// ProjectService defines the ownership-scoped operations required by the
// ProjectHandler. Every call receives the authenticated user ID.
type ProjectService interface {
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	CreateProject(ctx context.Context, userID, name string) (*models.Project, error)
	ListTodos(ctx context.Context, userID, projectID string) ([]models.Todo, error)
	CreateTodo(ctx context.Context, userID, projectID string, in models.NewTodo) (*models.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID string, patch models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
}

// ProjectHandler serves the project and todo endpoints. Missing or foreign
// projects and todos are reported in the body ({"message": "... not found"})
// with a success status; clients rely on that payload shape.
type ProjectHandler struct {
	ProjectService ProjectService
	Log            *zap.Logger
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateTodoRequest is the body of POST /projects/{projectId}/todos.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
}

// UpdateTodoRequest is the body of PATCH /todos/{id}. Absent fields are left
// unchanged; "description": null clears the description.
type UpdateTodoRequest struct {
	Title       *string        `json:"title"`
	Description nullableString `json:"description"`
	Status      *string        `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE"`
	Priority    *int           `json:"priority"`
	DueDate     *string        `json:"dueDate"`
}

// nullableString tells an absent JSON field from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the field is present, null included.
func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// ListProjects handles GET /projects.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	projects, err := h.ProjectService.ListProjects(r.Context(), userID)
	if err != nil {
		writeInternal(w, h.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /projects.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req CreateProjectRequest
	if !decode(w, r, &req, nil) {
		return
	}

	project, err := h.ProjectService.CreateProject(r.Context(), userID, req.Name)
	if err != nil {
		writeInternal(w, h.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// ListTodos handles GET /projects/{projectId}/todos.
func (h *ProjectHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "projectId")

	todos, err := h.ProjectService.ListTodos(r.Context(), userID, projectID)
	if h.softFail(w, r, http.StatusOK, err) {
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// CreateTodo handles POST /projects/{projectId}/todos.
func (h *ProjectHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "projectId")

	var req CreateTodoRequest
	if !decode(w, r, &req, nil) {
		return
	}

	todo, err := h.ProjectService.CreateTodo(r.Context(), userID, projectID, models.NewTodo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if h.softFail(w, r, http.StatusCreated, err) {
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// UpdateTodo handles PATCH /todos/{id}.
func (h *ProjectHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	var req UpdateTodoRequest
	if !decode(w, r, &req, nil) {
		return
	}

	patch := models.TodoPatch{
		Title:          req.Title,
		Description:    req.Description.Value,
		SetDescription: req.Description.Set,
		Priority:       req.Priority,
	}
	if req.Status != nil {
		status := models.TodoStatus(*req.Status)
		patch.Status = &status
	}
	// an empty dueDate is ignored, like an absent one
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dueDate")
			return
		}
		patch.DueDate = &due
	}

	todo, err := h.ProjectService.UpdateTodo(r.Context(), userID, todoID, patch)
	if h.softFail(w, r, http.StatusOK, err) {
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE /todos/{id}.
func (h *ProjectHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	err := h.ProjectService.DeleteTodo(r.Context(), userID, todoID)
	if h.softFail(w, r, http.StatusOK, err) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// softFail writes the response for a non-nil err and reports whether it did.
// Ownership misses become an in-body message sent with status.
func (h *ProjectHandler) softFail(w http.ResponseWriter, r *http.Request, status int, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrProjectNotFound):
		writeJSON(w, status, messageBody{Message: "Project not found"})
	case errors.Is(err, service.ErrTodoNotFound):
		writeJSON(w, status, messageBody{Message: "Todo not found"})
	default:
		writeInternal(w, h.Log, r, err)
	}
	return true
}

// parseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
