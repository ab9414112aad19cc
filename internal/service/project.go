package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/todo-app-pro/internal/models"
	"github.com/atinyakov/todo-app-pro/internal/repository"
)

// ProjectRepository defines project persistence.
type ProjectRepository interface {
	// ListByOwner returns the owner's projects, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	// OwnedBy reports whether the project exists and belongs to ownerID.
	OwnedBy(ctx context.Context, id, ownerID string) (bool, error)
}

// TodoRepository defines todo persistence.
type TodoRepository interface {
	// ListByProject returns todos ordered by priority ascending, then newest first.
	ListByProject(ctx context.Context, projectID string) ([]models.Todo, error)
	Create(ctx context.Context, t *models.Todo) error
	// OwnedBy reports whether the todo's project belongs to ownerID.
	OwnedBy(ctx context.Context, id, ownerID string) (bool, error)
	// Update returns repository.ErrNotFound if the todo vanished.
	Update(ctx context.Context, id string, u models.TodoUpdate) (*models.Todo, error)
	// Delete returns repository.ErrNotFound if nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// ProjectService gives a user access to their own projects and the todos in them.
// Every method takes the authenticated user id and never reaches data owned by
// anyone else.
type ProjectService struct {
	projects ProjectRepository
	todos    TodoRepository
	now      func() time.Time
}

// NewProjectService constructs a ProjectService.
func NewProjectService(projects ProjectRepository, todos TodoRepository) *ProjectService {
	return &ProjectService{projects: projects, todos: todos, now: time.Now}
}

// ListProjects returns the caller's projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return s.projects.ListByOwner(ctx, userID)
}

// CreateProject stores a new project owned by userID. Names need not be unique.
func (s *ProjectService) CreateProject(ctx context.Context, userID, name string) (*models.Project, error) {
	now := s.now().UTC()
	p := &models.Project{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListTodos returns the todos of a project owned by userID.
func (s *ProjectService) ListTodos(ctx context.Context, userID, projectID string) ([]models.Todo, error) {
	if err := s.ensureProjectOwned(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.todos.ListByProject(ctx, projectID)
}

// CreateTodo adds a todo to a project owned by userID. Priority defaults to
// models.DefaultPriority and status to OPEN.
func (s *ProjectService) CreateTodo(ctx context.Context, userID, projectID string, in models.NewTodo) (*models.Todo, error) {
	if err := s.ensureProjectOwned(ctx, userID, projectID); err != nil {
		return nil, err
	}

	priority := models.DefaultPriority
	if in.Priority != nil {
		priority = *in.Priority
	}
	now := s.now().UTC()
	t := &models.Todo{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusOpen,
		Priority:    priority,
		ProjectID:   projectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.todos.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTodo applies patch to a todo reachable through a project owned by userID.
// Setting status to DONE stamps completedAt, any other status clears it, and
// omitting status leaves it alone. A description is cleared only when
// patch.SetDescription is true and patch.Description is nil.
func (s *ProjectService) UpdateTodo(ctx context.Context, userID, todoID string, patch models.TodoPatch) (*models.Todo, error) {
	if err := s.ensureTodoOwned(ctx, userID, todoID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	upd := models.TodoUpdate{TodoPatch: patch, UpdatedAt: now}
	if patch.Description != nil {
		upd.SetDescription = true
	}
	if patch.Status != nil {
		upd.SetCompletedAt = true
		if *patch.Status == models.StatusDone {
			upd.CompletedAt = &now
		}
	}

	t, err := s.todos.Update(ctx, todoID, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	return t, err
}

// DeleteTodo removes a todo reachable through a project owned by userID.
func (s *ProjectService) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if err := s.ensureTodoOwned(ctx, userID, todoID); err != nil {
		return err
	}
	err := s.todos.Delete(ctx, todoID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}

func (s *ProjectService) ensureProjectOwned(ctx context.Context, userID, projectID string) error {
	ok, err := s.projects.OwnedBy(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProjectNotFound
	}
	return nil
}

// ensureTodoOwned follows the ownership chain todo -> project -> owner.
func (s *ProjectService) ensureTodoOwned(ctx context.Context, userID, todoID string) error {
	ok, err := s.todos.OwnedBy(ctx, todoID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTodoNotFound
	}
	return nil
}
