// Package models defines the core data structures for users, projects and todos.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the normalized (trimmed, lower-cased) login of the user.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// Name is the optional display name.
	Name *string `json:"name"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"createdAt"`
}

// Project groups todos and belongs to exactly one user.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TodoStatus is the workflow state of a todo.
type TodoStatus string

const (
	// StatusOpen is the initial state of every todo.
	StatusOpen TodoStatus = "OPEN"
	// StatusInProgress marks a todo someone is working on.
	StatusInProgress TodoStatus = "IN_PROGRESS"
	// StatusDone marks a finished todo; it stamps CompletedAt.
	StatusDone TodoStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s TodoStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// DefaultPriority is applied to todos created without an explicit priority.
const DefaultPriority = 2

// Todo is a task inside a project. Lower Priority values sort first.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TodoStatus `json:"status"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	ProjectID   string     `json:"projectId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTodo carries the caller-supplied fields of a todo being created.
type NewTodo struct {
	Title       string
	Description *string
	Priority    *int
}

// TodoPatch is a partial update. Nil fields are left untouched, except
// Description when SetDescription is true: a nil Description then clears it.
type TodoPatch struct {
	Title          *string
	Description    *string
	SetDescription bool
	Status         *TodoStatus
	Priority       *int
	DueDate        *time.Time
}

// TodoUpdate is a TodoPatch resolved against the completion rule and ready
// to be written by the store.
type TodoUpdate struct {
	TodoPatch
	// SetCompletedAt is true when CompletedAt must be written (including nil).
	SetCompletedAt bool
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}
