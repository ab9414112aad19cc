package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/todo-app-pro/internal/models"
)

const todoColumns = `id, title, description, status, priority, due_date, completed_at, project_id, created_at, updated_at`

// PostgresTodoRepository stores todos in PostgreSQL. Todos carry no owner
// column; ownership is resolved through their project.
type PostgresTodoRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTodoRepository creates a PostgresTodoRepository using the provided *sql.DB.
func NewPostgresTodoRepository(db *sql.DB) *PostgresTodoRepository {
	return &PostgresTodoRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (models.Todo, error) {
	var (
		t         models.Todo
		desc      sql.NullString
		due, done sql.NullTime
		status    string
	)
	err := row.Scan(&t.ID, &t.Title, &desc, &status, &t.Priority, &due, &done, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Status = models.TodoStatus(status)
	if desc.Valid {
		t.Description = &desc.String
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	if done.Valid {
		t.CompletedAt = &done.Time
	}
	return t, nil
}

// ListByProject returns the todos of projectID ordered by priority ascending,
// then by creation time descending.
func (r *PostgresTodoRepository) ListByProject(ctx context.Context, projectID string) ([]models.Todo, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE project_id = $1
		ORDER BY priority ASC, created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListByProject: %w", err)
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByProject: %w", err)
	}
	return todos, nil
}

// Create inserts t.
func (r *PostgresTodoRepository) Create(ctx context.Context, t *models.Todo) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO todos (`+todoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Title, t.Description, string(t.Status), t.Priority, t.DueDate, t.CompletedAt, t.ProjectID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateTodo: %w", err)
	}
	return nil
}

// OwnedBy reports whether todo id exists and its project belongs to ownerID.
func (r *PostgresTodoRepository) OwnedBy(ctx context.Context, id, ownerID string) (bool, error) {
	var found string
	err := r.DB.QueryRowContext(ctx, `
		SELECT t.id FROM todos t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = $1 AND p.owner_id = $2
	`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("TodoOwnedBy: %w", err)
	}
	return true, nil
}

// Update applies u to todo id and returns the stored result. Nil patch fields
// keep their current column value; description and completed_at are written
// only when u.SetDescription and u.SetCompletedAt are true.
func (r *PostgresTodoRepository) Update(ctx context.Context, id string, u models.TodoUpdate) (*models.Todo, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}
	row := r.DB.QueryRowContext(ctx, `
		UPDATE todos SET
			title = COALESCE($2::text, title),
			description = CASE WHEN $3::boolean THEN $4::text ELSE description END,
			status = COALESCE($5::text, status),
			priority = COALESCE($6::integer, priority),
			due_date = COALESCE($7::timestamptz, due_date),
			completed_at = CASE WHEN $8::boolean THEN $9::timestamptz ELSE completed_at END,
			updated_at = $10
		WHERE id = $1
		RETURNING `+todoColumns,
		id, u.Title, u.SetDescription, u.Description, status, u.Priority, u.DueDate,
		u.SetCompletedAt, u.CompletedAt, u.UpdatedAt,
	)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateTodo: %w", err)
	}
	return &t, nil
}

// Delete removes todo id. It returns ErrNotFound if no row was deleted.
func (r *PostgresTodoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteTodo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTodo: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
