package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/todo-app-pro/internal/models"
)

// PostgresProjectRepository stores projects in PostgreSQL.
type PostgresProjectRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresProjectRepository creates a PostgresProjectRepository using the provided *sql.DB.
func NewPostgresProjectRepository(db *sql.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{DB: db}
}

// ListByOwner returns every project owned by ownerID, newest first.
func (r *PostgresProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	return projects, nil
}

// Create inserts p.
func (r *PostgresProjectRepository) Create(ctx context.Context, p *models.Project) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.OwnerID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateProject: %w", err)
	}
	return nil
}

// OwnedBy reports whether project id exists and belongs to ownerID.
func (r *PostgresProjectRepository) OwnedBy(ctx context.Context, id, ownerID string) (bool, error) {
	var found string
	err := r.DB.QueryRowContext(ctx, `
		SELECT id FROM projects WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ProjectOwnedBy: %w", err)
	}
	return true, nil
}
