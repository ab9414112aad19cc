// Package repository provides PostgreSQL persistence for users, projects and todos.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/todo-app-pro/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

// PostgresAuthRepository implements credential storage using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified email exists in the database.
func (r *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts u. A concurrent registration of the same email surfaces
// as ErrDuplicate.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, string(u.PasswordHash), u.Name, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByEmail fetches the user with the given normalized email.
// It returns ErrNotFound if there is none.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u    models.User
		hash string
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password, name, created_at FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &hash, &name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	u.PasswordHash = []byte(hash)
	if name.Valid {
		u.Name = &name.String
	}
	return &u, nil
}
