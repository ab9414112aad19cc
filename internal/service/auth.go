// Package service provides the business logic for authentication and
// ownership-scoped project and todo access, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/todo-app-pro/internal/models"
	"github.com/atinyakov/todo-app-pro/internal/repository"
)

// BCryptCost is the work factor used for password hashes.
const BCryptCost = 12

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new user. It returns repository.ErrDuplicate if the
	// email is already taken.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail returns repository.ErrNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// AuthResult is what a successful register or login hands back.
type AuthResult struct {
	User        models.User
	AccessToken string
}

// AuthService implements registration and login.
type AuthService struct {
	repo    AuthRepository
	tokens  TokenIssuer
	cost    int
	now     func() time.Time
	compare func(hash, password []byte) error

	decoyOnce sync.Once
	decoy     []byte
}

// NewAuthService constructs an AuthService using the provided repository and token issuer.
func NewAuthService(repo AuthRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		repo:    repo,
		tokens:  tokens,
		cost:    BCryptCost,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns it together with a fresh token.
// It returns ErrDuplicateEmail if the normalized email is already registered.
func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         normalizeName(name),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return s.issue(user)
}

// Login checks the credentials and returns the user with a fresh token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// unknown emails pay for a hash comparison too
		_ = s.compare(s.decoyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(*user)
}

// decoyHash returns a hash of a fixed password at the service's cost.
func (s *AuthService) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		s.decoy, _ = bcrypt.GenerateFromPassword([]byte("todo-app-pro decoy password"), s.cost)
	})
	return s.decoy
}

func (s *AuthService) issue(user models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: token}, nil
}

// normalizeName trims the display name; blank names are stored as NULL.
func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
