package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/todo-app-pro/internal/models"
	"github.com/atinyakov/todo-app-pro/internal/repository"
)

type mockAuthRepo struct {
	UserExistsFunc     func(ctx context.Context, email string) (bool, error)
	CreateUserFunc     func(ctx context.Context, u *models.User) error
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockAuthRepo) UserExists(ctx context.Context, email string) (bool, error) {
	return m.UserExistsFunc(ctx, email)
}
func (m *mockAuthRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.CreateUserFunc(ctx, u)
}
func (m *mockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}

// memUsers is a tiny credential store keyed by email.
func memUsers() *mockAuthRepo {
	users := map[string]models.User{}
	return &mockAuthRepo{
		UserExistsFunc: func(_ context.Context, email string) (bool, error) {
			_, ok := users[email]
			return ok, nil
		},
		CreateUserFunc: func(_ context.Context, u *models.User) error {
			if _, ok := users[u.Email]; ok {
				return repository.ErrDuplicate
			}
			users[u.Email] = *u
			return nil
		},
		GetUserByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			u, ok := users[email]
			if !ok {
				return nil, repository.ErrNotFound
			}
			return &u, nil
		},
	}
}

type stubIssuer struct{ err error }

func (s stubIssuer) Issue(userID, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-" + userID, nil
}

func newTestAuthService(repo AuthRepository) *AuthService {
	svc := NewAuthService(repo, stubIssuer{})
	svc.cost = bcrypt.MinCost
	return svc
}

func TestNewAuthService_UsesCost12(t *testing.T) {
	svc := NewAuthService(memUsers(), stubIssuer{})
	assert.Equal(t, 12, svc.cost)
}

func TestRegister_Success(t *testing.T) {
	svc := newTestAuthService(memUsers())
	name := "  Ann  "

	res, err := svc.Register(context.Background(), "  A@X.com ", "pw", &name)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "Ann", *res.User.Name)
	assert.NotEmpty(t, res.User.ID)
	assert.False(t, res.User.CreatedAt.IsZero())
	assert.Equal(t, "token-"+res.User.ID, res.AccessToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword(res.User.PasswordHash, []byte("pw")), "stored hash does not match password")
}

func TestRegister_BlankNameStoredAsNull(t *testing.T) {
	svc := newTestAuthService(memUsers())
	blank := "   "

	res, err := svc.Register(context.Background(), "b@x.com", "pw", &blank)
	require.NoError(t, err)
	assert.Nil(t, res.User.Name)
}

func TestRegister_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	svc := newTestAuthService(memUsers())
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw", nil)
	require.NoError(t, err)

	other := "Someone Else"
	_, err = svc.Register(ctx, " A@X.COM", "different", &other)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_InsertRaceMapsToDuplicate(t *testing.T) {
	repo := &mockAuthRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
		CreateUserFunc: func(context.Context, *models.User) error { return repository.ErrDuplicate },
	}
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "a@x.com", "pw", nil)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_RepoError(t *testing.T) {
	wantErr := errors.New("db error")
	repo := &mockAuthRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return false, wantErr },
	}
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), "a@x.com", "pw", nil)
	assert.ErrorIs(t, err, wantErr)
}

func TestRegister_IssuerError(t *testing.T) {
	wantErr := errors.New("sign failed")
	svc := NewAuthService(memUsers(), stubIssuer{err: wantErr})
	svc.cost = bcrypt.MinCost

	_, err := svc.Register(context.Background(), "a@x.com", "pw", nil)
	assert.ErrorIs(t, err, wantErr)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestAuthService(memUsers())
	ctx := context.Background()
	reg, err := svc.Register(ctx, "a@x.com", "pw", nil)
	require.NoError(t, err)

	res, err := svc.Login(ctx, " A@x.Com", "pw")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc := newTestAuthService(memUsers())
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@x.com", "pw", nil)
	require.NoError(t, err)

	_, errUnknown := svc.Login(ctx, "nobody@x.com", "pw")
	_, errWrong := svc.Login(ctx, "a@x.com", "nope")

	assert.Equal(t, ErrInvalidCredentials, errUnknown)
	assert.Equal(t, ErrInvalidCredentials, errWrong)
}

func TestLogin_UnknownEmailStillComparesHash(t *testing.T) {
	svc := newTestAuthService(memUsers())
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@x.com", "pw", nil)
	require.NoError(t, err)

	var costs []int
	svc.compare = func(hash, password []byte) error {
		cost, err := bcrypt.Cost(hash)
		require.NoError(t, err)
		costs = append(costs, cost)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err = svc.Login(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@x.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// both paths run one comparison at the same cost
	assert.Equal(t, []int{bcrypt.MinCost, bcrypt.MinCost}, costs)
}

func TestLogin_DecoyPasswordNeverAuthenticates(t *testing.T) {
	svc := newTestAuthService(memUsers())

	_, err := svc.Login(context.Background(), "nobody@x.com", "todo-app-pro decoy password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RepoError(t *testing.T) {
	wantErr := errors.New("conn refused")
	repo := &mockAuthRepo{
		GetUserByEmailFunc: func(context.Context, string) (*models.User, error) { return nil, wantErr },
	}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, wantErr)
}
