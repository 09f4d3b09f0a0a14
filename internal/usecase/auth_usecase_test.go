package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/repo"
	"github.com/director74/minicommerce/pkg/auth"
)

// Хранилище пользователей в памяти
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memoryUserRepo) Create(user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) GetByID(id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memoryUserRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *memoryUserRepo) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func newAuthUseCaseEnv() (*AuthUseCase, *memoryUserRepo, *auth.JWTManager) {
	users := newMemoryUserRepo()
	jwtManager := auth.NewJWTManager(auth.NewConfig("test-signing-key"))
	return NewAuthUseCase(users, jwtManager), users, jwtManager
}

func TestRegisterAndLogin(t *testing.T) {
	uc, _, jwtManager := newAuthUseCaseEnv()
	ctx := context.Background()

	resp, err := uc.Register(ctx, entity.RegisterRequest{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "ivan", resp.Username)

	login, err := uc.Login(ctx, entity.LoginRequest{
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, login.ID)

	claims, err := jwtManager.ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.Equal(t, "ivan", claims.Username)
}

func TestRegisterDuplicate(t *testing.T) {
	uc, _, _ := newAuthUseCaseEnv()
	ctx := context.Background()

	_, err := uc.Register(ctx, entity.RegisterRequest{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = uc.Register(ctx, entity.RegisterRequest{
		Username: "ivan",
		Email:    "other@example.com",
		Password: "secret123",
	})
	assertServiceErrorCode(t, err, http.StatusConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	uc, _, _ := newAuthUseCaseEnv()
	ctx := context.Background()

	_, err := uc.Register(ctx, entity.RegisterRequest{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = uc.Login(ctx, entity.LoginRequest{
		Email:    "ivan@example.com",
		Password: "wrong",
	})
	assertServiceErrorCode(t, err, http.StatusUnauthorized)
}

func TestLoginUnknownUser(t *testing.T) {
	uc, _, _ := newAuthUseCaseEnv()

	_, err := uc.Login(context.Background(), entity.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assertServiceErrorCode(t, err, http.StatusUnauthorized)

	var notFound error = repo.ErrUserNotFound
	assert.False(t, errors.Is(err, notFound), "ошибка входа не должна раскрывать отсутствие пользователя")
}
