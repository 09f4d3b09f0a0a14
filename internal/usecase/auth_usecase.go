package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/repo"
	"github.com/director74/minicommerce/pkg/auth"
	apperrors "github.com/director74/minicommerce/pkg/errors"
)

// AuthUseCase реализует регистрацию и вход пользователей
type AuthUseCase struct {
	users      UserRepository
	jwtManager *auth.JWTManager
	logger     *log.Logger
}

func NewAuthUseCase(users UserRepository, jwtManager *auth.JWTManager) *AuthUseCase {
	return &AuthUseCase{
		users:      users,
		jwtManager: jwtManager,
		logger:     log.New(log.Writer(), "[AuthUseCase] ", log.LstdFlags),
	}
}

// Register создает нового пользователя
func (uc *AuthUseCase) Register(ctx context.Context, req entity.RegisterRequest) (*entity.RegisterResponse, error) {
	exists, err := uc.users.ExistsByUsernameOrEmail(req.Username, req.Email)
	if err != nil {
		return nil, apperrors.NewInternalServerError(err)
	}
	if exists {
		return nil, apperrors.NewAlreadyExistsError("пользователь", "username или email", req.Username)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewInternalServerError(fmt.Errorf("не удалось хешировать пароль: %w", err))
	}

	user := &entity.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := uc.users.Create(user); err != nil {
		return nil, apperrors.NewInternalServerError(fmt.Errorf("не удалось создать пользователя: %w", err))
	}

	uc.logger.Printf("Зарегистрирован пользователь %s (%s)", user.Username, user.ID)

	return &entity.RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// Login проверяет учетные данные и выдает JWT токен
func (uc *AuthUseCase) Login(ctx context.Context, req entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := uc.users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.NewInternalServerError(err)
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	token, err := uc.jwtManager.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalServerError(fmt.Errorf("не удалось выдать токен: %w", err))
	}

	return &entity.LoginResponse{
		Token: token,
		ID:    user.ID,
	}, nil
}
