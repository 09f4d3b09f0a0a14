package repo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/director74/minicommerce/internal/entity"
)

// ErrUserNotFound возвращается, когда пользователь не найден
var ErrUserNotFound = errors.New("пользователь не найден")

// UserRepository управляет хранением пользователей
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя
func (r *UserRepository) Create(user *entity.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по идентификатору
func (r *UserRepository) GetByID(id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return &user, nil
}

// ExistsByUsernameOrEmail проверяет занятость имени пользователя или email
func (r *UserRepository) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("ошибка проверки пользователя: %w", err)
	}
	return count > 0, nil
}
