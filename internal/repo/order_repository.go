package repo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/director74/minicommerce/internal/entity"
)

var (
	// ErrOrderNotFound возвращается, когда заказ не найден
	ErrOrderNotFound = errors.New("заказ не найден")
	// ErrVersionConflict возвращается при конкурентном изменении заказа
	ErrVersionConflict = errors.New("конфликт версий заказа")
)

// OrderRepository управляет хранением заказов
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет новый заказ вместе с позициями
func (r *OrderRepository) Create(order *entity.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}
	return nil
}

// GetByID возвращает заказ с позициями по идентификатору
func (r *OrderRepository) GetByID(id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.db.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}
	return &order, nil
}

// Update сохраняет изменения заказа с оптимистической блокировкой.
// Версия в базе должна совпадать с версией заказа на момент чтения.
func (r *OrderRepository) Update(order *entity.Order) error {
	currentVersion := order.Version
	order.Version++

	result := r.db.Model(&entity.Order{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":         order.Status,
			"saga_state":     order.SagaState,
			"failure_reason": order.FailureReason,
			"payment_id":     order.PaymentID,
			"reservation_id": order.ReservationID,
			"reservation":    order.Reservation,
			"version":        order.Version,
		})
	if result.Error != nil {
		order.Version = currentVersion
		return fmt.Errorf("ошибка обновления заказа: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		order.Version = currentVersion
		return ErrVersionConflict
	}
	return nil
}

// ListByUserID возвращает заказы пользователя с пагинацией
func (r *OrderRepository) ListByUserID(userID uuid.UUID, limit, offset int) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов пользователя: %w", err)
	}
	return orders, nil
}

// CountByUserID возвращает общее количество заказов пользователя
func (r *OrderRepository) CountByUserID(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Order{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета заказов пользователя: %w", err)
	}
	return count, nil
}

// CountByStatus возвращает количество заказов в каждом статусе
func (r *OrderRepository) CountByStatus() (map[entity.OrderStatus]int64, error) {
	type statusCount struct {
		Status entity.OrderStatus
		Count  int64
	}

	var rows []statusCount
	err := r.db.Model(&entity.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета заказов по статусам: %w", err)
	}

	counts := make(map[entity.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
