package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/director74/minicommerce/internal/entity"
)

// InventoryService описывает операции сервиса склада, нужные саге
type InventoryService interface {
	Reserve(ctx context.Context, orderID uuid.UUID, items []entity.OrderItemData) (string, []entity.ReservationData, error)
	Confirm(ctx context.Context, orderID uuid.UUID) error
	Release(ctx context.Context, orderID uuid.UUID) error
}

// PaymentService описывает операции платёжного сервиса, нужные саге
type PaymentService interface {
	Process(ctx context.Context, orderID, userID uuid.UUID, amount float64, paymentMethod string) (string, error)
}

// NotificationService описывает отправку уведомлений пользователю
type NotificationService interface {
	Notify(ctx context.Context, userID, orderID uuid.UUID, notificationType, message string) error
}

// OrderRepository описывает хранилище заказов
type OrderRepository interface {
	Create(order *entity.Order) error
	GetByID(id uuid.UUID) (*entity.Order, error)
	Update(order *entity.Order) error
	ListByUserID(userID uuid.UUID, limit, offset int) ([]entity.Order, error)
	CountByUserID(userID uuid.UUID) (int64, error)
	CountByStatus() (map[entity.OrderStatus]int64, error)
}

// UserRepository описывает хранилище пользователей
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uuid.UUID) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	ExistsByUsernameOrEmail(username, email string) (bool, error)
}

// ProcessedEventRepository описывает хранилище отметок об обработанных событиях
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, orderID uuid.UUID, eventType string) (bool, error)
	IsProcessed(ctx context.Context, orderID uuid.UUID, eventType string) (bool, error)
	ClearProcessed(ctx context.Context, orderID uuid.UUID, eventType string) error
}

// EventPublisher публикует события жизненного цикла заказа
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// EventHandler обрабатывает событие жизненного цикла заказа
type EventHandler func(ctx context.Context, event entity.Event) error

// SagaStarter запускает сагу для созданного заказа
type SagaStarter interface {
	StartSaga(ctx context.Context, order *entity.Order, paymentMethod string)
}
