package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus представляет внешний статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// SagaState представляет внутреннее состояние саги заказа
type SagaState string

const (
	SagaStateOrchestrating SagaState = "ORCHESTRATING"
	SagaStateCompensating  SagaState = "COMPENSATING"
	SagaStateCompleted     SagaState = "COMPLETED"
	SagaStateFailed        SagaState = "FAILED"
)

// Order представляет заказ пользователя
type Order struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"`
	Items         []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount   float64        `json:"total_amount" gorm:"not null"`
	Status        OrderStatus    `json:"status" gorm:"type:varchar(20);index;not null"`
	SagaState     SagaState      `json:"saga_state" gorm:"type:varchar(20);not null"`
	FailureReason string         `json:"failure_reason,omitempty" gorm:"type:text"`
	PaymentID     string         `json:"payment_id,omitempty" gorm:"type:varchar(64)"`
	ReservationID string         `json:"reservation_id,omitempty" gorm:"type:varchar(64)"`
	Reservation   datatypes.JSON `json:"reservation,omitempty"`
	Version       int64          `json:"-" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// OrderItem представляет позицию заказа
type OrderItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `json:"-" gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	ProductName string    `json:"product_name" gorm:"type:varchar(255)"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeCreate генерирует идентификатор заказа, если он не задан
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// BeforeCreate генерирует идентификатор позиции заказа, если он не задан
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// MarkProcessing переводит заказ в обработку оркестратором
func (o *Order) MarkProcessing() {
	o.Status = OrderStatusProcessing
	o.SagaState = SagaStateOrchestrating
}

// MarkCompleted завершает заказ успешно. Статус и состояние саги
// меняются только вместе.
func (o *Order) MarkCompleted() {
	o.Status = OrderStatusCompleted
	o.SagaState = SagaStateCompleted
}

// MarkFailed завершает заказ неуспешно с указанием причины
func (o *Order) MarkFailed(reason string) {
	o.Status = OrderStatusFailed
	o.SagaState = SagaStateFailed
	o.FailureReason = reason
}

// MarkCompensating переводит сагу в режим компенсации
func (o *Order) MarkCompensating() {
	o.SagaState = SagaStateCompensating
}

// CanCancel сообщает, допустима ли отмена заказа пользователем.
// Заказ нельзя отменить, пока сага активна, и после успешного завершения.
func (o *Order) CanCancel() bool {
	switch {
	case o.Status == OrderStatusCompleted:
		return false
	case o.Status == OrderStatusCancelled:
		return false
	case o.SagaState == SagaStateOrchestrating && o.Status != OrderStatusPending:
		return false
	case o.SagaState == SagaStateCompensating:
		return false
	}
	return o.Status == OrderStatusPending || o.Status == OrderStatusFailed
}

// CreateOrderItemRequest представляет позицию в запросе создания заказа
type CreateOrderItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity" binding:"required,gt=0"`
	Price       float64   `json:"price" binding:"required,gt=0"`
}

// CreateOrderRequest представляет запрос на создание заказа
type CreateOrderRequest struct {
	Items         []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string                   `json:"payment_method"`
}

// CreateOrderResponse представляет ответ на создание заказа
type CreateOrderResponse struct {
	OrderID     uuid.UUID   `json:"order_id"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
}

// GetOrderResponse представляет данные заказа в ответах API
type GetOrderResponse struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Items         []OrderItem `json:"items"`
	TotalAmount   float64     `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	SagaState     SagaState   `json:"saga_state"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ListOrdersResponse представляет страницу заказов пользователя
type ListOrdersResponse struct {
	Orders []GetOrderResponse `json:"orders"`
	Total  int64              `json:"total"`
}

// CancelOrderRequest представляет запрос на отмену заказа
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderStatisticsResponse представляет сводку по заказам для служебного API
type OrderStatisticsResponse struct {
	TotalOrders     int64 `json:"total_orders"`
	PendingOrders   int64 `json:"pending_orders"`
	CompletedOrders int64 `json:"completed_orders"`
	FailedOrders    int64 `json:"failed_orders"`
	CancelledOrders int64 `json:"cancelled_orders"`
}

// ToGetOrderResponse преобразует заказ в представление для API
func (o *Order) ToGetOrderResponse() GetOrderResponse {
	return GetOrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         o.Items,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		SagaState:     o.SagaState,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
