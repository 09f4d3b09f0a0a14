package entity

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий саги заказа
const (
	EventTypeOrderCreated               = "OrderCreated"
	EventTypeInventoryReserved          = "InventoryReserved"
	EventTypeInventoryReservationFailed = "InventoryReservationFailed"
	EventTypePaymentProcessed           = "PaymentProcessed"
	EventTypePaymentFailed              = "PaymentFailed"
	EventTypeOrderCompleted             = "OrderCompleted"
	EventTypeOrderFailed                = "OrderFailed"
	EventTypeInventoryReleased          = "InventoryReleased"
)

// Event представляет событие жизненного цикла заказа
type Event interface {
	GetOrderID() uuid.UUID
	GetUserID() uuid.UUID
	GetTimestamp() time.Time
	EventType() string
}

// BaseEvent содержит общие поля всех событий заказа
type BaseEvent struct {
	Type      string    `json:"event_type"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) GetOrderID() uuid.UUID   { return e.OrderID }
func (e BaseEvent) GetUserID() uuid.UUID    { return e.UserID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) EventType() string       { return e.Type }

func newBaseEvent(eventType string, orderID, userID uuid.UUID) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		OrderID:   orderID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// OrderItemData представляет позицию заказа в событиях
type OrderItemData struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
}

// ReservationData представляет позицию резерва, возвращённую складом
type ReservationData struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
}

// OrderCreatedEvent публикуется при создании заказа и запускает сагу
type OrderCreatedEvent struct {
	BaseEvent
	Items         []OrderItemData `json:"items"`
	TotalAmount   float64         `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

func NewOrderCreatedEvent(orderID, userID uuid.UUID, items []OrderItemData, totalAmount float64, paymentMethod string) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:     newBaseEvent(EventTypeOrderCreated, orderID, userID),
		Items:         items,
		TotalAmount:   totalAmount,
		PaymentMethod: paymentMethod,
	}
}

// InventoryReservedEvent публикуется после успешного резервирования товаров
type InventoryReservedEvent struct {
	BaseEvent
	ReservationID string            `json:"reservation_id"`
	Reservations  []ReservationData `json:"reservations"`
	TotalAmount   float64           `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
}

func NewInventoryReservedEvent(orderID, userID uuid.UUID, reservationID string, reservations []ReservationData, totalAmount float64, paymentMethod string) *InventoryReservedEvent {
	return &InventoryReservedEvent{
		BaseEvent:     newBaseEvent(EventTypeInventoryReserved, orderID, userID),
		ReservationID: reservationID,
		Reservations:  reservations,
		TotalAmount:   totalAmount,
		PaymentMethod: paymentMethod,
	}
}

// InventoryReservationFailedEvent публикуется при отказе склада
type InventoryReservationFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

func NewInventoryReservationFailedEvent(orderID, userID uuid.UUID, reason string) *InventoryReservationFailedEvent {
	return &InventoryReservationFailedEvent{
		BaseEvent: newBaseEvent(EventTypeInventoryReservationFailed, orderID, userID),
		Reason:    reason,
	}
}

// PaymentProcessedEvent публикуется после успешного списания средств
type PaymentProcessedEvent struct {
	BaseEvent
	PaymentID     string  `json:"payment_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

func NewPaymentProcessedEvent(orderID, userID uuid.UUID, paymentID string, amount float64, paymentMethod string) *PaymentProcessedEvent {
	return &PaymentProcessedEvent{
		BaseEvent:     newBaseEvent(EventTypePaymentProcessed, orderID, userID),
		PaymentID:     paymentID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
	}
}

// PaymentFailedEvent публикуется при отказе платёжного сервиса
type PaymentFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

func NewPaymentFailedEvent(orderID, userID uuid.UUID, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: newBaseEvent(EventTypePaymentFailed, orderID, userID),
		Reason:    reason,
	}
}

// OrderCompletedEvent публикуется после успешного завершения саги
type OrderCompletedEvent struct {
	BaseEvent
	PaymentID   string  `json:"payment_id"`
	TotalAmount float64 `json:"total_amount"`
}

func NewOrderCompletedEvent(orderID, userID uuid.UUID, paymentID string, totalAmount float64) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseEvent:   newBaseEvent(EventTypeOrderCompleted, orderID, userID),
		PaymentID:   paymentID,
		TotalAmount: totalAmount,
	}
}

// OrderFailedEvent публикуется при неуспешном завершении саги
type OrderFailedEvent struct {
	BaseEvent
	Reason    string    `json:"reason"`
	SagaState SagaState `json:"saga_state"`
}

func NewOrderFailedEvent(orderID, userID uuid.UUID, reason string) *OrderFailedEvent {
	return &OrderFailedEvent{
		BaseEvent: newBaseEvent(EventTypeOrderFailed, orderID, userID),
		Reason:    reason,
		SagaState: SagaStateFailed,
	}
}

// InventoryReleasedEvent публикуется после снятия резерва при компенсации
type InventoryReleasedEvent struct {
	BaseEvent
	ReservationID string `json:"reservation_id,omitempty"`
	Reason        string `json:"reason"`
}

func NewInventoryReleasedEvent(orderID, userID uuid.UUID, reservationID, reason string) *InventoryReleasedEvent {
	return &InventoryReleasedEvent{
		BaseEvent:     newBaseEvent(EventTypeInventoryReleased, orderID, userID),
		ReservationID: reservationID,
		Reason:        reason,
	}
}
