package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/usecase/webapi"
	"github.com/director74/minicommerce/pkg/retry"
)

const defaultPaymentMethod = "credit_card"

// Типы уведомлений, отправляемых пользователю
const (
	NotificationOrderCreated   = "order_created"
	NotificationOrderCompleted = "order_completed"
	NotificationOrderFailed    = "order_failed"
)

// SagaOrchestrator управляет жизненным циклом саги заказа:
// резерв товаров -> оплата -> подтверждение резерва.
// При отказе оплаты выполняется компенсация - снятие резерва.
type SagaOrchestrator struct {
	orders        OrderRepository
	inventory     InventoryService
	payment       PaymentService
	notifications NotificationService
	publisher     EventPublisher
	processed     ProcessedEventRepository
	locks         *OrderLocks
	retryPolicy   retry.Policy
	stepTimeout   time.Duration
	logger        *log.Logger
}

func NewSagaOrchestrator(
	orders OrderRepository,
	inventory InventoryService,
	payment PaymentService,
	notifications NotificationService,
	publisher EventPublisher,
	processed ProcessedEventRepository,
	locks *OrderLocks,
	retryPolicy retry.Policy,
	stepTimeout time.Duration,
) *SagaOrchestrator {
	return &SagaOrchestrator{
		orders:        orders,
		inventory:     inventory,
		payment:       payment,
		notifications: notifications,
		publisher:     publisher,
		processed:     processed,
		locks:         locks,
		retryPolicy:   retryPolicy,
		stepTimeout:   stepTimeout,
		logger:        log.New(log.Writer(), "[SagaOrchestrator] ", log.LstdFlags),
	}
}

// StartSaga запускает сагу для созданного заказа публикацией события OrderCreated
func (o *SagaOrchestrator) StartSaga(ctx context.Context, order *entity.Order, paymentMethod string) {
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	items := make([]entity.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, entity.OrderItemData{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	o.logger.Printf("Запуск саги для заказа %s (пользователь %s, сумма %.2f)", order.ID, order.UserID, order.TotalAmount)

	event := entity.NewOrderCreatedEvent(order.ID, order.UserID, items, order.TotalAmount, paymentMethod)
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Printf("[ERROR] Не удалось опубликовать событие OrderCreated для заказа %s: %v", order.ID, err)
	}
}

// HandleEvent обрабатывает событие жизненного цикла заказа.
// Каждая пара (заказ, тип события) обрабатывается не более одного раза.
func (o *SagaOrchestrator) HandleEvent(ctx context.Context, event entity.Event) error {
	firstTime, err := o.processed.MarkProcessed(ctx, event.GetOrderID(), event.EventType())
	if err != nil {
		return fmt.Errorf("ошибка проверки дубликата события: %w", err)
	}
	if !firstTime {
		o.logger.Printf("[WARN] Событие %s заказа %s уже обработано, пропускаем", event.EventType(), event.GetOrderID())
		return nil
	}

	if err := o.dispatch(ctx, event); err != nil {
		// Снимаем отметку, чтобы повторная доставка события могла
		// завершить обработку после устранения причины ошибки
		if clearErr := o.processed.ClearProcessed(ctx, event.GetOrderID(), event.EventType()); clearErr != nil {
			o.logger.Printf("[ERROR] Не удалось снять отметку события %s заказа %s: %v", event.EventType(), event.GetOrderID(), clearErr)
		}
		return err
	}
	return nil
}

func (o *SagaOrchestrator) dispatch(ctx context.Context, event entity.Event) error {
	switch e := event.(type) {
	case *entity.OrderCreatedEvent:
		return o.handleOrderCreated(ctx, e)
	case *entity.InventoryReservedEvent:
		return o.handleInventoryReserved(ctx, e)
	case *entity.InventoryReservationFailedEvent:
		return o.handleInventoryReservationFailed(ctx, e)
	case *entity.PaymentProcessedEvent:
		return o.handlePaymentProcessed(ctx, e)
	case *entity.PaymentFailedEvent:
		return o.handlePaymentFailed(ctx, e)
	case *entity.OrderCompletedEvent:
		return o.handleOrderCompleted(ctx, e)
	case *entity.OrderFailedEvent:
		return o.handleOrderFailed(ctx, e)
	case *entity.InventoryReleasedEvent:
		return o.handleInventoryReleased(ctx, e)
	default:
		return fmt.Errorf("неизвестный тип события: %s", event.EventType())
	}
}

func (o *SagaOrchestrator) handleOrderCreated(ctx context.Context, event *entity.OrderCreatedEvent) error {
	o.locks.Lock(event.OrderID)

	order, err := o.orders.GetByID(event.OrderID)
	if err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("сага не может быть запущена: %w", err)
	}

	// Пользователь мог отменить заказ до того, как событие дошло до оркестратора
	if order.Status != entity.OrderStatusPending {
		o.locks.Unlock(event.OrderID)
		o.logger.Printf("[WARN] Заказ %s в статусе %s, сага не запускается", order.ID, order.Status)
		return nil
	}

	order.MarkProcessing()
	if err := o.orders.Update(order); err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("ошибка перевода заказа %s в обработку: %w", order.ID, err)
	}
	o.locks.Unlock(event.OrderID)

	o.logger.Printf("Заказ %s переведен в обработку, резервируем товары", order.ID)
	return o.reserveInventory(ctx, event)
}

// reserveInventory выполняет первый шаг саги - резервирование товаров
func (o *SagaOrchestrator) reserveInventory(ctx context.Context, event *entity.OrderCreatedEvent) error {
	var reservationID string
	var reservations []entity.ReservationData

	err := o.callStep(ctx, func(stepCtx context.Context) error {
		var stepErr error
		reservationID, reservations, stepErr = o.inventory.Reserve(stepCtx, event.OrderID, event.Items)
		return stepErr
	})
	if err != nil {
		reason := o.describeStepFailure("резервирование товаров", event.OrderID, err)
		return o.publisher.Publish(ctx, entity.NewInventoryReservationFailedEvent(event.OrderID, event.UserID, reason))
	}

	o.logger.Printf("Товары для заказа %s зарезервированы (резерв %s)", event.OrderID, reservationID)
	return o.publisher.Publish(ctx, entity.NewInventoryReservedEvent(
		event.OrderID, event.UserID, reservationID, reservations, event.TotalAmount, event.PaymentMethod))
}

func (o *SagaOrchestrator) handleInventoryReserved(ctx context.Context, event *entity.InventoryReservedEvent) error {
	o.locks.Lock(event.OrderID)

	order, err := o.orders.GetByID(event.OrderID)
	if err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("резерв получен для неизвестного заказа: %w", err)
	}

	order.ReservationID = event.ReservationID
	if snapshot, merr := json.Marshal(event.Reservations); merr != nil {
		o.logger.Printf("[WARN] Не удалось сериализовать снимок резерва заказа %s: %v", order.ID, merr)
	} else {
		order.Reservation = snapshot
	}
	if err := o.orders.Update(order); err != nil {
		o.logger.Printf("[WARN] Не удалось сохранить снимок резерва заказа %s: %v", order.ID, err)
	}
	o.locks.Unlock(event.OrderID)

	return o.processPayment(ctx, event)
}

// processPayment выполняет второй шаг саги - списание средств
func (o *SagaOrchestrator) processPayment(ctx context.Context, event *entity.InventoryReservedEvent) error {
	var paymentID string

	err := o.callStep(ctx, func(stepCtx context.Context) error {
		var stepErr error
		paymentID, stepErr = o.payment.Process(stepCtx, event.OrderID, event.UserID, event.TotalAmount, event.PaymentMethod)
		return stepErr
	})
	if err != nil {
		reason := o.describeStepFailure("оплата", event.OrderID, err)
		return o.publisher.Publish(ctx, entity.NewPaymentFailedEvent(event.OrderID, event.UserID, reason))
	}

	o.logger.Printf("Оплата заказа %s проведена (платеж %s)", event.OrderID, paymentID)
	return o.publisher.Publish(ctx, entity.NewPaymentProcessedEvent(event.OrderID, event.UserID, paymentID, event.TotalAmount, event.PaymentMethod))
}

func (o *SagaOrchestrator) handlePaymentProcessed(ctx context.Context, event *entity.PaymentProcessedEvent) error {
	o.locks.Lock(event.OrderID)

	order, err := o.orders.GetByID(event.OrderID)
	if err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("платеж получен для неизвестного заказа: %w", err)
	}

	order.PaymentID = event.PaymentID
	if err := o.orders.Update(order); err != nil {
		o.logger.Printf("[WARN] Не удалось сохранить платеж заказа %s: %v", order.ID, err)
	}
	o.locks.Unlock(event.OrderID)

	// Третий шаг саги - подтверждение резерва
	err = o.callStep(ctx, func(stepCtx context.Context) error {
		return o.inventory.Confirm(stepCtx, event.OrderID)
	})
	if err != nil {
		// Платеж уже проведен, но резерв подтвердить не удалось.
		// Снимаем резерв и завершаем сагу неуспешно.
		reason := o.describeStepFailure("подтверждение резерва", event.OrderID, err)
		return o.compensateInventoryReservation(ctx, event.OrderID, event.UserID, reason)
	}

	o.logger.Printf("Резерв заказа %s подтвержден, сага завершается успешно", event.OrderID)
	return o.publisher.Publish(ctx, entity.NewOrderCompletedEvent(event.OrderID, event.UserID, event.PaymentID, event.Amount))
}

func (o *SagaOrchestrator) handlePaymentFailed(ctx context.Context, event *entity.PaymentFailedEvent) error {
	o.logger.Printf("Оплата заказа %s не прошла: %s", event.OrderID, event.Reason)
	return o.compensateInventoryReservation(ctx, event.OrderID, event.UserID, event.Reason)
}

// compensateInventoryReservation снимает резерв товаров и публикует InventoryReleased.
// Если снять резерв не удалось, сага все равно завершается неуспешно.
func (o *SagaOrchestrator) compensateInventoryReservation(ctx context.Context, orderID, userID uuid.UUID, reason string) error {
	o.locks.Lock(orderID)
	order, err := o.orders.GetByID(orderID)
	if err != nil {
		o.locks.Unlock(orderID)
		return fmt.Errorf("компенсация невозможна: %w", err)
	}

	order.MarkCompensating()
	if err := o.orders.Update(order); err != nil {
		o.locks.Unlock(orderID)
		return fmt.Errorf("ошибка перевода заказа %s в компенсацию: %w", orderID, err)
	}
	reservationID := order.ReservationID
	o.locks.Unlock(orderID)

	o.logger.Printf("Компенсация заказа %s: снимаем резерв товаров", orderID)

	err = o.callStep(ctx, func(stepCtx context.Context) error {
		return o.inventory.Release(stepCtx, orderID)
	})
	if err != nil {
		o.logger.Printf("[ERROR] Не удалось снять резерв заказа %s: %v", orderID, err)
	}

	return o.publisher.Publish(ctx, entity.NewInventoryReleasedEvent(orderID, userID, reservationID, reason))
}

func (o *SagaOrchestrator) handleInventoryReservationFailed(ctx context.Context, event *entity.InventoryReservationFailedEvent) error {
	// Резерва нет, компенсировать нечего
	return o.handleSagaFailure(ctx, event.OrderID, event.UserID, event.Reason)
}

func (o *SagaOrchestrator) handleInventoryReleased(ctx context.Context, event *entity.InventoryReleasedEvent) error {
	return o.handleSagaFailure(ctx, event.OrderID, event.UserID, event.Reason)
}

// handleSagaFailure - единая точка неуспешного завершения саги.
// Заказ переводится в FAILED, публикуется OrderFailed и отправляется уведомление.
func (o *SagaOrchestrator) handleSagaFailure(ctx context.Context, orderID, userID uuid.UUID, reason string) error {
	o.locks.Lock(orderID)
	order, err := o.orders.GetByID(orderID)
	if err != nil {
		o.locks.Unlock(orderID)
		return fmt.Errorf("неуспешное завершение невозможно: %w", err)
	}

	if order.Status == entity.OrderStatusCancelled {
		o.locks.Unlock(orderID)
		o.logger.Printf("[WARN] Заказ %s отменен, неуспешное завершение саги игнорируется", orderID)
		return nil
	}

	order.MarkFailed(reason)
	if err := o.orders.Update(order); err != nil {
		o.locks.Unlock(orderID)
		return fmt.Errorf("ошибка перевода заказа %s в FAILED: %w", orderID, err)
	}
	o.locks.Unlock(orderID)

	o.logger.Printf("Сага заказа %s завершена неуспешно: %s", orderID, reason)

	if err := o.publisher.Publish(ctx, entity.NewOrderFailedEvent(orderID, userID, reason)); err != nil {
		o.logger.Printf("[ERROR] Не удалось опубликовать событие OrderFailed для заказа %s: %v", orderID, err)
	}

	o.notify(ctx, userID, orderID, NotificationOrderFailed,
		fmt.Sprintf("Заказ %s не выполнен: %s", orderID, reason))
	return nil
}

func (o *SagaOrchestrator) handleOrderCompleted(ctx context.Context, event *entity.OrderCompletedEvent) error {
	o.locks.Lock(event.OrderID)
	order, err := o.orders.GetByID(event.OrderID)
	if err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("успешное завершение невозможно: %w", err)
	}

	if order.Status == entity.OrderStatusCancelled {
		o.locks.Unlock(event.OrderID)
		o.logger.Printf("[WARN] Заказ %s отменен, успешное завершение саги игнорируется", event.OrderID)
		return nil
	}

	order.MarkCompleted()
	if err := o.orders.Update(order); err != nil {
		o.locks.Unlock(event.OrderID)
		return fmt.Errorf("ошибка перевода заказа %s в COMPLETED: %w", event.OrderID, err)
	}
	o.locks.Unlock(event.OrderID)

	o.logger.Printf("Заказ %s выполнен", event.OrderID)

	o.notify(ctx, event.UserID, event.OrderID, NotificationOrderCompleted,
		fmt.Sprintf("Заказ %s успешно выполнен", event.OrderID))
	return nil
}

func (o *SagaOrchestrator) handleOrderFailed(ctx context.Context, event *entity.OrderFailedEvent) error {
	// Статус уже переведен в FAILED при публикации события
	o.logger.Printf("Событие OrderFailed заказа %s: %s", event.OrderID, event.Reason)
	return nil
}

// callStep выполняет шаг саги с таймаутом и повторами.
// Бизнес-отказы сервисов (4xx) не ретраятся.
func (o *SagaOrchestrator) callStep(ctx context.Context, step func(ctx context.Context) error) error {
	return o.retryPolicy.Do(ctx, func(attemptCtx context.Context) error {
		stepCtx := attemptCtx
		if o.stepTimeout > 0 {
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(attemptCtx, o.stepTimeout)
			defer cancel()
		}

		err := step(stepCtx)
		if err == nil {
			return nil
		}

		var rejection *webapi.RejectionError
		if errors.As(err, &rejection) {
			return retry.Permanent(err)
		}
		return err
	})
}

// describeStepFailure формирует причину отказа и логирует её с различением
// бизнес-отказа и недоступности сервиса
func (o *SagaOrchestrator) describeStepFailure(step string, orderID uuid.UUID, err error) string {
	var rejection *webapi.RejectionError
	if errors.As(err, &rejection) {
		o.logger.Printf("[WARN] Шаг '%s' заказа %s отклонен сервисом: %v", step, orderID, err)
		return rejection.Message
	}

	o.logger.Printf("[ERROR] Шаг '%s' заказа %s не выполнен: %v", step, orderID, err)
	return fmt.Sprintf("шаг '%s' не выполнен: %v", step, err)
}

func (o *SagaOrchestrator) notify(ctx context.Context, userID, orderID uuid.UUID, notificationType, message string) {
	if err := o.notifications.Notify(ctx, userID, orderID, notificationType, message); err != nil {
		o.logger.Printf("[WARN] Не удалось отправить уведомление %s для заказа %s: %v", notificationType, orderID, err)
	}
}
