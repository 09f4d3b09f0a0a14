package usecase

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/director74/minicommerce/internal/entity"
	apperrors "github.com/director74/minicommerce/pkg/errors"
)

// OrderUseCase реализует операции над заказами
type OrderUseCase struct {
	orders        OrderRepository
	notifications NotificationService
	saga          SagaStarter
	locks         *OrderLocks
	logger        *log.Logger
}

func NewOrderUseCase(orders OrderRepository, notifications NotificationService, saga SagaStarter, locks *OrderLocks) *OrderUseCase {
	return &OrderUseCase{
		orders:        orders,
		notifications: notifications,
		saga:          saga,
		locks:         locks,
		logger:        log.New(log.Writer(), "[OrderUseCase] ", log.LstdFlags),
	}
}

// CreateOrder создает заказ в статусе PENDING и запускает сагу в фоне.
// Итоговая сумма всегда вычисляется по позициям, а не берется из запроса.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID uuid.UUID, req entity.CreateOrderRequest) (*entity.CreateOrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidationError("items", "заказ должен содержать хотя бы одну позицию")
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity", "количество товара должно быть положительным")
		}
		if item.Price <= 0 {
			return nil, apperrors.NewValidationError("price", "цена товара должна быть положительной")
		}
		items = append(items, entity.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
		total += float64(item.Quantity) * item.Price
	}
	total = math.Round(total*100) / 100

	order := &entity.Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Status:      entity.OrderStatusPending,
		SagaState:   entity.SagaStateOrchestrating,
	}

	if err := uc.orders.Create(order); err != nil {
		return nil, apperrors.NewInternalServerError(fmt.Errorf("не удалось создать заказ: %w", err))
	}

	uc.logger.Printf("Создан заказ %s пользователя %s на сумму %.2f", order.ID, userID, total)

	// Уведомление о создании не влияет на исход заказа
	if err := uc.notifications.Notify(ctx, userID, order.ID, NotificationOrderCreated,
		fmt.Sprintf("Заказ %s создан и принят в обработку", order.ID)); err != nil {
		uc.logger.Printf("[WARN] Не удалось отправить уведомление о создании заказа %s: %v", order.ID, err)
	}

	go uc.saga.StartSaga(context.WithoutCancel(ctx), order, req.PaymentMethod)

	return &entity.CreateOrderResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	}, nil
}

// GetOrder возвращает заказ пользователя по идентификатору
func (uc *OrderUseCase) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*entity.GetOrderResponse, error) {
	order, err := uc.orders.GetByID(orderID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("заказ", orderID)
	}
	if order.UserID != userID {
		return nil, apperrors.NewForbiddenError("нет доступа к чужому заказу")
	}

	resp := order.ToGetOrderResponse()
	return &resp, nil
}

// ListUserOrders возвращает заказы пользователя с пагинацией
func (uc *OrderUseCase) ListUserOrders(ctx context.Context, userID uuid.UUID, limit, offset int) (*entity.ListOrdersResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := uc.orders.ListByUserID(userID, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalServerError(err)
	}
	total, err := uc.orders.CountByUserID(userID)
	if err != nil {
		return nil, apperrors.NewInternalServerError(err)
	}

	resp := &entity.ListOrdersResponse{
		Orders: make([]entity.GetOrderResponse, 0, len(orders)),
		Total:  total,
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, orders[i].ToGetOrderResponse())
	}
	return resp, nil
}

// CancelOrder отменяет заказ пользователя. Отмена невозможна, пока сага
// активна, и после успешного завершения заказа.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*entity.GetOrderResponse, error) {
	uc.locks.Lock(orderID)
	defer uc.locks.Unlock(orderID)

	order, err := uc.orders.GetByID(orderID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("заказ", orderID)
	}
	if order.UserID != userID {
		return nil, apperrors.NewForbiddenError("нет доступа к чужому заказу")
	}

	if order.Status == entity.OrderStatusCompleted {
		return nil, apperrors.NewConflictError("выполненный заказ нельзя отменить")
	}
	if !order.CanCancel() {
		return nil, apperrors.NewConflictError("заказ обрабатывается, отмена сейчас невозможна")
	}

	order.Status = entity.OrderStatusCancelled
	if reason != "" {
		order.FailureReason = reason
	}
	if err := uc.orders.Update(order); err != nil {
		return nil, apperrors.NewInternalServerError(fmt.Errorf("не удалось отменить заказ: %w", err))
	}

	uc.logger.Printf("Заказ %s отменен пользователем %s", orderID, userID)

	resp := order.ToGetOrderResponse()
	return &resp, nil
}

// GetStatistics возвращает сводку по заказам для служебного API
func (uc *OrderUseCase) GetStatistics(ctx context.Context) (*entity.OrderStatisticsResponse, error) {
	counts, err := uc.orders.CountByStatus()
	if err != nil {
		return nil, apperrors.NewInternalServerError(err)
	}

	stats := &entity.OrderStatisticsResponse{
		PendingOrders:   counts[entity.OrderStatusPending] + counts[entity.OrderStatusProcessing],
		CompletedOrders: counts[entity.OrderStatusCompleted],
		FailedOrders:    counts[entity.OrderStatusFailed],
		CancelledOrders: counts[entity.OrderStatusCancelled],
	}
	for _, count := range counts {
		stats.TotalOrders += count
	}
	return stats, nil
}
