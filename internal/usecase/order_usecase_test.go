package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/minicommerce/internal/entity"
	apperrors "github.com/director74/minicommerce/pkg/errors"
)

// Мок запуска саги, сообщающий о вызове через канал
type MockSagaStarter struct {
	Started chan uuid.UUID
}

func NewMockSagaStarter() *MockSagaStarter {
	return &MockSagaStarter{Started: make(chan uuid.UUID, 8)}
}

func (m *MockSagaStarter) StartSaga(ctx context.Context, order *entity.Order, paymentMethod string) {
	m.Started <- order.ID
}

func (m *MockSagaStarter) waitStarted(t *testing.T) uuid.UUID {
	t.Helper()
	select {
	case orderID := <-m.Started:
		return orderID
	case <-time.After(time.Second):
		t.Fatal("сага не была запущена")
		return uuid.Nil
	}
}

func newOrderUseCaseEnv() (*OrderUseCase, *memoryOrderRepo, *MockNotificationService, *MockSagaStarter) {
	repo := newMemoryOrderRepo()
	notifier := new(MockNotificationService)
	saga := NewMockSagaStarter()
	uc := NewOrderUseCase(repo, notifier, saga, NewOrderLocks())
	return uc, repo, notifier, saga
}

func assertServiceErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	var se *apperrors.ServiceError
	require.True(t, errors.As(err, &se), "ожидалась ServiceError, получено: %v", err)
	assert.Equal(t, code, se.Code)
}

func TestCreateOrderComputesTotal(t *testing.T) {
	uc, repo, notifier, saga := newOrderUseCaseEnv()
	userID := uuid.New()

	resp, err := uc.CreateOrder(context.Background(), userID, entity.CreateOrderRequest{
		Items: []entity.CreateOrderItemRequest{
			{ProductID: uuid.New(), Quantity: 2, Price: 10.00},
			{ProductID: uuid.New(), Quantity: 1, Price: 5.00},
		},
	})
	require.NoError(t, err)

	// Сумма всегда вычисляется по позициям
	assert.Equal(t, 25.00, resp.TotalAmount)
	assert.Equal(t, entity.OrderStatusPending, resp.Status)

	startedID := saga.waitStarted(t)
	assert.Equal(t, resp.OrderID, startedID)

	stored, err := repo.GetByID(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, stored.Status)
	assert.Equal(t, entity.SagaStateOrchestrating, stored.SagaState)
	assert.Equal(t, 25.00, stored.TotalAmount)

	assert.Len(t, notifier.byType(NotificationOrderCreated), 1)
}

func TestCreateOrderValidation(t *testing.T) {
	uc, _, _, _ := newOrderUseCaseEnv()
	userID := uuid.New()

	_, err := uc.CreateOrder(context.Background(), userID, entity.CreateOrderRequest{})
	assertServiceErrorCode(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(context.Background(), userID, entity.CreateOrderRequest{
		Items: []entity.CreateOrderItemRequest{{ProductID: uuid.New(), Quantity: 0, Price: 10.00}},
	})
	assertServiceErrorCode(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(context.Background(), userID, entity.CreateOrderRequest{
		Items: []entity.CreateOrderItemRequest{{ProductID: uuid.New(), Quantity: 1, Price: -5.00}},
	})
	assertServiceErrorCode(t, err, http.StatusBadRequest)
}

func TestCreateOrderNotificationFailureIgnored(t *testing.T) {
	uc, _, notifier, saga := newOrderUseCaseEnv()
	notifier.Err = errors.New("сервис уведомлений недоступен")

	resp, err := uc.CreateOrder(context.Background(), uuid.New(), entity.CreateOrderRequest{
		Items: []entity.CreateOrderItemRequest{{ProductID: uuid.New(), Quantity: 1, Price: 10.00}},
	})

	// Недоступность уведомлений не мешает созданию заказа
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, resp.Status)
	saga.waitStarted(t)
}

func TestGetOrderForbiddenForOtherUser(t *testing.T) {
	uc, repo, _, _ := newOrderUseCaseEnv()

	order := &entity.Order{
		UserID:      uuid.New(),
		TotalAmount: 10.00,
		Status:      entity.OrderStatusPending,
		SagaState:   entity.SagaStateOrchestrating,
	}
	require.NoError(t, repo.Create(order))

	_, err := uc.GetOrder(context.Background(), uuid.New(), order.ID)
	assertServiceErrorCode(t, err, http.StatusForbidden)
}

func TestGetOrderNotFound(t *testing.T) {
	uc, _, _, _ := newOrderUseCaseEnv()

	_, err := uc.GetOrder(context.Background(), uuid.New(), uuid.New())
	assertServiceErrorCode(t, err, http.StatusNotFound)
}

func TestCancelOrderGuards(t *testing.T) {
	tests := []struct {
		name      string
		status    entity.OrderStatus
		sagaState entity.SagaState
		wantCode  int // 0 - отмена разрешена
	}{
		{"ожидающий заказ отменяется", entity.OrderStatusPending, entity.SagaStateOrchestrating, 0},
		{"неуспешный заказ отменяется", entity.OrderStatusFailed, entity.SagaStateFailed, 0},
		{"заказ в обработке не отменяется", entity.OrderStatusProcessing, entity.SagaStateOrchestrating, http.StatusConflict},
		{"заказ в компенсации не отменяется", entity.OrderStatusProcessing, entity.SagaStateCompensating, http.StatusConflict},
		{"выполненный заказ не отменяется", entity.OrderStatusCompleted, entity.SagaStateCompleted, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, _, _ := newOrderUseCaseEnv()
			userID := uuid.New()

			order := &entity.Order{
				UserID:      userID,
				TotalAmount: 10.00,
				Status:      tt.status,
				SagaState:   tt.sagaState,
			}
			require.NoError(t, repo.Create(order))

			resp, err := uc.CancelOrder(context.Background(), userID, order.ID, "передумал")
			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, entity.OrderStatusCancelled, resp.Status)

				stored, err := repo.GetByID(order.ID)
				require.NoError(t, err)
				assert.Equal(t, entity.OrderStatusCancelled, stored.Status)
			} else {
				assertServiceErrorCode(t, err, tt.wantCode)
			}
		})
	}
}

func TestCancelOrderForbiddenForOtherUser(t *testing.T) {
	uc, repo, _, _ := newOrderUseCaseEnv()

	order := &entity.Order{
		UserID:    uuid.New(),
		Status:    entity.OrderStatusPending,
		SagaState: entity.SagaStateOrchestrating,
	}
	require.NoError(t, repo.Create(order))

	_, err := uc.CancelOrder(context.Background(), uuid.New(), order.ID, "")
	assertServiceErrorCode(t, err, http.StatusForbidden)
}

func TestGetStatistics(t *testing.T) {
	uc, repo, _, _ := newOrderUseCaseEnv()
	userID := uuid.New()

	statuses := []struct {
		status entity.OrderStatus
		saga   entity.SagaState
	}{
		{entity.OrderStatusPending, entity.SagaStateOrchestrating},
		{entity.OrderStatusProcessing, entity.SagaStateOrchestrating},
		{entity.OrderStatusCompleted, entity.SagaStateCompleted},
		{entity.OrderStatusCompleted, entity.SagaStateCompleted},
		{entity.OrderStatusFailed, entity.SagaStateFailed},
		{entity.OrderStatusCancelled, entity.SagaStateFailed},
	}
	for _, s := range statuses {
		require.NoError(t, repo.Create(&entity.Order{
			UserID:    userID,
			Status:    s.status,
			SagaState: s.saga,
		}))
	}

	stats, err := uc.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(2), stats.CompletedOrders)
	assert.Equal(t, int64(1), stats.FailedOrders)
	assert.Equal(t, int64(1), stats.CancelledOrders)
}

func TestListUserOrders(t *testing.T) {
	uc, repo, _, _ := newOrderUseCaseEnv()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(&entity.Order{
			UserID:    userID,
			Status:    entity.OrderStatusPending,
			SagaState: entity.SagaStateOrchestrating,
		}))
	}
	require.NoError(t, repo.Create(&entity.Order{
		UserID:    uuid.New(),
		Status:    entity.OrderStatusPending,
		SagaState: entity.SagaStateOrchestrating,
	}))

	resp, err := uc.ListUserOrders(context.Background(), userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Orders, 3)
}
