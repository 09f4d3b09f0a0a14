package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/minicommerce/internal/entity"
)

// Мок публикатора сообщений с историей вызовов
type MockMessagePublisher struct {
	History []publishedMessage
	Err     error
}

type publishedMessage struct {
	Exchange   string
	RoutingKey string
	Message    interface{}
	Retries    int
}

func (m *MockMessagePublisher) PublishMessage(exchange, routingKey string, message interface{}) error {
	m.History = append(m.History, publishedMessage{Exchange: exchange, RoutingKey: routingKey, Message: message})
	return m.Err
}

func (m *MockMessagePublisher) PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error {
	m.History = append(m.History, publishedMessage{Exchange: exchange, RoutingKey: routingKey, Message: message, Retries: retries})
	return m.Err
}

func TestInProcessEventBusDeliversToHandler(t *testing.T) {
	bus := NewInProcessEventBus(nil)

	var handled entity.Event
	bus.SetHandler(func(ctx context.Context, event entity.Event) error {
		handled = event
		return nil
	})

	event := entity.NewOrderFailedEvent(uuid.New(), uuid.New(), "тест")
	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Equal(t, event, handled)
}

func TestInProcessEventBusWithoutHandler(t *testing.T) {
	bus := NewInProcessEventBus(nil)

	err := bus.Publish(context.Background(), entity.NewOrderFailedEvent(uuid.New(), uuid.New(), "тест"))
	assert.Error(t, err)
}

func TestInProcessEventBusMirrorFailureIgnored(t *testing.T) {
	mirror := NewRabbitMQEventPublisher(&MockMessagePublisher{Err: errors.New("брокер недоступен")}, "order_events")
	bus := NewInProcessEventBus(mirror)

	handled := false
	bus.SetHandler(func(ctx context.Context, event entity.Event) error {
		handled = true
		return nil
	})

	// Недоступность зеркала не мешает доставке обработчику
	err := bus.Publish(context.Background(), entity.NewOrderCompletedEvent(uuid.New(), uuid.New(), "pay-1", 25.00))
	require.NoError(t, err)
	assert.True(t, handled)
}

func TestRabbitMQEventPublisherRoutingKey(t *testing.T) {
	publisher := &MockMessagePublisher{}
	mirror := NewRabbitMQEventPublisher(publisher, "order_events")

	event := entity.NewInventoryReleasedEvent(uuid.New(), uuid.New(), "res-1", "компенсация")
	require.NoError(t, mirror.Publish(context.Background(), event))

	require.Len(t, publisher.History, 1)
	assert.Equal(t, "order_events", publisher.History[0].Exchange)
	assert.Equal(t, "order.event.InventoryReleased", publisher.History[0].RoutingKey)
	// Зеркало публикуется с повторными попытками
	assert.Equal(t, mirrorPublishRetries, publisher.History[0].Retries)
}
