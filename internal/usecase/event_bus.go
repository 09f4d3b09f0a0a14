package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/pkg/messaging"
)

// InProcessEventBus доставляет события оркестратору синхронно в рамках
// одного процесса. Дополнительно события зеркалируются во внешний публикатор,
// если он задан.
type InProcessEventBus struct {
	mu      sync.RWMutex
	handler EventHandler
	mirror  EventPublisher
	logger  *log.Logger
}

func NewInProcessEventBus(mirror EventPublisher) *InProcessEventBus {
	return &InProcessEventBus{
		mirror: mirror,
		logger: log.New(log.Writer(), "[EventBus] ", log.LstdFlags),
	}
}

// SetHandler задаёт обработчик событий. Должен быть установлен до первой публикации.
func (b *InProcessEventBus) SetHandler(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

// Publish доставляет событие обработчику и зеркалирует во внешний публикатор.
// Ошибка зеркалирования логируется, но не прерывает обработку.
func (b *InProcessEventBus) Publish(ctx context.Context, event entity.Event) error {
	b.mu.RLock()
	handler := b.handler
	mirror := b.mirror
	b.mu.RUnlock()

	if mirror != nil {
		if err := mirror.Publish(ctx, event); err != nil {
			b.logger.Printf("[WARN] Не удалось зеркалировать событие %s заказа %s: %v", event.EventType(), event.GetOrderID(), err)
		}
	}

	if handler == nil {
		return fmt.Errorf("обработчик событий не установлен")
	}

	return handler(ctx, event)
}

// Количество повторных попыток публикации зеркала, чтобы кратковременная
// недоступность брокера не теряла события для внешних потребителей
const mirrorPublishRetries = 2

// RabbitMQEventPublisher публикует события заказов в RabbitMQ
type RabbitMQEventPublisher struct {
	publisher messaging.MessagePublisher
	exchange  string
}

func NewRabbitMQEventPublisher(publisher messaging.MessagePublisher, exchange string) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		publisher: publisher,
		exchange:  exchange,
	}
}

// Publish отправляет событие в обменник с ключом маршрутизации по типу события
func (p *RabbitMQEventPublisher) Publish(ctx context.Context, event entity.Event) error {
	routingKey := fmt.Sprintf("order.event.%s", event.EventType())
	if err := p.publisher.PublishMessageWithRetry(p.exchange, routingKey, event, mirrorPublishRetries); err != nil {
		return fmt.Errorf("ошибка публикации события %s: %w", event.EventType(), err)
	}
	return nil
}
