package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const processedEventKeyPrefix = "saga:processed:"

// ProcessedEventRepository хранит отметки об обработанных событиях саги
// для защиты от повторной доставки
type ProcessedEventRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProcessedEventRepository(client *redis.Client, ttl time.Duration) *ProcessedEventRepository {
	return &ProcessedEventRepository{
		client: client,
		ttl:    ttl,
	}
}

func processedEventKey(orderID uuid.UUID, eventType string) string {
	return fmt.Sprintf("%s%s:%s", processedEventKeyPrefix, orderID, eventType)
}

// MarkProcessed атомарно помечает событие как обработанное.
// Возвращает false, если событие уже было обработано ранее.
func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, orderID uuid.UUID, eventType string) (bool, error) {
	ok, err := r.client.SetNX(ctx, processedEventKey(orderID, eventType), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка отметки события %s для заказа %s: %w", eventType, orderID, err)
	}
	return ok, nil
}

// ClearProcessed снимает отметку об обработке, возвращая событию право
// на повторную доставку после ошибки обработчика
func (r *ProcessedEventRepository) ClearProcessed(ctx context.Context, orderID uuid.UUID, eventType string) error {
	if err := r.client.Del(ctx, processedEventKey(orderID, eventType)).Err(); err != nil {
		return fmt.Errorf("ошибка снятия отметки события %s для заказа %s: %w", eventType, orderID, err)
	}
	return nil
}

// IsProcessed проверяет, было ли событие уже обработано
func (r *ProcessedEventRepository) IsProcessed(ctx context.Context, orderID uuid.UUID, eventType string) (bool, error) {
	n, err := r.client.Exists(ctx, processedEventKey(orderID, eventType)).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки события %s для заказа %s: %w", eventType, orderID, err)
	}
	return n > 0, nil
}
