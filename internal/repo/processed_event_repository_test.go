package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProcessedEventRepo(t *testing.T) (*ProcessedEventRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewProcessedEventRepository(client, time.Hour), mr
}

func TestMarkProcessedFirstTime(t *testing.T) {
	repo, _ := setupProcessedEventRepo(t)

	orderID := uuid.New()
	ok, err := repo.MarkProcessed(context.Background(), orderID, "PaymentProcessed")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkProcessedDuplicate(t *testing.T) {
	repo, _ := setupProcessedEventRepo(t)

	orderID := uuid.New()
	ctx := context.Background()

	ok, err := repo.MarkProcessed(ctx, orderID, "OrderCompleted")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkProcessed(ctx, orderID, "OrderCompleted")
	require.NoError(t, err)
	assert.False(t, ok, "повторная отметка того же события должна вернуть false")
}

func TestMarkProcessedDifferentEventTypes(t *testing.T) {
	repo, _ := setupProcessedEventRepo(t)

	orderID := uuid.New()
	ctx := context.Background()

	ok, err := repo.MarkProcessed(ctx, orderID, "InventoryReserved")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkProcessed(ctx, orderID, "PaymentProcessed")
	require.NoError(t, err)
	assert.True(t, ok, "разные типы событий одного заказа не должны конфликтовать")
}

func TestIsProcessed(t *testing.T) {
	repo, _ := setupProcessedEventRepo(t)

	orderID := uuid.New()
	ctx := context.Background()

	processed, err := repo.IsProcessed(ctx, orderID, "OrderFailed")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = repo.MarkProcessed(ctx, orderID, "OrderFailed")
	require.NoError(t, err)

	processed, err = repo.IsProcessed(ctx, orderID, "OrderFailed")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestMarkProcessedExpires(t *testing.T) {
	repo, mr := setupProcessedEventRepo(t)

	orderID := uuid.New()
	ctx := context.Background()

	ok, err := repo.MarkProcessed(ctx, orderID, "InventoryReleased")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Hour)

	ok, err = repo.MarkProcessed(ctx, orderID, "InventoryReleased")
	require.NoError(t, err)
	assert.True(t, ok, "после истечения TTL отметка должна ставиться заново")
}

func TestClearProcessedAllowsRedelivery(t *testing.T) {
	repo, _ := setupProcessedEventRepo(t)

	ctx := context.Background()
	orderID := uuid.New()
	ok, err := repo.MarkProcessed(ctx, orderID, "InventoryReserved")
	require.NoError(t, err)
	require.True(t, ok)

	// После снятия отметки событие снова считается необработанным
	require.NoError(t, repo.ClearProcessed(ctx, orderID, "InventoryReserved"))

	processed, err := repo.IsProcessed(ctx, orderID, "InventoryReserved")
	require.NoError(t, err)
	assert.False(t, processed)

	ok, err = repo.MarkProcessed(ctx, orderID, "InventoryReserved")
	require.NoError(t, err)
	assert.True(t, ok)
}
