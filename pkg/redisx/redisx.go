package redisx

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/director74/minicommerce/pkg/config"
)

// NewClient создает подключение к Redis и проверяет его доступность
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	return client, nil
}

// CloseClient закрывает подключение к Redis
func CloseClient(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("ошибка при закрытии соединения с Redis: %w", err)
	}
	return nil
}
