package config

import (
	"time"

	"github.com/director74/minicommerce/pkg/config"
)

// Config содержит полную конфигурацию сервиса заказов
type Config struct {
	Common   *config.CommonConfig
	JWT      *config.JWTConfig
	Services ServicesConfig
	Saga     SagaConfig
	Internal InternalAPIConfig
}

// ServicesConfig содержит адреса сервисов, участвующих в саге
type ServicesConfig struct {
	InventoryURL    string
	PaymentURL      string
	NotificationURL string
}

// SagaConfig содержит настройки выполнения шагов саги
type SagaConfig struct {
	StepTimeout   time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	DedupTTL      time.Duration
	EventExchange string
	EventQueue    string
}

// InternalAPIConfig содержит настройки служебного API
type InternalAPIConfig struct {
	APIKey string
}

// NewConfig загружает конфигурацию сервиса заказов из переменных окружения
func NewConfig() (*Config, error) {
	return &Config{
		Common: config.LoadCommonConfig("orders", "8080"),
		JWT:    config.LoadJWTConfig("order-service"),
		Services: ServicesConfig{
			InventoryURL:    config.GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
			PaymentURL:      config.GetEnv("PAYMENT_SERVICE_URL", "http://localhost:8082"),
			NotificationURL: config.GetEnv("NOTIFICATION_SERVICE_URL", "http://localhost:8083"),
		},
		Saga: SagaConfig{
			StepTimeout:   config.GetEnvAsDuration("SAGA_STEP_TIMEOUT", 10*time.Second),
			RetryAttempts: config.GetEnvAsInt("SAGA_RETRY_ATTEMPTS", 3),
			RetryBackoff:  config.GetEnvAsDuration("SAGA_RETRY_BACKOFF", 500*time.Millisecond),
			DedupTTL:      config.GetEnvAsDuration("SAGA_DEDUP_TTL", 24*time.Hour),
			EventExchange: config.GetEnv("SAGA_EVENT_EXCHANGE", "order_events"),
			EventQueue:    config.GetEnv("SAGA_EVENT_QUEUE", "order_saga_events"),
		},
		Internal: InternalAPIConfig{
			APIKey: config.GetEnv("INTERNAL_API_KEY", "internal-api-key"),
		},
	}, nil
}
