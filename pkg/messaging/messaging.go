package messaging

import (
	"github.com/director74/minicommerce/pkg/config"
	"github.com/director74/minicommerce/pkg/rabbitmq"
)

// MessagePublisher интерфейс для публикации сообщений
type MessagePublisher interface {
	PublishMessage(exchange, routingKey string, message interface{}) error
	PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error
}

// MessageBroker объединяет публикацию сообщений и настройку топологии
// обменников и очередей
type MessageBroker interface {
	MessagePublisher
	DeclareExchange(name string, kind string) error
	DeclareQueue(name string) error
	BindQueue(queueName, exchangeName, routingKey string) error
	Close() error
}

// InitRabbitMQ инициализирует подключение к RabbitMQ с общими параметрами
func InitRabbitMQ(cfg config.RabbitMQConfig) (*rabbitmq.RabbitMQ, error) {
	rmqCfg := rabbitmq.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		VHost:    cfg.VHost,
	}

	return rabbitmq.NewRabbitMQ(rmqCfg)
}

// SetupExchangesAndQueues настраивает exchanges и очереди для сервиса
func SetupExchangesAndQueues(broker MessageBroker, exchanges map[string]string, queues map[string]map[string]string) error {
	for name, kind := range exchanges {
		if err := broker.DeclareExchange(name, kind); err != nil {
			return err
		}
	}

	for queueName, bindings := range queues {
		if err := broker.DeclareQueue(queueName); err != nil {
			return err
		}

		for exchangeName, routingKey := range bindings {
			if err := broker.BindQueue(queueName, exchangeName, routingKey); err != nil {
				return err
			}
		}
	}

	return nil
}
