package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/director74/minicommerce/config"
	httpController "github.com/director74/minicommerce/internal/controller/http"
	"github.com/director74/minicommerce/internal/entity"
	"github.com/director74/minicommerce/internal/repo"
	"github.com/director74/minicommerce/internal/usecase"
	"github.com/director74/minicommerce/internal/usecase/webapi"
	"github.com/director74/minicommerce/pkg/auth"
	"github.com/director74/minicommerce/pkg/database"
	"github.com/director74/minicommerce/pkg/errors"
	"github.com/director74/minicommerce/pkg/messaging"
	"github.com/director74/minicommerce/pkg/middleware"
	"github.com/director74/minicommerce/pkg/rabbitmq"
	"github.com/director74/minicommerce/pkg/redisx"
	"github.com/director74/minicommerce/pkg/retry"
)

// App представляет приложение сервиса заказов
type App struct {
	config     *config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	rabbitMQ   *rabbitmq.RabbitMQ
}

func NewApp(cfg *config.Config) (*App, error) {
	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Common.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "не удалось подключиться к базе данных")
	}

	if err := database.AutoMigrateWithCleanup(db, &entity.User{}, &entity.Order{}, &entity.OrderItem{}); err != nil {
		return nil, errors.AppendPrefix(err, "не удалось выполнить миграцию")
	}

	// Инициализируем подключение к Redis для дедупликации событий
	redisClient, err := redisx.NewClient(cfg.Common.Redis)
	if err != nil {
		database.CloseDB(db)
		return nil, errors.AppendPrefix(err, "не удалось подключиться к Redis")
	}

	// Инициализируем подключение к RabbitMQ
	rmq, err := messaging.InitRabbitMQ(cfg.Common.RabbitMQ)
	if err != nil {
		database.CloseDB(db)
		redisx.CloseClient(redisClient)
		return nil, errors.AppendPrefix(err, "не удалось подключиться к RabbitMQ")
	}

	// Настраиваем exchange для зеркалирования событий заказов и durable
	// очередь, из которой их читают внешние потребители
	exchanges := map[string]string{
		cfg.Saga.EventExchange: "topic",
	}
	queues := map[string]map[string]string{
		cfg.Saga.EventQueue: {
			cfg.Saga.EventExchange: "order.event.#",
		},
	}

	if err := messaging.SetupExchangesAndQueues(rmq, exchanges, queues); err != nil {
		database.CloseDB(db)
		redisx.CloseClient(redisClient)
		rmq.Close()
		return nil, errors.AppendPrefix(err, "ошибка при настройке RabbitMQ")
	}

	// Инициализируем JWT менеджер
	jwtConfig := auth.NewConfig(cfg.JWT.SigningKey)
	jwtConfig.TokenTTL = cfg.JWT.TokenTTL
	jwtConfig.TokenIssuer = cfg.JWT.TokenIssuer
	jwtConfig.TokenAudiences = cfg.JWT.TokenAudiences
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Создаем репозитории
	userRepo := repo.NewUserRepository(db)
	orderRepo := repo.NewOrderRepository(db)
	processedRepo := repo.NewProcessedEventRepository(redisClient, cfg.Saga.DedupTTL)

	// Создаем клиенты сервисов, участвующих в саге
	inventoryClient := webapi.NewInventoryClient(cfg.Services.InventoryURL, cfg.Saga.StepTimeout)
	paymentClient := webapi.NewPaymentClient(cfg.Services.PaymentURL, cfg.Saga.StepTimeout)
	notificationClient := webapi.NewNotificationClient(cfg.Services.NotificationURL, cfg.Saga.StepTimeout)

	// Шина событий: синхронная доставка оркестратору с зеркалом в RabbitMQ
	mirror := usecase.NewRabbitMQEventPublisher(rmq, cfg.Saga.EventExchange)
	eventBus := usecase.NewInProcessEventBus(mirror)

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.Saga.RetryAttempts,
		Backoff:     cfg.Saga.RetryBackoff,
	}

	locks := usecase.NewOrderLocks()
	orchestrator := usecase.NewSagaOrchestrator(
		orderRepo, inventoryClient, paymentClient, notificationClient,
		eventBus, processedRepo, locks, retryPolicy, cfg.Saga.StepTimeout,
	)
	eventBus.SetHandler(orchestrator.HandleEvent)

	// Создаем use cases
	authUseCase := usecase.NewAuthUseCase(userRepo, jwtManager)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, notificationClient, orchestrator, locks)

	// Создаем middleware
	authMiddleware := auth.NewAuthMiddleware(jwtManager)
	internalMiddleware := middleware.NewInternalAPIMiddleware(cfg.Internal.APIKey)

	// Создаем HTTP контроллеры
	authHandler := httpController.NewAuthHandler(authUseCase)
	orderHandler := httpController.NewOrderHandler(orderUseCase)

	// Инициализируем Gin роутер
	router := gin.Default()

	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	authHandler.RegisterRoutes(api)

	authorized := api.Group("")
	authorized.Use(authMiddleware.AuthRequired())
	orderHandler.RegisterRoutes(authorized)

	internal := router.Group("/internal/v1")
	internal.Use(internalMiddleware.Required())
	orderHandler.RegisterInternalRoutes(internal)

	// Настраиваем HTTP сервер
	httpServer := &http.Server{
		Addr:         ":" + cfg.Common.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.Common.HTTP.ReadTimeout,
		WriteTimeout: cfg.Common.HTTP.WriteTimeout,
	}

	return &App{
		config:     cfg,
		httpServer: httpServer,
		db:         db,
		redis:      redisClient,
		rabbitMQ:   rmq,
	}, nil
}

// Run запускает приложение
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем HTTP сервер в горутине
	go func() {
		log.Printf("HTTP сервер запущен на порту %s", a.config.Common.HTTP.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка запуска HTTP сервера: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Получен сигнал завершения, закрываем приложение...")
	case <-ctx.Done():
		log.Println("Контекст завершен, закрываем приложение...")
	}

	return a.Shutdown()
}

// Shutdown корректно завершает работу приложения
func (a *App) Shutdown() error {
	errGroup := errors.NewErrorGroup()

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.httpServer.Shutdown(ctx); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии HTTP сервера")
		}
	}

	if a.rabbitMQ != nil {
		a.rabbitMQ.Close()
	}

	if a.redis != nil {
		if err := redisx.CloseClient(a.redis); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии соединения с Redis")
		}
	}

	if a.db != nil {
		if err := database.CloseDB(a.db); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии соединения с базой данных")
		}
	}

	if errGroup.HasErrors() {
		errors.LogError(errGroup, "Shutdown")
		return errGroup
	}

	log.Println("Приложение успешно завершено")
	return nil
}
