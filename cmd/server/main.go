package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Billing-microservice/config"
	"github.com/Dhoini/Billing-microservice/internal/api/rest"
	"github.com/Dhoini/Billing-microservice/internal/catalog"
	stripegw "github.com/Dhoini/Billing-microservice/internal/gateway/stripe"
	"github.com/Dhoini/Billing-microservice/internal/kafka"
	"github.com/Dhoini/Billing-microservice/internal/kafka/producer"
	"github.com/Dhoini/Billing-microservice/internal/metrics"
	"github.com/Dhoini/Billing-microservice/internal/notifications"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/internal/repository/postgres"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/internal/token"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var log *logger.Logger

func init() {
	// .env опционален, в проде конфигурация приходит из окружения
	_ = godotenv.Load()

	logLevel := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(promRegistry, log)

	// Подключение к базе данных
	dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// Подключение к Redis
	cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	// Репозитории
	clientRepo := repository.NewCachedClientRepository(
		postgres.NewPostgresClientRepository(dbPool, log),
		cache,
		log,
	)
	accountRepo := postgres.NewPostgresAccountRepository(dbPool, log)

	// Топики Kafka
	if err := kafka.EnsureKafkaTopics(cfg.Kafka.Brokers, log); err != nil {
		log.Fatal("Failed to ensure Kafka topics: %v", err)
	}

	// Продюсер событий биллинга
	kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
	saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

	saramaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
	if err != nil {
		log.Fatal("Failed to create Kafka producer: %v", err)
	}
	defer saramaProducer.Close()

	billingProducer := producer.NewKafkaBillingProducer(saramaProducer, log)

	// Очередь заданий на письма
	jobProducer, err := kafka.NewKafkaJobProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		log.Fatal("Failed to create Kafka job producer: %v", err)
	}
	defer jobProducer.Close()

	emailSender := notifications.NewKafkaEmailSender(jobProducer, cfg.Notifications.PortalBaseURL, log)

	// Платежный провайдер и каталог
	paymentGateway := stripegw.NewGateway(stripegw.Config{
		APIKey:        cfg.Stripe.APIKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, log)
	priceResolver := catalog.NewResolver(paymentGateway, cfg.Stripe.ProductName, log)

	// Токены действий
	tokenIssuer := token.NewIssuer(cfg.Tokens.Secret, cfg.Tokens.Issuer, log)

	// Сервисы
	onboardingService := service.NewOnboardingService(
		clientRepo, accountRepo, paymentGateway, priceResolver, tokenIssuer,
		emailSender, billingProducer, billingMetrics, cfg.Stripe.Currency, log,
	)
	accountService := service.NewAccountService(accountRepo, tokenIssuer, emailSender, log)
	reconcilerService := service.NewReconcilerService(
		clientRepo, accountRepo, paymentGateway, billingProducer, billingMetrics, log,
	)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(log, promRegistry, rest.Services{
		Onboarding: onboardingService,
		Accounts:   accountService,
		Reconciler: reconcilerService,
		Clients:    clientRepo,
		Gateway:    paymentGateway,
	})

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
