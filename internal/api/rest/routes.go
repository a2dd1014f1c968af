package rest

import (
	"github.com/Dhoini/Billing-microservice/internal/api/rest/handlers"
	"github.com/Dhoini/Billing-microservice/internal/api/rest/middleware"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services зависимости маршрутизатора
type Services struct {
	Onboarding service.OnboardingService
	Accounts   service.AccountService
	Reconciler service.ReconcilerService
	Clients    repository.ClientRepository
	Gateway    gateway.PaymentGateway
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(log *logger.Logger, registry *prometheus.Registry, svc Services) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	onboardingHandler := handlers.NewOnboardingHandler(svc.Onboarding, log)
	accountHandler := handlers.NewAccountHandler(svc.Accounts, log)
	clientHandler := handlers.NewClientHandler(svc.Onboarding, svc.Clients, log)
	webhookHandler := handlers.NewWebhookHandler(svc.Gateway, svc.Reconciler, log)

	v1 := r.Group("/api/v1")
	{
		// Онбординг клиентов
		onboarding := v1.Group("/onboarding")
		{
			onboarding.POST("/links", onboardingHandler.BeginOnboarding)
			onboarding.POST("/complete", onboardingHandler.CompleteOnboarding)
		}

		// Клиенты
		clients := v1.Group("/clients")
		{
			clients.GET("/:id", clientHandler.GetClient)
			clients.DELETE("/:id", clientHandler.CancelClient)
		}

		// Учетные записи портала
		accounts := v1.Group("/accounts")
		{
			accounts.POST("/password/setup", accountHandler.CompletePasswordSetup)
			accounts.POST("/password/reset", accountHandler.RequestPasswordReset)
			accounts.POST("/password/reset/verify", accountHandler.VerifyPasswordReset)
		}
	}

	// Вебхуки на корневом уровне роутера
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", webhookHandler.HandleProviderWebhook)
	}

	return r
}
