package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes ограничение размера тела вебхука
const maxWebhookBodyBytes = 65536

// WebhookHandler обработчик вебхуков платежного провайдера
type WebhookHandler struct {
	gw         gateway.PaymentGateway
	reconciler service.ReconcilerService
	log        *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(gw gateway.PaymentGateway, reconciler service.ReconcilerService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		gw:         gw,
		reconciler: reconciler,
		log:        log,
	}
}

// HandleProviderWebhook принимает и обрабатывает вебхук от Stripe.
// Только ошибка подписи дает 4xx: бизнес-исходы отвечаем 2xx, чтобы
// провайдер не ретраил события, которые мы осознанно проигнорировали.
func (h *WebhookHandler) HandleProviderWebhook(c *gin.Context) {
	// Подпись считается от сырого тела, без пересериализации
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read webhook body"})
		return
	}

	event, err := h.gw.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrSignature) {
			h.log.Warn("Webhook signature verification failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
			return
		}
		h.log.Error("Failed to parse webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	if event == nil {
		// Верифицированное событие типа, который нас не интересует
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.reconciler.ProcessEvent(c.Request.Context(), *event); err != nil {
		// Ошибка хранилища: отвечаем 5xx, провайдер доставит событие повторно
		h.log.Error("Failed to process provider event %s: %v", event.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
