package handlers

import (
	"net/http"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/Dhoini/Billing-microservice/pkg/req"
	"github.com/gin-gonic/gin"
)

// OnboardingHandler обработчик для онбординга клиентов
type OnboardingHandler struct {
	service service.OnboardingService
	log     *logger.Logger
}

// NewOnboardingHandler создает новый обработчик онбординга
func NewOnboardingHandler(svc service.OnboardingService, log *logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		service: svc,
		log:     log,
	}
}

// BeginOnboarding создает клиента и платежную ссылку
func (h *OnboardingHandler) BeginOnboarding(c *gin.Context) {
	body, err := req.HandleBody[domain.BeginOnboardingRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	link, err := h.service.BeginOnboarding(c.Request.Context(), *body)
	if err != nil {
		h.log.Warn("Failed to begin onboarding: %v", err)
		respondError(c, err)
		return
	}

	h.log.Info("Onboarding link created for client %s", link.ClientID)
	c.JSON(http.StatusCreated, link)
}

// CompleteOnboarding завершает онбординг по токену из платежной ссылки
func (h *OnboardingHandler) CompleteOnboarding(c *gin.Context) {
	body, err := req.HandleBody[domain.CompleteOnboardingRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	result, err := h.service.CompleteOnboarding(c.Request.Context(), *body)
	if err != nil {
		h.log.Warn("Failed to complete onboarding: %v", err)
		respondError(c, err)
		return
	}

	h.log.Info("Onboarding completed for client %s", result.ClientID)
	c.JSON(http.StatusOK, result)
}
