package handlers

import (
	"net/http"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/Dhoini/Billing-microservice/pkg/req"
	"github.com/gin-gonic/gin"
)

// AccountHandler обработчик для учетных записей портала
type AccountHandler struct {
	service service.AccountService
	log     *logger.Logger
}

// NewAccountHandler создает новый обработчик учетных записей
func NewAccountHandler(svc service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		service: svc,
		log:     log,
	}
}

// CompletePasswordSetup активирует учетную запись по токену установки пароля
func (h *AccountHandler) CompletePasswordSetup(c *gin.Context) {
	body, err := req.HandleBody[domain.PasswordSetupRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	email, err := h.service.CompletePasswordSetup(c.Request.Context(), body.Token)
	if err != nil {
		h.log.Warn("Failed to complete password setup: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email})
}

// RequestPasswordReset выпускает токен сброса пароля и отправляет письмо
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	body, err := req.HandleBody[domain.PasswordResetRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		h.log.Warn("Failed to request password reset: %v", err)
		respondError(c, err)
		return
	}

	// Ответ одинаков для известных и неизвестных адресов
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// VerifyPasswordReset проверяет токен сброса и возвращает email владельца
func (h *AccountHandler) VerifyPasswordReset(c *gin.Context) {
	body, err := req.HandleBody[domain.PasswordSetupRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	email, err := h.service.VerifyPasswordReset(c.Request.Context(), body.Token)
	if err != nil {
		h.log.Warn("Failed to verify password reset token: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email})
}
