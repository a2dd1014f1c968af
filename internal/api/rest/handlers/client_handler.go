package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/internal/service"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientHandler обработчик административных операций с клиентами
type ClientHandler struct {
	service service.OnboardingService
	clients repository.ClientRepository
	log     *logger.Logger
}

// NewClientHandler создает новый обработчик клиентов
func NewClientHandler(svc service.OnboardingService, clients repository.ClientRepository, log *logger.Logger) *ClientHandler {
	return &ClientHandler{
		service: svc,
		clients: clients,
		log:     log,
	}
}

// GetClient возвращает клиента по ID
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.log.Warn("Invalid client ID format: %s", c.Param("id"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
		return
	}

	client, err := h.clients.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		h.log.Error("Failed to get client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get client"})
		return
	}

	c.JSON(http.StatusOK, client)
}

// CancelClient отменяет подписку клиента по решению администратора
func (h *ClientHandler) CancelClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.log.Warn("Invalid client ID format: %s", c.Param("id"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
		return
	}

	if err := h.service.CancelClient(c.Request.Context(), id); err != nil {
		h.log.Warn("Failed to cancel client %s: %v", id, err)
		respondError(c, err)
		return
	}

	h.log.Info("Client %s cancelled", id)
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
