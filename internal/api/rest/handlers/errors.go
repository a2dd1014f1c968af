package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError транслирует доменную ошибку в HTTP-статус и JSON-ответ
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, domain.ErrWrongPurpose):
		c.JSON(http.StatusForbidden, gin.H{"error": "Token not valid for this operation"})
	case errors.Is(err, domain.ErrDuplicateClient):
		c.JSON(http.StatusConflict, gin.H{"error": "Client with this email already exists"})
	case errors.Is(err, domain.ErrClientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
	case errors.Is(err, domain.ErrAlreadyOnboarded):
		c.JSON(http.StatusConflict, gin.H{"error": "Client already onboarded"})
	case errors.Is(err, domain.ErrPaymentMethodRejected):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment method was rejected"})
	case errors.Is(err, domain.ErrCatalog):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Billing catalog unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
