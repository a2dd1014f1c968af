package stripe

import (
	"errors"

	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Config конфигурация клиента Stripe
type Config struct {
	APIKey        string
	WebhookSecret string
}

// Gateway реализует gateway.PaymentGateway через Stripe SDK
type Gateway struct {
	client        *client.API
	webhookSecret string
	log           *logger.Logger
}

// NewGateway создает новый экземпляр шлюза Stripe
func NewGateway(cfg Config, log *logger.Logger) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	return &Gateway{
		client:        sc,
		webhookSecret: cfg.WebhookSecret,
		log:           log,
	}
}

var _ gateway.PaymentGateway = (*Gateway)(nil)

// logStripeError вспомогательная функция для логирования деталей ошибки Stripe
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"param", stripeErr.Param,
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", err,
		)
	}
}
