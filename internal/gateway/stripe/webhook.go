package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// VerifyWebhook проверяет подпись сырого тела вебхука и преобразует
// событие Stripe в доменное событие. Тело должно быть байт-в-байт тем,
// что прислал Stripe: любая пересериализация ломает подпись.
func (g *Gateway) VerifyWebhook(payload []byte, signatureHeader string) (*domain.ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		g.log.Warnw("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSignature, err)
	}

	g.log.Debugw("Received verified Stripe event", "eventID", event.ID, "eventType", event.Type)

	mapped := &domain.ProviderEvent{
		ID:   event.ID,
		Type: domain.ProviderEventType(event.Type),
	}

	switch {
	case strings.HasPrefix(string(event.Type), "customer.subscription."):
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription event data: %w", err)
		}
		mapped.SubscriptionID = sub.ID
		mapped.SubscriptionStatus = string(sub.Status)
		if sub.Customer != nil {
			mapped.CustomerID = sub.Customer.ID
		}

	case strings.HasPrefix(string(event.Type), "invoice."):
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to parse invoice event data: %w", err)
		}
		mapped.InvoiceID = inv.ID
		if inv.Customer != nil {
			mapped.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			mapped.SubscriptionID = inv.Subscription.ID
		}
	}

	return mapped, nil
}
