package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/stripe/stripe-go/v78"
)

// CreateSubscription создает подписку в Stripe с якорем цикла списаний.
// При включенной прорации Stripe немедленно выставляет пропорциональный
// счет за неполный первый период.
func (g *Gateway) CreateSubscription(ctx context.Context, p gateway.CreateSubscriptionParams) (*gateway.Subscription, error) {
	prorationBehavior := "none"
	if p.Proration {
		prorationBehavior = "create_prorations"
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.PriceID)},
		},
		BillingCycleAnchor: stripe.Int64(p.BillingCycleAnchor.Unix()),
		ProrationBehavior:  stripe.String(prorationBehavior),
		Params: stripe.Params{
			Context: ctx,
		},
	}
	if p.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(p.IdempotencyKey)
	}

	subscription, err := g.client.Subscriptions.New(params)
	if err != nil {
		logStripeError(g.log, "CreateSubscription", err)
		return nil, fmt.Errorf("stripe: failed to create subscription: %w", err)
	}

	g.log.Infow("Stripe subscription created",
		"stripeSubscriptionID", subscription.ID, "status", string(subscription.Status))
	return mapSubscription(subscription), nil
}

// PauseCollection приостанавливает списания по подписке, не отменяя ее
func (g *Gateway) PauseCollection(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior: stripe.String("void"),
		},
	}
	params.Context = ctx

	if _, err := g.client.Subscriptions.Update(subscriptionID, params); err != nil {
		logStripeError(g.log, "PauseCollection", err)
		return fmt.Errorf("stripe: failed to pause collection for %s: %w", subscriptionID, err)
	}

	g.log.Infow("Stripe subscription collection paused", "stripeSubscriptionID", subscriptionID)
	return nil
}

// ResumeCollection возобновляет списания по приостановленной подписке
func (g *Gateway) ResumeCollection(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	// Снятие pause_collection требует явной пустой строки в форме запроса
	params.AddExtra("pause_collection", "")

	if _, err := g.client.Subscriptions.Update(subscriptionID, params); err != nil {
		logStripeError(g.log, "ResumeCollection", err)
		return fmt.Errorf("stripe: failed to resume collection for %s: %w", subscriptionID, err)
	}

	g.log.Infow("Stripe subscription collection resumed", "stripeSubscriptionID", subscriptionID)
	return nil
}

// CancelSubscription отменяет подписку в Stripe немедленно
func (g *Gateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{
		Params: stripe.Params{
			Context: ctx,
		},
	}

	if _, err := g.client.Subscriptions.Cancel(subscriptionID, params); err != nil {
		// Уже отмененная или отсутствующая подписка не считается ошибкой
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			g.log.Warnw("Attempted to cancel already canceled/missing Stripe subscription",
				"stripeSubscriptionID", subscriptionID)
			return nil
		}
		logStripeError(g.log, "CancelSubscription", err)
		return fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	g.log.Infow("Stripe subscription canceled", "stripeSubscriptionID", subscriptionID)
	return nil
}

func mapSubscription(sub *stripe.Subscription) *gateway.Subscription {
	mapped := &gateway.Subscription{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Customer != nil {
		mapped.CustomerID = sub.Customer.ID
	}
	return mapped
}
