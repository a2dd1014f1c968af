package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/stripe/stripe-go/v78"
)

// CreateCustomer создает нового клиента в Stripe
func (g *Gateway) CreateCustomer(ctx context.Context, email, name, phone string, metadata map[string]string) (*gateway.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}
	if phone != "" {
		params.Phone = stripe.String(phone)
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	cus, err := g.client.Customers.New(params)
	if err != nil {
		logStripeError(g.log, "CreateCustomer", err)
		return nil, fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	g.log.Infow("Stripe customer created", "stripeCustomerID", cus.ID, "email", email)
	return mapCustomer(cus), nil
}

// UpdateCustomer обновляет данные клиента в Stripe. Пустые поля не трогаются.
func (g *Gateway) UpdateCustomer(ctx context.Context, customerID string, update gateway.CustomerUpdate) (*gateway.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if update.Name != "" {
		params.Name = stripe.String(update.Name)
	}
	if update.Phone != "" {
		params.Phone = stripe.String(update.Phone)
	}
	for key, value := range update.Metadata {
		params.AddMetadata(key, value)
	}

	cus, err := g.client.Customers.Update(customerID, params)
	if err != nil {
		logStripeError(g.log, "UpdateCustomer", err)
		return nil, fmt.Errorf("stripe: failed to update customer %s: %w", customerID, err)
	}

	g.log.Debugw("Stripe customer updated", "stripeCustomerID", cus.ID)
	return mapCustomer(cus), nil
}

// AttachPaymentMethod привязывает метод оплаты к клиенту и назначает его
// методом по умолчанию для инвойсов
func (g *Gateway) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	attachParams := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	attachParams.Context = ctx

	if _, err := g.client.PaymentMethods.Attach(paymentMethodID, attachParams); err != nil {
		logStripeError(g.log, "AttachPaymentMethod", err)
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", domain.ErrPaymentMethodRejected, stripeErr.Msg)
		}
		return fmt.Errorf("stripe: failed to attach payment method: %w", err)
	}

	updateParams := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	updateParams.Context = ctx

	if _, err := g.client.Customers.Update(customerID, updateParams); err != nil {
		logStripeError(g.log, "SetDefaultPaymentMethod", err)
		return fmt.Errorf("stripe: failed to set default payment method: %w", err)
	}

	g.log.Infow("Payment method attached and set as default",
		"stripeCustomerID", customerID, "paymentMethodID", paymentMethodID)
	return nil
}

func mapCustomer(cus *stripe.Customer) *gateway.Customer {
	return &gateway.Customer{
		ID:    cus.ID,
		Email: cus.Email,
		Name:  cus.Name,
		Phone: cus.Phone,
	}
}
