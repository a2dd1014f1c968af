package stripe

import (
	"context"
	"fmt"

	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/stripe/stripe-go/v78"
)

// FindProduct ищет активный продукт по имени. Возвращает "" если не найден.
func (g *Gateway) FindProduct(ctx context.Context, name string) (string, error) {
	params := &stripe.ProductListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx

	iter := g.client.Products.List(params)
	for iter.Next() {
		product := iter.Product()
		if product.Name == name {
			g.log.Debugw("Found existing Stripe product", "productID", product.ID, "name", name)
			return product.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		logStripeError(g.log, "FindProduct", err)
		return "", fmt.Errorf("stripe: failed to list products: %w", err)
	}

	return "", nil
}

// CreateProduct создает продукт в Stripe
func (g *Gateway) CreateProduct(ctx context.Context, name string) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	params.Context = ctx

	product, err := g.client.Products.New(params)
	if err != nil {
		logStripeError(g.log, "CreateProduct", err)
		return "", fmt.Errorf("stripe: failed to create product: %w", err)
	}

	g.log.Infow("Stripe product created", "productID", product.ID, "name", name)
	return product.ID, nil
}

// ListRecurringPrices возвращает активные рекуррентные цены продукта
func (g *Gateway) ListRecurringPrices(ctx context.Context, productID string) ([]gateway.PriceRef, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
		Type:    stripe.String(string(stripe.PriceTypeRecurring)),
	}
	params.Context = ctx

	var prices []gateway.PriceRef
	iter := g.client.Prices.List(params)
	for iter.Next() {
		price := iter.Price()
		if price.Recurring == nil {
			continue
		}
		prices = append(prices, gateway.PriceRef{
			ID:          price.ID,
			ProductID:   productID,
			AmountMinor: price.UnitAmount,
			Currency:    string(price.Currency),
			Interval:    string(price.Recurring.Interval),
		})
	}
	if err := iter.Err(); err != nil {
		logStripeError(g.log, "ListRecurringPrices", err)
		return nil, fmt.Errorf("stripe: failed to list prices: %w", err)
	}

	return prices, nil
}

// CreateRecurringPrice создает месячную рекуррентную цену для продукта
func (g *Gateway) CreateRecurringPrice(ctx context.Context, productID string, amountMinor int64, currency string) (*gateway.PriceRef, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(amountMinor),
		Currency:   stripe.String(currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
	}
	params.Context = ctx

	price, err := g.client.Prices.New(params)
	if err != nil {
		logStripeError(g.log, "CreateRecurringPrice", err)
		return nil, fmt.Errorf("stripe: failed to create price: %w", err)
	}

	g.log.Infow("Stripe recurring price created",
		"priceID", price.ID, "productID", productID, "amountMinor", amountMinor, "currency", currency)
	return &gateway.PriceRef{
		ID:          price.ID,
		ProductID:   productID,
		AmountMinor: amountMinor,
		Currency:    currency,
		Interval:    string(stripe.PriceRecurringIntervalMonth),
	}, nil
}
