package catalog

import (
	"context"
	"sync"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
)

const monthInterval = "month"

// Resolver лениво поддерживает каталог продукта и рекуррентных цен на
// стороне провайдера без дубликатов. Единственный контроль
// конкурентности — поиск перед созданием: узкое окно гонки осознанно
// допускается, дубликат цены портит каталог, но не биллинг.
type Resolver struct {
	gw          gateway.PaymentGateway
	productName string
	log         *logger.Logger

	mu        sync.Mutex
	productID string // Закешированный ID продукта, создается один раз
}

// NewResolver создает новый Resolver для единственного продукта бизнеса
func NewResolver(gw gateway.PaymentGateway, productName string, log *logger.Logger) *Resolver {
	return &Resolver{
		gw:          gw,
		productName: productName,
		log:         log,
	}
}

// ResolvePrice возвращает ID рекуррентной месячной цены с точным
// совпадением (amount, currency). Существующая цена переиспользуется,
// отсутствующая создается.
func (r *Resolver) ResolvePrice(ctx context.Context, amountMinor int64, currency string) (string, error) {
	productID, err := r.ensureProduct(ctx)
	if err != nil {
		return "", err
	}

	prices, err := r.gw.ListRecurringPrices(ctx, productID)
	if err != nil {
		return "", domain.NewCatalogError("ListRecurringPrices", "failed to list prices", err)
	}

	for _, price := range prices {
		if price.AmountMinor == amountMinor && price.Currency == currency && price.Interval == monthInterval {
			r.log.Debugw("Reusing existing recurring price",
				"priceID", price.ID, "amountMinor", amountMinor, "currency", currency)
			return price.ID, nil
		}
	}

	created, err := r.gw.CreateRecurringPrice(ctx, productID, amountMinor, currency)
	if err != nil {
		return "", domain.NewCatalogError("CreateRecurringPrice", "failed to create price", err)
	}

	r.log.Infow("Created recurring price",
		"priceID", created.ID, "amountMinor", amountMinor, "currency", currency)
	return created.ID, nil
}

// ensureProduct возвращает ID продукта, находя или создавая его один раз
func (r *Resolver) ensureProduct(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.productID != "" {
		return r.productID, nil
	}

	productID, err := r.gw.FindProduct(ctx, r.productName)
	if err != nil {
		return "", domain.NewCatalogError("FindProduct", "failed to search products", err)
	}

	if productID == "" {
		productID, err = r.gw.CreateProduct(ctx, r.productName)
		if err != nil {
			return "", domain.NewCatalogError("CreateProduct", "failed to create product", err)
		}
		r.log.Infow("Created catalog product", "productID", productID, "name", r.productName)
	}

	r.productID = productID
	return productID, nil
}
