// Package gateway определяет контракт платежного провайдера.
// Компоненты получают этот интерфейс через конструкторы, а не через
// общий синглтон SDK.
package gateway

import (
	"context"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
)

// Customer клиент на стороне платежного провайдера
type Customer struct {
	ID    string
	Email string
	Name  string
	Phone string
}

// PriceRef ссылка на рекуррентную цену в каталоге провайдера
type PriceRef struct {
	ID          string
	ProductID   string
	AmountMinor int64  // Сумма в минимальных единицах валюты
	Currency    string // Код валюты в нижнем регистре, напр. "gbp"
	Interval    string // Интервал списания, напр. "month"
}

// Subscription подписка на стороне платежного провайдера
type Subscription struct {
	ID         string
	CustomerID string
	Status     string
}

// CustomerUpdate частичное обновление данных клиента у провайдера.
// Пустые поля не отправляются.
type CustomerUpdate struct {
	Name     string
	Phone    string
	Metadata map[string]string
}

// CreateSubscriptionParams параметры создания подписки
type CreateSubscriptionParams struct {
	CustomerID         string
	PriceID            string
	BillingCycleAnchor time.Time // Якорь цикла списаний
	Proration          bool      // Пропорциональный счет за неполный первый период
	IdempotencyKey     string
}

// PaymentGateway описывает операции платежного провайдера, которые
// использует этот сервис. Реализация без состояния: каждая операция
// самодостаточна.
type PaymentGateway interface {
	// CreateCustomer создает клиента у провайдера
	CreateCustomer(ctx context.Context, email, name, phone string, metadata map[string]string) (*Customer, error)

	// UpdateCustomer обновляет данные клиента у провайдера
	UpdateCustomer(ctx context.Context, customerID string, update CustomerUpdate) (*Customer, error)

	// AttachPaymentMethod привязывает метод оплаты к клиенту и делает
	// его методом по умолчанию для инвойсов
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// FindProduct ищет активный продукт по имени, возвращает "" если не найден
	FindProduct(ctx context.Context, name string) (string, error)

	// CreateProduct создает продукт и возвращает его ID
	CreateProduct(ctx context.Context, name string) (string, error)

	// ListRecurringPrices возвращает активные рекуррентные цены продукта
	ListRecurringPrices(ctx context.Context, productID string) ([]PriceRef, error)

	// CreateRecurringPrice создает месячную рекуррентную цену
	CreateRecurringPrice(ctx context.Context, productID string, amountMinor int64, currency string) (*PriceRef, error)

	// CreateSubscription создает подписку с якорем списаний и прорацией
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// PauseCollection приостанавливает списания по подписке
	PauseCollection(ctx context.Context, subscriptionID string) error

	// ResumeCollection возобновляет списания по подписке
	ResumeCollection(ctx context.Context, subscriptionID string) error

	// CancelSubscription отменяет подписку немедленно
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// VerifyWebhook проверяет подпись сырого тела вебхука и возвращает
	// верифицированное событие. Тело должно передаваться без
	// пересериализации, иначе подпись не сойдется.
	VerifyWebhook(payload []byte, signatureHeader string) (*domain.ProviderEvent, error)
}
