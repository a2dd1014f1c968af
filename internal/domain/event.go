package domain

// ProviderEventType тип события платежного провайдера
type ProviderEventType string

const (
	// События подписок
	EventSubscriptionCreated ProviderEventType = "customer.subscription.created"
	EventSubscriptionUpdated ProviderEventType = "customer.subscription.updated"
	EventSubscriptionDeleted ProviderEventType = "customer.subscription.deleted"
	EventSubscriptionPaused  ProviderEventType = "customer.subscription.paused"
	EventSubscriptionResumed ProviderEventType = "customer.subscription.resumed"

	// События инвойсов
	EventInvoicePaymentSucceeded ProviderEventType = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    ProviderEventType = "invoice.payment_failed"
)

// ProviderEvent верифицированное событие вебхука платежного провайдера.
// События не персистятся: каждое вызывает переход состояния клиента и
// отбрасывается. Доставка провайдером at-least-once и без гарантии
// порядка, поэтому обработчики должны переживать повторы и перестановки.
type ProviderEvent struct {
	ID                 string            `json:"id"`
	Type               ProviderEventType `json:"type"`
	CustomerID         string            `json:"customer_id"`           // ID клиента у провайдера, ключ всех обработчиков
	SubscriptionID     string            `json:"subscription_id"`       // ID подписки, если событие о подписке/инвойсе подписки
	SubscriptionStatus string            `json:"subscription_status"`   // Статус подписки на стороне провайдера
	InvoiceID          string            `json:"invoice_id,omitempty"`  // ID инвойса для invoice.* событий
}
