package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrInvalidToken подпись или срок действия токена невалидны
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongPurpose токен выпущен для другого назначения
	ErrWrongPurpose = errors.New("token purpose mismatch")

	// ErrDuplicateClient клиент с таким email уже существует
	ErrDuplicateClient = errors.New("client already exists")

	// ErrClientNotFound клиент не найден
	ErrClientNotFound = errors.New("client not found")

	// ErrAlreadyOnboarded онбординг уже завершен, подписка существует
	ErrAlreadyOnboarded = errors.New("client already onboarded")

	// ErrPaymentMethodRejected провайдер отклонил привязку метода оплаты
	ErrPaymentMethodRejected = errors.New("payment method rejected")

	// ErrCatalog ошибка поиска/создания продукта или цены у провайдера
	ErrCatalog = errors.New("catalog operation failed")

	// ErrStore ошибка хранилища
	ErrStore = errors.New("store operation failed")

	// ErrSignature не удалось проверить подпись вебхука
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrNotification не удалось отправить уведомление
	ErrNotification = errors.New("notification delivery failed")
)

// CatalogError ошибка операции с каталогом продуктов/цен провайдера
type CatalogError struct {
	Op          string
	Message     string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *CatalogError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("catalog error [%s]: %s: %v", e.Op, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("catalog error [%s]: %s", e.Op, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *CatalogError) Unwrap() error {
	return e.OriginalErr
}

// Is сопоставляет ошибку с сентинелом ErrCatalog
func (e *CatalogError) Is(target error) bool {
	return target == ErrCatalog
}

// NewCatalogError создает новую ошибку каталога
func NewCatalogError(op, message string, err error) *CatalogError {
	return &CatalogError{
		Op:          op,
		Message:     message,
		OriginalErr: err,
	}
}
