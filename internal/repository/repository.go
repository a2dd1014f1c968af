package repository

import (
	"context"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/google/uuid"
)

// FieldSet частичный набор полей для обновления записи. Ключи — имена
// колонок. Обновление через FieldSet не перезаписывает документ
// целиком: конкурирующие пути (онбординг и вебхуки) сливаются на
// уровне полей вместо затирания друг друга.
type FieldSet map[string]any

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	// FindByID возвращает клиента по ID
	FindByID(ctx context.Context, id uuid.UUID) (domain.Client, error)

	// FindByEmail возвращает клиента по email
	FindByEmail(ctx context.Context, email string) (domain.Client, error)

	// FindByProviderCustomerID возвращает клиента по ID клиента у провайдера
	FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (domain.Client, error)

	// Insert создает нового клиента
	Insert(ctx context.Context, client domain.Client) (domain.Client, error)

	// UpdateFields применяет частичное обновление полей клиента
	UpdateFields(ctx context.Context, id uuid.UUID, fields FieldSet) error
}

// AccountRepository интерфейс репозитория учетных записей портала
type AccountRepository interface {
	// FindByEmail возвращает учетную запись по email
	FindByEmail(ctx context.Context, email string) (domain.ClientAccount, error)

	// Upsert создает учетную запись или возвращает существующую
	Upsert(ctx context.Context, account domain.ClientAccount) (domain.ClientAccount, error)

	// UpdateStatusByEmail меняет статус учетной записи
	UpdateStatusByEmail(ctx context.Context, email string, status domain.AccountStatus) error
}
