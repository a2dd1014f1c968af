package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `
	id, email, name, phone, provider_customer_id, provider_subscription_id,
	monthly_price, currency, billing_day, status, subscription_status,
	payment_failure_count, suspended_reason, address, emergency_contact,
	date_of_birth, suspended_at, reactivated_at, cancelled_at, created_at, updated_at
`

// allowedClientFields колонки, доступные для частичного обновления
var allowedClientFields = map[string]bool{
	"name":                     true,
	"phone":                    true,
	"provider_customer_id":     true,
	"provider_subscription_id": true,
	"status":                   true,
	"subscription_status":      true,
	"payment_failure_count":    true,
	"suspended_reason":         true,
	"address":                  true,
	"emergency_contact":        true,
	"date_of_birth":            true,
	"suspended_at":             true,
	"reactivated_at":           true,
	"cancelled_at":             true,
}

// PostgresClientRepository реализация репозитория клиентов через PostgreSQL
type PostgresClientRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresClientRepository создает новый репозиторий клиентов через PostgreSQL
func NewPostgresClientRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresClientRepository {
	return &PostgresClientRepository{
		db:  db,
		log: log,
	}
}

// FindByID возвращает клиента по ID
func (r *PostgresClientRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// FindByEmail возвращает клиента по email
func (r *PostgresClientRepository) FindByEmail(ctx context.Context, email string) (domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email = $1`
	return r.scanOne(ctx, query, email)
}

// FindByProviderCustomerID возвращает клиента по ID клиента у провайдера
func (r *PostgresClientRepository) FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE provider_customer_id = $1`
	return r.scanOne(ctx, query, providerCustomerID)
}

// Insert создает нового клиента
func (r *PostgresClientRepository) Insert(ctx context.Context, client domain.Client) (domain.Client, error) {
	query := `
		INSERT INTO clients (
			id, email, name, phone, provider_customer_id, provider_subscription_id,
			monthly_price, currency, billing_day, status, subscription_status,
			payment_failure_count, suspended_reason, address, emergency_contact,
			date_of_birth, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		client.ID,
		client.Email,
		client.Name,
		client.Phone,
		client.ProviderCustomerID,
		client.ProviderSubscriptionID,
		client.MonthlyPrice,
		client.Currency,
		client.BillingDay,
		client.Status,
		client.SubscriptionStatus,
		client.PaymentFailureCount,
		client.SuspendedReason,
		client.Address,
		client.EmergencyContact,
		client.DateOfBirth,
		client.CreatedAt,
		client.UpdatedAt,
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Нарушение уникальности email
			if pgErr.Code == "23505" {
				return domain.Client{}, repository.ErrDuplicate
			}
		}
		return domain.Client{}, fmt.Errorf("failed to insert client: %w", err)
	}

	return client, nil
}

// UpdateFields применяет частичное обновление полей клиента. Только
// перечисленные поля попадают в SET: конкурирующие записи онбординга и
// вебхуков сливаются, а не затирают друг друга.
func (r *PostgresClientRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields repository.FieldSet) error {
	if len(fields) == 0 {
		return nil
	}

	setParts := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)

	for column, value := range fields {
		if !allowedClientFields[column] {
			r.log.Warnw("Rejected update of unknown client field", "field", column)
			return repository.ErrInvalidData
		}
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	args = append(args, time.Now())
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE clients SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update client fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *PostgresClientRepository) scanOne(ctx context.Context, query string, arg any) (domain.Client, error) {
	var client domain.Client

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&client.ID,
		&client.Email,
		&client.Name,
		&client.Phone,
		&client.ProviderCustomerID,
		&client.ProviderSubscriptionID,
		&client.MonthlyPrice,
		&client.Currency,
		&client.BillingDay,
		&client.Status,
		&client.SubscriptionStatus,
		&client.PaymentFailureCount,
		&client.SuspendedReason,
		&client.Address,
		&client.EmergencyContact,
		&client.DateOfBirth,
		&client.SuspendedAt,
		&client.ReactivatedAt,
		&client.CancelledAt,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, repository.ErrNotFound
		}
		return domain.Client{}, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}
