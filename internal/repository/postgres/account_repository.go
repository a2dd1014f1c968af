package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAccountRepository реализация репозитория учетных записей через PostgreSQL
type PostgresAccountRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresAccountRepository создает новый репозиторий учетных записей
func NewPostgresAccountRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresAccountRepository {
	return &PostgresAccountRepository{
		db:  db,
		log: log,
	}
}

// FindByEmail возвращает учетную запись по email
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (domain.ClientAccount, error) {
	query := `
		SELECT id, email, status, created_at, updated_at
		FROM client_accounts
		WHERE email = $1
	`

	var account domain.ClientAccount
	err := r.db.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ClientAccount{}, repository.ErrNotFound
		}
		return domain.ClientAccount{}, fmt.Errorf("failed to get client account: %w", err)
	}

	return account, nil
}

// Upsert создает учетную запись, если ее нет. Существующая запись не
// перезаписывается: возвращается ее текущее состояние.
func (r *PostgresAccountRepository) Upsert(ctx context.Context, account domain.ClientAccount) (domain.ClientAccount, error) {
	query := `
		INSERT INTO client_accounts (id, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, email, status, created_at, updated_at
	`

	var saved domain.ClientAccount
	err := r.db.QueryRow(
		ctx,
		query,
		account.ID,
		account.Email,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(
		&saved.ID,
		&saved.Email,
		&saved.Status,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return domain.ClientAccount{}, fmt.Errorf("failed to upsert client account: %w", err)
	}

	return saved, nil
}

// UpdateStatusByEmail меняет статус учетной записи
func (r *PostgresAccountRepository) UpdateStatusByEmail(ctx context.Context, email string, status domain.AccountStatus) error {
	query := `UPDATE client_accounts SET status = $1, updated_at = NOW() WHERE email = $2`

	tag, err := r.db.Exec(ctx, query, status, email)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
