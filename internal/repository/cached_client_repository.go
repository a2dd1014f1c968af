package repository

import (
	"context"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/google/uuid"
)

// CachedClientRepository реализует ClientRepository с кешированием.
// Кеш снимает нагрузку с горячего пути вебхуков: поиск по
// provider_customer_id выполняется на каждое событие провайдера.
type CachedClientRepository struct {
	repo  ClientRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedClientRepository создает новый репозиторий клиентов с кешированием
func NewCachedClientRepository(
	repo ClientRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) ClientRepository {
	return &CachedClientRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// FindByEmail получает клиента по email (сначала из кеша, потом из БД)
func (r *CachedClientRepository) FindByEmail(ctx context.Context, email string) (domain.Client, error) {
	cached, err := r.cache.GetCachedClientByEmail(ctx, email)
	if err != nil {
		r.log.Warnw("Error getting client from cache", "error", err, "email", email)
		// Продолжаем выполнение при ошибке кеша
	}
	if cached != nil {
		return *cached, nil
	}

	client, err := r.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.Client{}, err
	}

	if err := r.cache.CacheClient(ctx, client); err != nil {
		r.log.Warnw("Failed to cache client after fetching", "error", err, "email", email)
	}

	return client, nil
}

// FindByProviderCustomerID получает клиента по ID у провайдера (сначала из кеша, потом из БД)
func (r *CachedClientRepository) FindByProviderCustomerID(ctx context.Context, providerCustomerID string) (domain.Client, error) {
	cached, err := r.cache.GetCachedClientByCustomerID(ctx, providerCustomerID)
	if err != nil {
		r.log.Warnw("Error getting client from cache", "error", err, "providerCustomerID", providerCustomerID)
	}
	if cached != nil {
		return *cached, nil
	}

	client, err := r.repo.FindByProviderCustomerID(ctx, providerCustomerID)
	if err != nil {
		return domain.Client{}, err
	}

	if err := r.cache.CacheClient(ctx, client); err != nil {
		r.log.Warnw("Failed to cache client after fetching", "error", err, "providerCustomerID", providerCustomerID)
	}

	return client, nil
}

// Insert создает клиента в БД и кеширует его
func (r *CachedClientRepository) Insert(ctx context.Context, client domain.Client) (domain.Client, error) {
	saved, err := r.repo.Insert(ctx, client)
	if err != nil {
		return domain.Client{}, err
	}

	if err := r.cache.CacheClient(ctx, saved); err != nil {
		r.log.Warnw("Failed to cache client after creation", "error", err, "clientID", saved.ID)
		// Продолжаем выполнение, несмотря на ошибку кеширования
	}

	return saved, nil
}

// FindByID получает клиента по ID напрямую из БД
func (r *CachedClientRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	return r.repo.FindByID(ctx, id)
}

// UpdateFields применяет частичное обновление и инвалидирует кеш.
// Кеш именно инвалидируется, а не перезаписывается: после слияния
// полей актуальное состояние знает только БД.
func (r *CachedClientRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields FieldSet) error {
	// Снимок до обновления нужен, чтобы узнать ключи кеша
	stale, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.repo.UpdateFields(ctx, id, fields); err != nil {
		return err
	}

	if err := r.cache.InvalidateClient(ctx, stale); err != nil {
		r.log.Warnw("Failed to invalidate client cache after update", "error", err, "clientID", id)
	}

	return nil
}
