package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префиксы ключей для различных типов данных
	clientByCustomerKeyPrefix = "client_by_customer:"
	clientByEmailKeyPrefix    = "client_by_email:"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование для репозиториев с использованием Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheClient кеширует клиента по обоим ключам поиска
func (r *RedisCacheRepository) CacheClient(ctx context.Context, client domain.Client) error {
	data, err := json.Marshal(client)
	if err != nil {
		r.log.Errorw("Failed to marshal client for caching", "error", err, "clientID", client.ID)
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	keys := []string{clientByEmailKeyPrefix + client.Email}
	if client.ProviderCustomerID != "" {
		keys = append(keys, clientByCustomerKeyPrefix+client.ProviderCustomerID)
	}

	for _, key := range keys {
		if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
			r.log.Errorw("Failed to cache client in Redis", "error", err, "key", key)
			return fmt.Errorf("failed to cache client: %w", err)
		}
	}

	r.log.Debugw("Client cached successfully", "clientID", client.ID)
	return nil
}

// GetCachedClientByCustomerID получает клиента из кеша по ID клиента у провайдера
func (r *RedisCacheRepository) GetCachedClientByCustomerID(ctx context.Context, providerCustomerID string) (*domain.Client, error) {
	return r.getCachedClient(ctx, clientByCustomerKeyPrefix+providerCustomerID)
}

// GetCachedClientByEmail получает клиента из кеша по email
func (r *RedisCacheRepository) GetCachedClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	return r.getCachedClient(ctx, clientByEmailKeyPrefix+email)
}

func (r *RedisCacheRepository) getCachedClient(ctx context.Context, key string) (*domain.Client, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Ключ не найден в кеше
			r.log.Debugw("Client not found in cache", "key", key)
			return nil, nil // Возвращаем nil вместо ошибки
		}
		r.log.Errorw("Error getting client from Redis", "error", err, "key", key)
		return nil, fmt.Errorf("failed to get client from cache: %w", err)
	}

	var client domain.Client
	if err := json.Unmarshal(data, &client); err != nil {
		r.log.Errorw("Failed to unmarshal cached client", "error", err, "key", key)
		return nil, fmt.Errorf("failed to unmarshal cached client: %w", err)
	}

	r.log.Debugw("Client retrieved from cache", "key", key)
	return &client, nil
}

// InvalidateClient удаляет клиента из кеша по обоим ключам
func (r *RedisCacheRepository) InvalidateClient(ctx context.Context, client domain.Client) error {
	keys := []string{clientByEmailKeyPrefix + client.Email}
	if client.ProviderCustomerID != "" {
		keys = append(keys, clientByCustomerKeyPrefix+client.ProviderCustomerID)
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Errorw("Failed to invalidate client cache", "error", err, "clientID", client.ID)
		return fmt.Errorf("failed to invalidate client cache: %w", err)
	}

	r.log.Debugw("Client cache invalidated", "clientID", client.ID)
	return nil
}
