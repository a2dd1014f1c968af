package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config структура конфигурации приложения
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Stripe        StripeConfig
	Tokens        TokenConfig
	Notifications NotificationConfig
	Logging       LoggingConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Brokers []string
}

// StripeConfig конфигурация Stripe
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Currency      string
	ProductName   string
}

// TokenConfig конфигурация подписи токенов действий
type TokenConfig struct {
	Secret string
	Issuer string
}

// NotificationConfig конфигурация исходящих уведомлений
type NotificationConfig struct {
	FromAddress   string
	PortalBaseURL string
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения (.env в dev среде)
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env опционален, его отсутствие не является ошибкой
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "billing_service")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL_SECONDS", 300)
	v.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
	v.SetDefault("STRIPE_CURRENCY", "gbp")
	v.SetDefault("STRIPE_PRODUCT_NAME", "Personal Training")
	v.SetDefault("TOKEN_ISSUER", "billing-service")
	v.SetDefault("NOTIFICATIONS_FROM", "noreply@localhost")
	v.SetDefault("PORTAL_BASE_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetInt("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetInt("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      time.Duration(v.GetInt("REDIS_TTL_SECONDS")) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("KAFKA_BROKERS"),
		},
		Stripe: StripeConfig{
			APIKey:        v.GetString("STRIPE_API_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      v.GetString("STRIPE_CURRENCY"),
			ProductName:   v.GetString("STRIPE_PRODUCT_NAME"),
		},
		Tokens: TokenConfig{
			Secret: v.GetString("TOKEN_SECRET"),
			Issuer: v.GetString("TOKEN_ISSUER"),
		},
		Notifications: NotificationConfig{
			FromAddress:   v.GetString("NOTIFICATIONS_FROM"),
			PortalBaseURL: v.GetString("PORTAL_BASE_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Stripe.APIKey == "" {
		return nil, fmt.Errorf("STRIPE_API_KEY is not set")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is not set")
	}
	if cfg.Tokens.Secret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is not set")
	}

	return cfg, nil
}
