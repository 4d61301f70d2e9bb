package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска сервиса продаж.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// Базовые URL внешних сервисов. Пустое значение включает
	// встроенную заглушку с демо-данными (режим локальной разработки).
	CatalogBaseURL   string
	LogisticsBaseURL string
	GatewayTimeout   time.Duration

	KafkaBrokers string
	KafkaTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	LogLevel string
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		GatewayTimeout:      3 * time.Second,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		LogLevel:            "info",
	}
}

// LoadConfig строит конфигурацию из окружения поверх значений по умолчанию.
func LoadConfig() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("SALES_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("SALES_METRICS_ADDR", cfg.MetricsAddr)

	cfg.StorageDriver = StorageDriver(envString("SALES_STORAGE_DRIVER", string(cfg.StorageDriver)))
	cfg.PostgresDSN = envString("SALES_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.PostgresAutoMigrate = envBool("SALES_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)

	cfg.CatalogBaseURL = envString("SALES_CATALOG_URL", cfg.CatalogBaseURL)
	cfg.LogisticsBaseURL = envString("SALES_LOGISTICS_URL", cfg.LogisticsBaseURL)
	cfg.GatewayTimeout = envDuration("SALES_GATEWAY_TIMEOUT", cfg.GatewayTimeout)

	cfg.KafkaBrokers = envString("SALES_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envString("SALES_KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.OutboxPollInterval = envDuration("SALES_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("SALES_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxAttempts = envInt("SALES_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	cfg.OutboxRetryDelay = envDuration("SALES_OUTBOX_RETRY_DELAY", cfg.OutboxRetryDelay)

	cfg.LogLevel = envString("SALES_LOG_LEVEL", cfg.LogLevel)

	return cfg
}

// Validate проверяет согласованность конфигурации до старта зависимостей.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("storage driver %q requires SALES_POSTGRES_DSN", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q (use %s|%s)",
			c.StorageDriver, StorageDriverMemory, StorageDriverPostgres)
	}

	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got %s", c.GatewayTimeout)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxMaxAttempts <= 0 {
		return fmt.Errorf("outbox max attempts must be positive, got %d", c.OutboxMaxAttempts)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
