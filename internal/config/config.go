package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                 string
	LogLevel            string
	HTTPAddr            string
	StoreDriver         string
	DatabaseURL         string
	JWTSecret           string
	EmailAPIKeyHash     string
	MailProviderURL     string
	MailProviderAPIKey  string
	MailFrom            string
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int64
	CorsAllowedOrigins  []string
	WSHeartbeatInterval time.Duration
	ReportMaxRangeDays  int64
	ReportCurrency      string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8086"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", "")),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		EmailAPIKeyHash:     getEnv("EMAIL_API_KEY_HASH", ""),
		MailProviderURL:     getEnv("MAIL_PROVIDER_URL", ""),
		MailProviderAPIKey:  getEnv("MAIL_PROVIDER_API_KEY", ""),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@opsboard.local"),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		OutboxPollInterval:  getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:     getEnvInt64("OUTBOX_BATCH_SIZE", 50),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		ReportMaxRangeDays:  getEnvInt64("REPORT_MAX_RANGE_DAYS", 366),
		ReportCurrency:      strings.ToUpper(getEnv("REPORT_CURRENCY", "")),

		// Object store (Cloudflare R2 / S3-compatible)
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
		ObjectStoreStorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, "STANDARD"),
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = "memory"
		if cfg.DatabaseURL != "" {
			cfg.StoreDriver = "postgres"
		}
	}
	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = 50
	}
	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = 2 * time.Second
	}

	// Back-compat: allow R2_ACCOUNT_ID -> endpoint
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

// Validate reports settings that make the process unable to serve.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case "memory":
		if c.Env == "production" {
			return errors.New("STORE_DRIVER=memory is not allowed in production")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c Config) ObjectStoreConfigured() bool {
	return c.ObjectStoreEndpoint != "" && c.ObjectStoreBucket != "" &&
		c.ObjectStoreAccessKeyID != "" && c.ObjectStoreSecretAccessKey != ""
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
