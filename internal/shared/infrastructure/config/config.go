package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/saransh1220/album-market/internal/shared/infrastructure/database"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	Env        string
	Server     ServerConfig
	Database   database.PostgresConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Razorpay   RazorpayConfig
	Orders     OrdersConfig
	SendGrid   SendGridConfig
	Archive    ArchiveConfig
	Migrations MigrationsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// RedisConfig enables the cross-replica sweeper lock when Enabled is set.
type RedisConfig struct {
	database.RedisConfig
	Enabled   bool
	KeyPrefix string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// RazorpayConfig holds Razorpay payment gateway configuration
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	MaxAttempts   int
	BaseDelay     time.Duration
}

// OrdersConfig controls order expiry and retention.
type OrdersConfig struct {
	ExpiryTTL       time.Duration
	SweepInterval   time.Duration
	Retention       time.Duration
	ReapInterval    time.Duration
	AutoFulfil      bool
	NotifyQueueSize int
}

// SendGridConfig holds the completion email sender settings.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// ArchiveConfig points the retention reaper at an S3/MinIO bucket. Empty bucket disables archiving.
type ArchiveConfig struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Prefix     string
}

// MigrationsConfig controls schema migration on startup.
type MigrationsConfig struct {
	AutoMigrate bool
}

// Load reads configuration from environment variables
func Load() Config {
	env := getEnv("APP_ENV", EnvDevelopment)
	ttl, sweep := expiryDefaults(env)

	return Config{
		Env: env,
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "album_market"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			RedisConfig: database.RedisConfig{
				Host:        getEnv("REDIS_HOST", "localhost"),
				Port:        getEnv("REDIS_PORT", "6379"),
				Password:    getEnv("REDIS_PASSWORD", ""),
				DB:          parseInt(getEnv("REDIS_DB", "0"), 0),
				PingTimeout: parseDuration(getEnv("REDIS_PING_TIMEOUT", "5s"), 5*time.Second),
			},
			Enabled:   getEnv("REDIS_ENABLED", "false") == "true",
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "album-market"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
			Expiry: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Razorpay: RazorpayConfig{
			KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			Currency:      strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
			MaxAttempts:   parseInt(getEnv("PAYMENT_MAX_ATTEMPTS", "3"), 3),
			BaseDelay:     parseDuration(getEnv("PAYMENT_RETRY_DELAY", "200ms"), 200*time.Millisecond),
		},
		Orders: OrdersConfig{
			ExpiryTTL:       parseDuration(getEnv("ORDER_EXPIRY_TTL", ""), ttl),
			SweepInterval:   parseDuration(getEnv("ORDER_SWEEP_INTERVAL", ""), sweep),
			Retention:       parseDuration(getEnv("ORDER_RETENTION", "2h"), 2*time.Hour),
			ReapInterval:    parseDuration(getEnv("ORDER_REAP_INTERVAL", "10m"), 10*time.Minute),
			AutoFulfil:      getEnv("ORDER_AUTO_FULFIL", "true") == "true",
			NotifyQueueSize: parseInt(getEnv("NOTIFY_QUEUE_SIZE", "256"), 256),
		},
		SendGrid: SendGridConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:  getEnv("SENDGRID_FROM_NAME", "Album Market"),
		},
		Archive: ArchiveConfig{
			BucketName: getEnv("ARCHIVE_S3_BUCKET", ""),
			Region:     getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:   getEnv("ARCHIVE_S3_ENDPOINT", ""),
			AccessKey:  getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("ARCHIVE_S3_SECRET_KEY", ""),
			UseSSL:     getEnv("ARCHIVE_S3_USE_SSL", "true") == "true",
			Prefix:     getEnv("ARCHIVE_S3_PREFIX", "orders/purged"),
		},
		Migrations: MigrationsConfig{
			AutoMigrate: getEnv("AUTO_MIGRATE", "true") == "true",
		},
	}
}

// expiryDefaults returns the pending-order TTL and sweep interval for an environment.
func expiryDefaults(env string) (time.Duration, time.Duration) {
	if env == EnvProduction {
		return time.Hour, 5 * time.Minute
	}
	return 15 * time.Minute, time.Minute
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}
