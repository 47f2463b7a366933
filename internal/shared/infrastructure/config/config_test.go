package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()

	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "user")
	os.Setenv("DB_PASSWORD", "pass")
	os.Setenv("DB_NAME", "test")

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:4200", cfg.Server.AllowedOrigins)
	assert.Equal(t, "default-dev-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)

	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, 3, cfg.Razorpay.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Orders.ExpiryTTL)
	assert.Equal(t, time.Minute, cfg.Orders.SweepInterval)
	assert.Equal(t, 2*time.Hour, cfg.Orders.Retention)
	assert.Equal(t, 10*time.Minute, cfg.Orders.ReapInterval)
	assert.True(t, cfg.Orders.AutoFulfil)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Archive.BucketName)
	assert.True(t, cfg.Migrations.AutoMigrate)
}

func TestLoad_ProductionExpiryDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, time.Hour, cfg.Orders.ExpiryTTL)
	assert.Equal(t, 5*time.Minute, cfg.Orders.SweepInterval)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()

	os.Setenv("PORT", "9000")
	os.Setenv("ALLOWED_ORIGINS", "https://example.com")
	os.Setenv("JWT_SECRET", "my-secret")
	os.Setenv("JWT_EXPIRATION", "2h")
	os.Setenv("DB_HOST", "db-server")
	os.Setenv("DB_PORT", "15432")
	os.Setenv("DB_USER", "admin")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_NAME", "production")
	os.Setenv("DB_SSLMODE", "require")
	os.Setenv("REDIS_HOST", "redis-server")
	os.Setenv("REDIS_PORT", "6380")
	os.Setenv("REDIS_ENABLED", "true")
	os.Setenv("REDIS_PING_TIMEOUT", "2s")
	os.Setenv("PAYMENT_CURRENCY", "usd")
	os.Setenv("ORDER_EXPIRY_TTL", "30m")
	os.Setenv("ORDER_SWEEP_INTERVAL", "30s")
	os.Setenv("ORDER_AUTO_FULFIL", "false")
	os.Setenv("ARCHIVE_S3_BUCKET", "order-archive")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://example.com", cfg.Server.AllowedOrigins)
	assert.Equal(t, "my-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "db-server", cfg.Database.Host)
	assert.Equal(t, "15432", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "production", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "redis-server", cfg.Redis.Host)
	assert.Equal(t, "6380", cfg.Redis.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Redis.PingTimeout)
	assert.Equal(t, "USD", cfg.Razorpay.Currency)
	assert.Equal(t, 30*time.Minute, cfg.Orders.ExpiryTTL)
	assert.Equal(t, 30*time.Second, cfg.Orders.SweepInterval)
	assert.False(t, cfg.Orders.AutoFulfil)
	assert.Equal(t, "order-archive", cfg.Archive.BucketName)
}

func TestLoad_JWTExpirationParsing(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"hours", "48h", 48 * time.Hour},
		{"minutes", "30m", 30 * time.Minute},
		{"mixed", "1h30m", 90 * time.Minute},
		{"invalid_uses_default", "invalid", 24 * time.Hour},
		{"negative_uses_default", "-1h", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_EXPIRATION", tt.value)

			cfg := Load()
			assert.Equal(t, tt.expected, cfg.JWT.Expiry)
		})
	}
}
