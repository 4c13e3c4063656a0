package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_NAME", "shop")
		t.Setenv("DB_USER", "shop_user")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("SERVER_REQUEST_TIMEOUT", "3s")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
		t.Setenv("ORDER_CONFLICT_ATTEMPTS", "3")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "shop", cfg.Database.Name)
		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
		assert.Equal(t, 3, cfg.Order.ConflictAttempts)
		assert.True(t, cfg.IsProduction())
		assert.False(t, cfg.IsDevelopment())
	})

	t.Run("Short JWT secret is rejected", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("Malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("DB_MAX_OPEN_CONNS", "many")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Host: "h", Name: "n", User: "u"},
			Redis:    RedisConfig{Host: "r", Port: "6379"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Order:    OrderConfig{ConflictAttempts: 2},
		}
	}

	t.Run("Redis is optional", func(t *testing.T) {
		cfg := valid()
		cfg.Redis = RedisConfig{}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Database host is required", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Host = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST")
	})

	t.Run("Conflict attempts must be positive", func(t *testing.T) {
		cfg := valid()
		cfg.Order.ConflictAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_Addresses(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"},
		Redis:    RedisConfig{Host: "r", Port: "6379"},
	}

	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
	assert.Equal(t, "r:6379", cfg.GetRedisAddr())
}
