package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost user=postgres dbname=bubbly sslmode=disable")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.Equal(t, "bubbly", cfg.MongoDatabase)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.RelationCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "3000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_CONN_STR")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
