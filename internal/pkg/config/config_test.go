package config

import (
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "c2VjcmV0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "task_management", cfg.Mongo.Database)
	assert.Equal(t, uint64(100), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 4, cfg.Events.Workers)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     "c2VjcmV0",
		"ENV":            "production",
		"TOKEN_TTL":      "90m",
		"REDIS_PASSWORD": "hunter2",
		"REDIS_DB":       "3",
		"EVENT_WORKERS":  "16",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 16, cfg.Events.Workers)
}

func TestLoadFrom_RequiresSecret(t *testing.T) {
	_, err := LoadFrom(envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoadFrom_RejectsMalformedValues(t *testing.T) {
	_, err := LoadFrom(envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "c2VjcmV0",
		"TOKEN_TTL":  "forever",
	}))
	require.Error(t, err)
}
