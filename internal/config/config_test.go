package config_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/customer-sync/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CUSTOMER_API_TOKEN", "static-token")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "sqlite", cfg.CacheDriver)
	assert.Equal(t, "customers.db", cfg.CacheDSN)
	assert.Equal(t, 1, cfg.SchemaVersion)
	assert.Equal(t, "customer_sync", cfg.EventsTopic)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Empty(t, cfg.AMQPURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CUSTOMER_API_TOKEN", "static-token")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("SEARCH_DEBOUNCE", "1s")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("CACHE_DSN", "")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, time.Second, cfg.SearchDebounce)
	assert.Equal(t, "redis", cfg.CacheDriver)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token":  {"CUSTOMER_API_TOKEN": ""},
		"bad driver":     {"CUSTOMER_API_TOKEN": "t", "CACHE_DRIVER": "realm"},
		"bad page size":  {"CUSTOMER_API_TOKEN": "t", "PAGE_SIZE": "0"},
		"bad api url":    {"CUSTOMER_API_TOKEN": "t", "CUSTOMER_API_URL": "not a url"},
		"sqlite w/o dsn": {"CUSTOMER_API_TOKEN": "t", "CACHE_DSN": ""},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"cgId": 18928054,
		"exp":  exp.Unix(),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	got, ok := config.TokenExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = config.TokenExpiry("static-token")
	assert.False(t, ok)
}
