package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultAPIURL = "https://cgv2.creativegalileo.com/api/V1/customer/filter"

// Config holds everything the sync service reads from the environment.
type Config struct {
	APIURL         string        `validate:"required,url"`
	APIToken       string        `validate:"required"`
	PageSize       int           `validate:"min=1,max=500"`
	SearchDebounce time.Duration `validate:"min=0"`
	HTTPTimeout    time.Duration `validate:"gt=0"`
	SortBy         string
	FilterBy       string

	CacheDriver   string `validate:"oneof=memory sqlite postgres mysql mssql pq redis"`
	CacheDSN      string
	SchemaVersion int `validate:"min=1"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"min=0"`

	AMQPURL     string `validate:"omitempty,url"`
	EventsTopic string `validate:"required"`

	AppPort string `validate:"required,numeric"`
	NodeID  int64  `validate:"min=0,max=1023"`
}

var validate = validator.New()

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	v.SetDefault("CUSTOMER_API_URL", DefaultAPIURL)
	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("CACHE_DRIVER", "sqlite")
	v.SetDefault("CACHE_DSN", "customers.db")
	v.SetDefault("CACHE_SCHEMA_VERSION", 1)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SYNC_EVENTS_TOPIC", "customer_sync")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("NODE_ID", 1)

	cfg := &Config{
		APIURL:         v.GetString("CUSTOMER_API_URL"),
		APIToken:       v.GetString("CUSTOMER_API_TOKEN"),
		PageSize:       v.GetInt("PAGE_SIZE"),
		SearchDebounce: v.GetDuration("SEARCH_DEBOUNCE"),
		HTTPTimeout:    v.GetDuration("HTTP_TIMEOUT"),
		SortBy:         v.GetString("SORT_BY"),
		FilterBy:       v.GetString("FILTER_BY"),
		CacheDriver:    v.GetString("CACHE_DRIVER"),
		CacheDSN:       v.GetString("CACHE_DSN"),
		SchemaVersion:  v.GetInt("CACHE_SCHEMA_VERSION"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		AMQPURL:        v.GetString("AMQP_URL"),
		EventsTopic:    v.GetString("SYNC_EVENTS_TOPIC"),
		AppPort:        v.GetString("APP_PORT"),
		NodeID:         v.GetInt64("NODE_ID"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if exp, ok := TokenExpiry(cfg.APIToken); ok && exp.Before(time.Now()) {
		log.Println("⚠️ API token expired at", exp.Format(time.RFC3339), "- requests will likely fail and fall back to the cache")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.CacheDriver != "memory" && c.CacheDriver != "redis" && c.CacheDSN == "" {
		return fmt.Errorf("invalid configuration: CACHE_DSN is required for cache driver %s", c.CacheDriver)
	}
	return nil
}

// TokenExpiry reads the exp claim of a JWT bearer token without verifying it.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
