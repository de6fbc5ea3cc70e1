package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/customer-sync/internal/config"
	"github.com/unclebandit/customer-sync/internal/db"
	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/repository"
)

func TestGormDialector(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql", "mssql"} {
		d, err := db.GormDialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := db.GormDialector("realm", "dsn")
	assert.Error(t, err)
}

func TestOpenCacheSQLite(t *testing.T) {
	cfg := &config.Config{
		CacheDriver:   "sqlite",
		CacheDSN:      filepath.Join(t.TempDir(), "customers.db"),
		SchemaVersion: 1,
	}

	repo, err := db.OpenCache(context.Background(), cfg)
	require.NoError(t, err)
	defer repo.Close()

	assert.IsType(t, &repository.GormCustomerRepository{}, repo)

	_, err = repo.UpsertAll(context.Background(), []model.Customer{{ID: 5, Name: "A"}})
	require.NoError(t, err)
	c, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "A", c.Name)
}

func TestOpenCacheMemoryAndRedis(t *testing.T) {
	repo, err := db.OpenCache(context.Background(), &config.Config{CacheDriver: "memory", SchemaVersion: 1})
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryCustomerRepository{}, repo)

	srv := miniredis.RunT(t)
	repo, err = db.OpenCache(context.Background(), &config.Config{CacheDriver: "redis", RedisAddr: srv.Addr(), SchemaVersion: 1})
	require.NoError(t, err)
	defer repo.Close()
	assert.IsType(t, &repository.RedisCustomerRepository{}, repo)
}
