package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/unclebandit/customer-sync/internal/config"
	"github.com/unclebandit/customer-sync/internal/repository"
)

// GormDialector picks the gorm dialect for a cache driver name.
func GormDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "mssql":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported gorm driver: %s", driver)
	}
}

// OpenCache connects the configured cache backend and brings its schema to
// cfg.SchemaVersion.
func OpenCache(ctx context.Context, cfg *config.Config) (repository.CustomerRepositoryInterface, error) {
	var repo repository.CustomerRepositoryInterface

	switch cfg.CacheDriver {
	case "memory":
		repo = repository.NewMemoryCustomerRepository()

	case "pq":
		conn, err := sql.Open("postgres", cfg.CacheDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to ping DB: %w", err)
		}
		repo = &repository.CustomerRepository{DB: conn}

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		repo = repository.NewRedisCustomerRepository(client)

	default:
		dialector, err := GormDialector(cfg.CacheDriver, cfg.CacheDSN)
		if err != nil {
			return nil, err
		}
		conn, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		repo = repository.NewGormCustomerRepository(conn)
	}

	if err := repo.Open(ctx, cfg.SchemaVersion); err != nil {
		repo.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	log.Println("✅ Customer cache ready:", cfg.CacheDriver)
	return repo, nil
}
