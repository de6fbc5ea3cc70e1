package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

const (
	redisCustomersKey = "customers"
	redisVersionKey   = "customers:schema_version"
)

// RedisCustomerRepository stores customers as JSON values in one hash keyed by id.
type RedisCustomerRepository struct {
	Client *redis.Client
}

func NewRedisCustomerRepository(client *redis.Client) *RedisCustomerRepository {
	return &RedisCustomerRepository{Client: client}
}

func (r *RedisCustomerRepository) Open(ctx context.Context, schemaVersion int) error {
	stored, err := r.Client.Get(ctx, redisVersionKey).Int()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	_, err = r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if stored != 0 && stored != schemaVersion {
			log.Println("⚠️", appErrors.NewSchemaMismatch(stored, schemaVersion))
			p.Del(ctx, redisCustomersKey)
		}
		p.Set(ctx, redisVersionKey, schemaVersion, 0)
		return nil
	})
	return err
}

// UpsertAll applies the whole page in a single MULTI/EXEC.
func (r *RedisCustomerRepository) UpsertAll(ctx context.Context, customers []model.Customer) (int, error) {
	values := make([]interface{}, 0, len(customers)*2)
	for _, c := range customers {
		payload, err := json.Marshal(c)
		if err != nil {
			log.Println("⚠️", appErrors.NewPersistence(c.ID, err))
			continue
		}
		values = append(values, strconv.Itoa(c.ID), payload)
	}
	if len(values) == 0 {
		return 0, nil
	}

	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, redisCustomersKey, values...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(values) / 2, nil
}

func (r *RedisCustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	all, err := r.Client.HGetAll(ctx, redisCustomersKey).Result()
	if err != nil {
		return nil, err
	}

	customers := make([]model.Customer, 0, len(all))
	for field, payload := range all {
		var c model.Customer
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			log.Println("⚠️ skipping unreadable cached customer", field, ":", err)
			continue
		}
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func (r *RedisCustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	payload, err := r.Client.HGet(ctx, redisCustomersKey, strconv.Itoa(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var c model.Customer
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *RedisCustomerRepository) Close() error {
	return r.Client.Close()
}

var _ CustomerRepositoryInterface = (*RedisCustomerRepository)(nil)
