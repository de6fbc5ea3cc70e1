package repository

import (
	"context"
	"log"
	"sort"
	"sync"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

// MemoryCustomerRepository keeps the cache in process memory.
type MemoryCustomerRepository struct {
	mu            sync.RWMutex
	customers     map[int]model.Customer
	schemaVersion int
}

func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{
		customers: make(map[int]model.Customer),
	}
}

func (r *MemoryCustomerRepository) Open(ctx context.Context, schemaVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schemaVersion != 0 && r.schemaVersion != schemaVersion {
		log.Println("⚠️", appErrors.NewSchemaMismatch(r.schemaVersion, schemaVersion))
		r.customers = make(map[int]model.Customer)
	}
	r.schemaVersion = schemaVersion
	return nil
}

// UpsertAll holds the write lock for the whole batch so readers never see half a page.
func (r *MemoryCustomerRepository) UpsertAll(ctx context.Context, customers []model.Customer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return len(customers), nil
}

func (r *MemoryCustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customers := make([]model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func (r *MemoryCustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryCustomerRepository) Close() error {
	return nil
}

var _ CustomerRepositoryInterface = (*MemoryCustomerRepository)(nil)
