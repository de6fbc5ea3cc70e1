package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

type schemaMeta struct {
	Name    string `gorm:"primaryKey;size:64"`
	Version int    `gorm:"not null"`
}

func (schemaMeta) TableName() string {
	return "schema_meta"
}

// GormCustomerRepository backs the cache with any gorm dialect (sqlite, postgres, mysql, sqlserver).
type GormCustomerRepository struct {
	DB *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{DB: db}
}

func (r *GormCustomerRepository) Open(ctx context.Context, schemaVersion int) error {
	db := r.DB.WithContext(ctx)

	if err := db.AutoMigrate(&schemaMeta{}); err != nil {
		return fmt.Errorf("migrate schema_meta: %w", err)
	}

	var meta schemaMeta
	err := db.First(&meta, "name = ?", customersSchema).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if meta.Version != 0 && meta.Version != schemaVersion {
		log.Println("⚠️", appErrors.NewSchemaMismatch(meta.Version, schemaVersion))
		if err := db.Migrator().DropTable(&model.Customer{}); err != nil {
			return fmt.Errorf("drop customers: %w", err)
		}
	}

	if err := db.AutoMigrate(&model.Customer{}); err != nil {
		return fmt.Errorf("migrate customers: %w", err)
	}

	return db.Save(&schemaMeta{Name: customersSchema, Version: schemaVersion}).Error
}

func (r *GormCustomerRepository) UpsertAll(ctx context.Context, customers []model.Customer) (int, error) {
	written := 0

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range customers {
			c := customers[i]

			if err := tx.SavePoint("customer_upsert").Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error; err != nil {
				log.Println("⚠️", appErrors.NewPersistence(c.ID, err))
				if err := tx.RollbackTo("customer_upsert").Error; err != nil {
					return err
				}
				continue
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *GormCustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	customers := []model.Customer{}
	if err := r.DB.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	var c model.Customer
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *GormCustomerRepository) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ CustomerRepositoryInterface = (*GormCustomerRepository)(nil)
