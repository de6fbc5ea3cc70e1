package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

// CustomerRepositoryInterface is the local cache the sync manager writes through.
type CustomerRepositoryInterface interface {
	Open(ctx context.Context, schemaVersion int) error
	UpsertAll(ctx context.Context, customers []model.Customer) (int, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
	GetByID(ctx context.Context, id int) (*model.Customer, error)
	Close() error
}

const customersSchema = "customers"

// CustomerRepository is the Postgres implementation on database/sql + lib/pq
type CustomerRepository struct {
	DB *sql.DB
}

// Open creates the tables and drops every cached customer when the stored
// schema version differs from schemaVersion.
func (r *CustomerRepository) Open(ctx context.Context, schemaVersion int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_meta (
            name    TEXT PRIMARY KEY,
            version INTEGER NOT NULL
        )
    `); err != nil {
		return fmt.Errorf("create schema_meta: %w", err)
	}

	var stored int
	err = tx.QueryRowContext(ctx, `SELECT version FROM schema_meta WHERE name = $1`, customersSchema).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}

	if stored != 0 && stored != schemaVersion {
		log.Println("⚠️", appErrors.NewSchemaMismatch(stored, schemaVersion))
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS customers`); err != nil {
			return fmt.Errorf("drop customers: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS customers (
            id     BIGINT PRIMARY KEY,
            cg_id  TEXT NOT NULL DEFAULT '',
            name   TEXT NOT NULL DEFAULT '',
            email  TEXT NOT NULL DEFAULT '',
            mobile TEXT NOT NULL DEFAULT ''
        )
    `); err != nil {
		return fmt.Errorf("create customers: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO schema_meta (name, version) VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET version = EXCLUDED.version
    `, customersSchema, schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	return tx.Commit()
}

// UpsertAll writes the batch in one transaction. A failing record is rolled
// back to its savepoint and skipped; the rest still commit.
func (r *CustomerRepository) UpsertAll(ctx context.Context, customers []model.Customer) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO customers (id, cg_id, name, email, mobile)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE
        SET cg_id = EXCLUDED.cg_id, name = EXCLUDED.name, email = EXCLUDED.email, mobile = EXCLUDED.mobile
    `

	written := 0
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx, `SAVEPOINT customer_upsert`); err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx, query, c.ID, c.CgID, c.Name, c.Email, c.Mobile); err != nil {
			log.Println("⚠️", appErrors.NewPersistence(c.ID, err))
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT customer_upsert`); err != nil {
				return 0, err
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT customer_upsert`); err != nil {
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// GetByID fetches a cached customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	query := `
        SELECT id, cg_id, name, email, mobile
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRowContext(ctx, query, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.CgID, &c.Name, &c.Email, &c.Mobile); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListAll fetches every cached customer (offline fallback)
func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	query := `
        SELECT id, cg_id, name, email, mobile
        FROM customers
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.CgID, &c.Name, &c.Email, &c.Mobile); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Close() error {
	return r.DB.Close()
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
