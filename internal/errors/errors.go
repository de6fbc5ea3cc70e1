package appErrors

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures the sync path absorbs.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindValidation     ErrorKind = "validation"
	KindNetwork        ErrorKind = "network"
	KindPersistence    ErrorKind = "persistence"
	KindSchemaMismatch ErrorKind = "schema_mismatch"
	KindUnknown        ErrorKind = "unknown"
)

// ValidationError marks a raw record the normalizer rejected.
type ValidationError struct {
	Raw any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid customer record: %v", e.Raw)
}

func NewValidation(raw any) error {
	return &ValidationError{Raw: raw}
}

// NetworkError is any failure fetching a page: transport, non-2xx status or bad JSON.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func NewNetwork(op string, status int, err error) error {
	return &NetworkError{Op: op, Status: status, Err: err}
}

// PersistenceError is a cache write failure, for one record or for a whole batch.
type PersistenceError struct {
	CustomerID int
	Batch      bool
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Batch {
		return fmt.Sprintf("failed to persist customer batch: %v", e.Err)
	}
	return fmt.Sprintf("failed to persist customer %d: %v", e.CustomerID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistence(id int, err error) error {
	return &PersistenceError{CustomerID: id, Err: err}
}

func NewBatchPersistence(err error) error {
	return &PersistenceError{Batch: true, Err: err}
}

// SchemaMismatchError reports that the cache was rebuilt for a new schema version.
type SchemaMismatchError struct {
	Stored int
	Wanted int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("cache schema version %d does not match %d, rebuilding", e.Stored, e.Wanted)
}

func NewSchemaMismatch(stored, wanted int) error {
	return &SchemaMismatchError{Stored: stored, Wanted: wanted}
}

// KindOf maps an error to its ErrorKind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var validation *ValidationError
	var network *NetworkError
	var persistence *PersistenceError
	var schema *SchemaMismatchError

	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &network):
		return KindNetwork
	case errors.As(err, &persistence):
		return KindPersistence
	case errors.As(err, &schema):
		return KindSchemaMismatch
	}
	return KindUnknown
}
