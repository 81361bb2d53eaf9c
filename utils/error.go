package utils

import (
	"errors"
	"fmt"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Error kinds. Typed errors below report themselves as one of these through
// errors.Is, so callers can branch on the kind without a type switch.
var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("record not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrDuplicateInvoiceNumber  = errors.New("duplicate invoice number")
	ErrPersistence             = errors.New("persistence failure")
	ErrInvalidPeriod           = errors.New("invalid invoice period")
	ErrInvoiceGenerationFailed = errors.New("invoice number generation failed")
	ErrConflict                = errors.New("conflict")
)

type ValidationError struct {
	Field   string
	Message string
	// Fields holds validator tags per field when the error came from struct validation.
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Resource string
	Id       any
}

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, Id: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type InsufficientStockError struct {
	ProductId   int
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product: %s. Available: %d, Requested: %d", e.ProductName, e.Available, e.Requested)
}

// Shortfall is how many units are missing to satisfy the request.
func (e *InsufficientStockError) Shortfall() int {
	if e.Requested <= e.Available {
		return 0
	}
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// ConflictError reports a request that is well formed but clashes with
// existing data, e.g. deleting a product still referenced by line items.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// IsDuplicateKeyError recognises unique violations from MySQL, SQLite and
// gorm's translated error.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqlDriver.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// PersistenceOrKind passes typed domain errors through and wraps anything
// else as a PersistenceError.
func PersistenceOrKind(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrInsufficientStock, ErrDuplicateInvoiceNumber, ErrPersistence, ErrInvalidPeriod, ErrConflict} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return NewPersistenceError(op, err)
}
