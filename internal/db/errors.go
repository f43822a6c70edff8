package db

import (
	"errors"
	"fmt"
	"strings"
)

// Common adapter errors.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNotConnected indicates an operation ran before Connect succeeded.
	ErrNotConnected = errors.New("adapter not connected")

	// ErrTxActive indicates Begin was called inside an open transaction.
	ErrTxActive = errors.New("transaction already active")

	// ErrNoTx indicates Commit or Rollback without Begin.
	ErrNoTx = errors.New("no active transaction")

	// ErrUnsupportedBackend indicates an unknown backend type was configured.
	ErrUnsupportedBackend = errors.New("unsupported backend type")

	// ErrDriverMissing indicates the SQL driver for a backend is not registered.
	ErrDriverMissing = errors.New("database driver not registered")

	// ErrInvalidStatus indicates a plan status outside the allowed set.
	ErrInvalidStatus = errors.New("invalid plan status")
)

// NotFoundError wraps ErrNotFound with entity details.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a typed not found error.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UnsupportedBackendError names the rejected backend type and the valid ones.
type UnsupportedBackendError struct {
	Value     string
	Supported []string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unknown database type: %q (supported types: %s)",
		e.Value, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedBackendError) Unwrap() error {
	return ErrUnsupportedBackend
}

// DriverMissingError is returned on the first connection attempt when the
// configured database/sql driver was not compiled into the binary.
type DriverMissingError struct {
	Driver   string
	Packages []string
}

func (e *DriverMissingError) Error() string {
	return fmt.Sprintf("sql driver %q not registered; link one of:\n  %s",
		e.Driver, strings.Join(e.Packages, "\n  "))
}

func (e *DriverMissingError) Unwrap() error {
	return ErrDriverMissing
}
