package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")

	// Contract lifecycle kinds
	ErrValidation  = errors.New("validation failed")
	ErrStorage     = errors.New("storage failure")
	ErrLedgerWrite = errors.New("ledger write failed")
	ErrSyncPending = errors.New("saved locally, sync pending")
)

// ValidationError blocks an operation before any mutation happens.
type ValidationError struct {
	Op      string
	Message string
}

func NewValidation(op, message string) *ValidationError {
	return &ValidationError{Op: op, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ActivationError is the validation failure raised by renewal activation.
type ActivationError struct {
	Phase  int
	Reason string
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("cannot activate phase F%d: %s", e.Phase, e.Reason)
}

func (e *ActivationError) Unwrap() error { return ErrValidation }

// StorageError reports a failed aggregate or interval load/save.
type StorageError struct {
	Op  string
	Err error
}

func NewStorage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// LedgerWriteError means the sale could not be registered after the renewal committed.
type LedgerWriteError struct {
	Err error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("sale registration failed: %v", e.Err)
}

func (e *LedgerWriteError) Unwrap() []error { return []error{ErrLedgerWrite, e.Err} }

// SyncPendingError is returned when a renewal was computed but could not be stored.
// The local state is ahead of the store and the caller must re-fetch.
type SyncPendingError struct {
	ClientID string
	Err      error
}

func (e *SyncPendingError) Error() string {
	return fmt.Sprintf("contract %s saved locally, sync pending: %v", e.ClientID, e.Err)
}

func (e *SyncPendingError) Unwrap() []error { return []error{ErrSyncPending, e.Err} }

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
