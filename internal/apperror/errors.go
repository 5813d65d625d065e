// Package apperror holds the error taxonomy shared by the reconciliation
// core and the interactive catalog paths.
package apperror

import "errors"

var (
	// ErrNotFound is returned when the ERP feed is empty or a referenced
	// local entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidationConflict is returned when a write would break a
	// uniqueness rule, e.g. a custom sku owned by another variant.
	ErrValidationConflict = errors.New("validation conflict")

	// ErrTransientIO wraps ERP client and search sink failures.
	ErrTransientIO = errors.New("transient io failure")

	// ErrPersistence wraps storage failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrSyncInProgress is returned when another instant sync holds the lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrCategoryCycle is returned when a category parent chain loops.
	ErrCategoryCycle = errors.New("category parent cycle")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientIO)
}
