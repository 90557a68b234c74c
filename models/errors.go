package models

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidFilter is returned for unparseable filter values or a disallowed sort key.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidPage is returned for a page number below 1 or a non-positive page size.
	ErrInvalidPage = errors.New("invalid page")
	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports the first violated rule of a product payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps a storage failure. The transaction it happened in
// has been rolled back.
type PersistenceError struct {
	Op   string
	Code string // SQLSTATE when the driver reported one
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProductNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Code: sqlState(err), Err: err}
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsConstraintViolation reports whether err was raised by an integrity constraint
// (SQLSTATE class 23).
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	return false
}

func invalidFilter(param, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidFilter, param, fmt.Sprintf(format, args...))
}
