package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Application errors
var (
	// ErrNetwork the request to the record store could not complete
	ErrNetwork = errors.New("network error")

	// ErrNotFound the operation targeted a missing id
	ErrNotFound = errors.New("record not found")

	// ErrValidationRejected the record store refused the record
	ErrValidationRejected = errors.New("rejected by record store")

	// ErrDuplicate a record with the same id already exists locally
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidTransition the workflow is not in a state that allows the operation
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrNoPendingConfirmation confirm was called without an open prompt
	ErrNoPendingConfirmation = errors.New("no pending confirmation")

	// ErrUnauthenticated the credentials did not match any user
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ErrorKind classifies a failed record store call
type ErrorKind string

const (
	KindNetwork            ErrorKind = "NETWORK_ERROR"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindValidationRejected ErrorKind = "VALIDATION_REJECTED"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidationRejected:
		return ErrValidationRejected
	default:
		return ErrNetwork
	}
}

// RemoteError describes a failed call to the record store
type RemoteError struct {
	Kind        ErrorKind
	Op          string // list, create, update, delete, authenticate
	Entity      string // collection name
	ID          string
	StatusCode  int
	Message     string
	OriginalErr error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.Entity)
	if e.ID != "" {
		fmt.Fprintf(&b, "/%s", e.ID)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.OriginalErr != nil {
		fmt.Fprintf(&b, ": %v", e.OriginalErr)
	}
	return b.String()
}

// Unwrap returns the underlying transport error, if any
func (e *RemoteError) Unwrap() error {
	return e.OriginalErr
}

// Is matches the sentinel for the error kind
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewRemoteError creates a new record store error
func NewRemoteError(kind ErrorKind, op, entity, id string, statusCode int, message string, err error) *RemoteError {
	return &RemoteError{
		Kind:        kind,
		Op:          op,
		Entity:      entity,
		ID:          id,
		StatusCode:  statusCode,
		Message:     message,
		OriginalErr: err,
	}
}

// ValidationErrors maps a field name to a single message. It is the
// local validation failure and never leaves the workflow layer.
type ValidationErrors map[string]string

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	if len(e) == 1 {
		for field, msg := range e {
			return fmt.Sprintf("validation failed: %s - %s", field, msg)
		}
	}

	return fmt.Sprintf("validation failed: %d errors", len(e))
}

// HasErrors reports whether any field failed
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields returns the failing field names, sorted
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// GetByField returns the message for field or ""
func (e ValidationErrors) GetByField(field string) string {
	return e[field]
}

// NotFoundError reports a missing record in a local collection
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is reports whether the error is a "not found" error
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new "not found" error
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// DuplicateError reports an id collision in a local collection
type DuplicateError struct {
	Entity string
	ID     string
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with ID '%s' already exists", e.Entity, e.ID)
}

// Is reports whether the error is a duplicate error
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// NewDuplicateError creates a new duplicate error
func NewDuplicateError(entity, id string) *DuplicateError {
	return &DuplicateError{
		Entity: entity,
		ID:     id,
	}
}
