package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies graph-model failures.
type ErrorKind string

const (
	// KindValidation means an invariant would be violated by the operation.
	KindValidation ErrorKind = "validation"
	// KindNotFound means the operation referenced an id that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindDependency means removal is blocked by entities that still reference the target.
	KindDependency ErrorKind = "dependency"
)

// Sentinels for errors.Is matching against *Error values.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrDependency = errors.New("dependency error")
)

// Error is returned by every Network mutation and lookup that fails.
type Error struct {
	Kind    ErrorKind
	Entity  string // "character", "relationship", "conflict", "network", "config"
	ID      string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", e.Kind, e.Entity, e.ID, e.Message)
}

// Is lets errors.Is match an *Error against the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrDependency:
		return e.Kind == KindDependency
	}
	return false
}

func validationErr(entity, id, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "does not exist"}
}

func dependencyErr(entity, id, format string, args ...any) *Error {
	return &Error{Kind: KindDependency, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError builds a validation error for callers outside the graph model,
// such as analysis configuration checks.
func NewValidationError(entity, id, format string, args ...any) *Error {
	return validationErr(entity, id, format, args...)
}

// NewNotFoundError builds a not-found error for lookups outside the graph
// model, such as a store that has no network by the given name.
func NewNotFoundError(entity, id string) *Error {
	return notFoundErr(entity, id)
}

// KindOf reports the ErrorKind carried by err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
