package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors returned by the store match one of these via errors.Is.
var (
	// ErrNotFound is returned when an operation references a key that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a key is already used where uniqueness is required.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument is returned when a required argument is empty.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError names the missing entity key.
type NotFoundError struct {
	Entity EntityType
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %q does not exist", e.Entity, e.Entity.KeyField(), e.Key)
}

// Is makes NotFoundError match ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError names the key that clashes with the stored collection. Reason
// defaults to "is already in use".
type ConflictError struct {
	Entity EntityType
	Key    string
	Reason string
}

func (e ConflictError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is already in use"
	}
	return fmt.Sprintf("%s %s %q %s", e.Entity, e.Entity.KeyField(), e.Key, reason)
}

// Is makes ConflictError match ErrConflict.
func (e ConflictError) Is(target error) bool { return target == ErrConflict }

// InvalidArgumentError names the argument that failed validation.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Reason)
}

// Is makes InvalidArgumentError match ErrInvalidArgument.
func (e InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
