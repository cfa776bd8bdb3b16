package saga

import (
	"github.com/pkg/errors"
)

// GuardViolation is returned when a participant already handled the same (orderId, transactionId)
type GuardViolation struct {
	error
}

func WithGuardViolation(err error) error {
	return GuardViolation{err}
}

// ValidationFailure covers missing or invalid input and broken business rules
type ValidationFailure struct {
	error
}

func WithValidationFailure(err error) error {
	return ValidationFailure{err}
}

// NotFound is returned when a referenced resource or ledger record is absent
type NotFound struct {
	error
}

func WithNotFound(err error) error {
	return NotFound{err}
}

// RoutingError means the transition table has no entry for a (source, status) pair
type RoutingError struct {
	error
	Source Source
	Status Status
}

func WithRoutingError(source Source, status Status) error {
	return RoutingError{
		error:  errors.Errorf("no transition defined for source '%s' and status '%s'", source, status),
		Source: source,
		Status: status,
	}
}

func IsGuardViolation(err error) bool {
	var target GuardViolation
	return errors.As(err, &target)
}

func IsValidationFailure(err error) bool {
	var target ValidationFailure
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFound
	return errors.As(err, &target)
}

func IsRoutingError(err error) bool {
	var target RoutingError
	return errors.As(err, &target)
}
