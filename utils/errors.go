package utils

import (
	"github.com/pkg/errors"
)

// ErrInvalidArgument is the cause of every error built by the constructors below, so callers can
// match on it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// NewInvalidArgumentError is used when a caller passes a value the operation cannot accept.
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// NewLengthMismatchError is used when two parallel inputs must have the same length.
func NewLengthMismatchError(what string, expected, actual int) error {
	return NewInvalidArgumentError("%s: expected %d, got %d", what, expected, actual)
}

// NewIndexOutOfRangeError is used when an index is outside [0, size).
func NewIndexOutOfRangeError(what string, idx, size int) error {
	return NewInvalidArgumentError("%s index %d out of range [0, %d)", what, idx, size)
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}
