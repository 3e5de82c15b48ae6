package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Model validation errors
	ErrInvalidTPM       = errors.New("invalid transition probability model")
	ErrNonStochasticRow = fmt.Errorf("%w: row does not sum to 1", ErrInvalidTPM)
	ErrInvalidSubsystem = errors.New("invalid subsystem")
	ErrStateUnreachable = errors.New("state cannot be reached by any prior state")

	// Computation errors
	ErrNumericalInstability = errors.New("distance solver failed to converge")
	ErrTimeout              = errors.New("search exceeded time budget")

	// Cache errors
	ErrCacheCorruption = errors.New("cache returned malformed entry")
)

// Error constructors with context
func NewInvalidTPMError(row int, sum float64) error {
	return fmt.Errorf("%w: row %d sums to %g", ErrNonStochasticRow, row, sum)
}

func NewInvalidSubsystemError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubsystem, reason)
}

func NewNodeOutOfRangeError(node, size int) error {
	return fmt.Errorf("%w: node %d out of range for network of size %d", ErrInvalidSubsystem, node, size)
}

func NewTimeoutError(stage string, cause error) error {
	return fmt.Errorf("%w during %s: %v", ErrTimeout, stage, cause)
}

func NewCacheCorruptionError(key string, cause error) error {
	return fmt.Errorf("%w for key %s: %v", ErrCacheCorruption, key, cause)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTPM) ||
		errors.Is(err, ErrInvalidSubsystem) ||
		errors.Is(err, ErrStateUnreachable)
}

func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrNumericalInstability)
}
