// Package apperrors defines the error categories shared by the planner, the generation client
// and the persistence gateway. Every error produced by those layers wraps exactly one of these
// sentinels so callers can branch with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks empty or invalid user input, rejected before any network or store call.
	ErrValidation = errors.New("validation error")
	// ErrGeneration marks a failed or unusable text generation. Fatal to the operation.
	ErrGeneration = errors.New("generation error")
	// ErrIncompletePlan is a generation failure where the plan came back without a title or sub-tasks.
	ErrIncompletePlan = fmt.Errorf("%w: the AI returned an incomplete plan", ErrGeneration)
	// ErrImageGeneration marks a failed image generation. Always recoverable.
	ErrImageGeneration = errors.New("image generation error")
	// ErrPersistence marks a failed store operation.
	ErrPersistence = errors.New("persistence error")
	// ErrNotFound is a persistence failure caused by a missing row.
	ErrNotFound = fmt.Errorf("%w: record not found", ErrPersistence)
)

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func Generation(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrGeneration, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneration, msg, cause)
}

func ImageGeneration(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrImageGeneration, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrImageGeneration, msg, cause)
}

func Persistence(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrPersistence, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, msg, cause)
}

// Category returns the most specific sentinel err wraps, or nil for uncategorised errors.
func Category(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrIncompletePlan):
		return ErrIncompletePlan
	case errors.Is(err, ErrGeneration):
		return ErrGeneration
	case errors.Is(err, ErrImageGeneration):
		return ErrImageGeneration
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrPersistence):
		return ErrPersistence
	}
	return nil
}
