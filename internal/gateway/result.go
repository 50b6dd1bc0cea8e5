package gateway

import (
	"encoding/json"

	"project-planner/backend/internal/apperrors"
)

// Result is the envelope every gateway operation returns. Exactly one of
// Data or Error is meaningful, selected by Success.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	cause error
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed result. msg is shown to the user; cause is kept for
// logging and status mapping and is never serialised.
func Fail[T any](msg string, cause error) Result[T] {
	return Result[T]{Success: false, Error: msg, cause: cause}
}

// Cause returns the apperrors category of the failure, or nil on success.
func (r Result[T]) Cause() error {
	if r.Success {
		return nil
	}
	return apperrors.Category(r.cause)
}

// Err returns the underlying error of a failed result.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &resultError{msg: r.Error, cause: r.cause}
}

func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON omits data on failure, whatever T is.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	e := envelope[T]{Success: r.Success, Error: r.Error}
	if r.Success {
		e.Data = &r.Data
	}
	return json.Marshal(e)
}

type resultError struct {
	msg   string
	cause error
}

func (e *resultError) Error() string {
	return e.msg
}

func (e *resultError) Unwrap() error {
	return e.cause
}
