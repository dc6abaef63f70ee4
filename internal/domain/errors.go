package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrValidation      ErrorCode = "VALIDATION_ERROR"
	ErrUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func Unauthenticated(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return newError(ErrUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NotFound(resource string, id string) *Error {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func ValidationError(message string, details map[string]any) *Error {
	return newError(ErrValidation, message, http.StatusBadRequest, details)
}

func UpstreamFailure(message string, err error) *Error {
	e := newError(ErrUpstreamFailure, message, http.StatusInternalServerError, nil)
	e.Err = err
	return e
}

// AsError unwraps err into a *Error when one is present in the chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func IsCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
