package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Field      string
	Errors     []any
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithCause attaches the underlying error without changing the rendered response.
func (e *DomainError) WithCause(err error) *DomainError {
	e.Err = err
	return e
}

// WithErrors attaches sub-errors rendered in the "errors" array.
func (e *DomainError) WithErrors(errs ...any) *DomainError {
	e.Errors = append(e.Errors, errs...)
	return e
}

// NewDomainError constructs a DomainError. Statuses outside 400-599 become 500.
func NewDomainError(code, message string, status int, field string) *DomainError {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Field: field}
}

func NewValidationError(code, message, field string) *DomainError {
	return NewDomainError(code, message, http.StatusBadRequest, field)
}

func NewNotFound(code, message, field string) *DomainError {
	return NewDomainError(code, message, http.StatusNotFound, field)
}

func NewUnauthorized(code, message, field string) *DomainError {
	return NewDomainError(code, message, http.StatusUnauthorized, field)
}

func NewForbidden(code, message, field string) *DomainError {
	return NewDomainError(code, message, http.StatusForbidden, field)
}

func NewConflict(code, message, field string) *DomainError {
	return NewDomainError(code, message, http.StatusConflict, field)
}

func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		de := NewDomainError(fmt.Sprintf("HTTP_%d", fiberErr.Code), fiberErr.Message, fiberErr.Code, "")
		de.Err = err
		return de
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
