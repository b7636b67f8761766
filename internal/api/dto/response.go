package dto

import (
	"time"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// SuccessEnvelope wraps every successful response body.
type SuccessEnvelope struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Meta      any    `json:"meta"`
	TimeStamp string `json:"timeStamp"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   any    `json:"field"`
	Code    string `json:"code"`
	Errors  []any  `json:"errors"`
}

// NewSuccess builds a success envelope. Nil data and meta render as empty objects.
func NewSuccess(message string, data, meta any) SuccessEnvelope {
	if data == nil {
		data = map[string]any{}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return SuccessEnvelope{
		Success:   true,
		Status:    "Success",
		Message:   message,
		Data:      data,
		Meta:      meta,
		TimeStamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// NewError renders a DomainError. An empty field renders as null.
func NewError(err *apperrors.DomainError) ErrorEnvelope {
	var field any
	if err.Field != "" {
		field = err.Field
	}
	errs := err.Errors
	if errs == nil {
		errs = []any{}
	}
	return ErrorEnvelope{
		Success: false,
		Status:  "Error",
		Message: err.Message,
		Field:   field,
		Code:    err.Code,
		Errors:  errs,
	}
}
