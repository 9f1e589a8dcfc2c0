package trip

import (
	"errors"
	"fmt"
)

// ErrorKind classifies job-core failures so transport layers can map them to
// status codes without string matching.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindLimit                ErrorKind = "limit"
	KindNotFound             ErrorKind = "not_found"
	KindNotReady             ErrorKind = "not_ready"
	KindPipeline             ErrorKind = "pipeline"
	KindRenderingUnavailable ErrorKind = "rendering_unavailable"
)

// Error is the job core's error type. Field is set for validation failures.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error without a field.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FieldError builds a validation Error attached to a request field.
func FieldError(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" when err is not a trip error.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
