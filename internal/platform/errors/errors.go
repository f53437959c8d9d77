// Package errors provides structured errors that carry an HTTP status and
// loggable context fields.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

// ErrorType is the category of an error, used for status mapping and log severity.
type ErrorType string

const (
	TypeValidation ErrorType = "validation"
	TypeNotFound   ErrorType = "not_found"
	TypeConflict   ErrorType = "conflict"
	TypeInternal   ErrorType = "internal"
	TypeExternal   ErrorType = "external"
)

// Error is a structured error with type, message and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error { return newError(TypeValidation, message, nil) }

func NotFoundError(message string) *Error { return newError(TypeNotFound, message, nil) }

func ConflictError(message string) *Error { return newError(TypeConflict, message, nil) }

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// ExternalError is for failures of a dependency such as Redis or NATS (HTTP 502).
func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithField adds a context field (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// FromDomain classifies a domain error. The domain sentinel stays reachable via errors.Is.
func FromDomain(err error) *Error {
	var structuredErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &structuredErr):
		return structuredErr
	case errors.Is(err, domain.ErrSessionNotFound):
		return newError(TypeNotFound, "session not found", err)
	case errors.Is(err, domain.ErrEmptySessionID):
		return newError(TypeValidation, "sessionId is required", err)
	case errors.Is(err, domain.ErrInvalidSpeakerTag):
		return newError(TypeValidation, "speakerTag must be ME or THEM", err)
	case errors.Is(err, domain.ErrUnknownConversationType):
		return newError(TypeValidation, "unknown conversation type", err)
	case errors.Is(err, domain.ErrTooManyConnections):
		return newError(TypeConflict, "too many connections for session", err)
	default:
		return AsStructuredError(err)
	}
}

// AsStructuredError returns err if it already is (or wraps) an *Error, and an
// internal error otherwise.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}
	return InternalError("internal server error", err)
}
