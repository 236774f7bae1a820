// Package errors provides the standardized error taxonomy shared by the RUT
// editor, the approval queue and the backend client.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetwork           ErrorCode = "NETWORK_ERROR"
	ErrCodeBackendRejection  ErrorCode = "BACKEND_REJECTION"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeExportDelivery    ErrorCode = "EXPORT_DELIVERY_FAILED"
	ErrCodeValidation        ErrorCode = "VALIDATION_FAILED"
	ErrCodeSession           ErrorCode = "SESSION_ERROR"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// GenericFailureMessage is shown when the backend rejects a call without a message.
const GenericFailureMessage = "İşlem başarısız oldu"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError reports a request that could not be completed: timeout,
// no connectivity or an unreachable server. The user may retry.
func NewNetworkError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "Sunucuya ulaşılamadı",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBackendRejection reports a response with success=false. The server
// message is kept verbatim; an empty one falls back to a generic text.
func NewBackendRejection(operation, message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = GenericFailureMessage
	}
	return &StandardError{
		Code:      ErrCodeBackendRejection,
		Message:   message,
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports a status change on a request that is no
// longer pending.
func NewInvalidTransitionError(requestID, message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = "Talep artık beklemede değil"
	}
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   message,
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportDeliveryError reports an export that was retrieved but could not
// be handed to the user.
func NewExportDeliveryError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportDelivery,
		Message:   "Dosya kaydedilemedi veya paylaşılamadı",
		Details:   fmt.Sprintf("stage: %s, error: %v", stage, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError reports a local precondition failure. No network call
// has been made when this is returned.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreconditionError is a validation error that wraps a sentinel so
// callers can still match it with errors.Is.
func NewPreconditionError(message string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   message,
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSessionError reports a missing or unreadable session.
func NewSessionError(details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSession,
		Message:   "Oturum bulunamadı, lütfen tekrar giriş yapın",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Beklenmeyen hata",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard returns the first StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeNetwork:
		return "NETWORK"
	case ErrCodeBackendRejection, ErrCodeInvalidTransition:
		return "BACKEND"
	case ErrCodeExportDelivery:
		return "DELIVERY"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodeSession:
		return "AUTH/SESSION"
	default:
		return "OTHER"
	}
}
