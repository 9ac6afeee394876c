// Package errors provides the standardized error taxonomy for classification sessions.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Transport errors
const (
	ErrCodeUnreachable       ErrorCode = "UNREACHABLE"
	ErrCodeRejectedRequest   ErrorCode = "REJECTED_REQUEST"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Absorbed session conditions
const (
	ErrCodeProtocolAnomaly     ErrorCode = "PROTOCOL_ANOMALY"
	ErrCodeExplanationDegraded ErrorCode = "EXPLANATION_DEGRADED"
)

// Command misuse
const (
	ErrCodeConcurrentCall ErrorCode = "CONCURRENT_CALL_NOT_ALLOWED"
	ErrCodeInvalidState   ErrorCode = "INVALID_STATE"
	ErrCodeInvalidAnswer  ErrorCode = "INVALID_ANSWER"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

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
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code so sentinel comparisons work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata sets a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is checks. They carry only a code.
var (
	ErrUnreachable         = &StandardError{Code: ErrCodeUnreachable}
	ErrRejectedRequest     = &StandardError{Code: ErrCodeRejectedRequest}
	ErrMalformedResponse   = &StandardError{Code: ErrCodeMalformedResponse}
	ErrProtocolAnomaly     = &StandardError{Code: ErrCodeProtocolAnomaly}
	ErrExplanationDegraded = &StandardError{Code: ErrCodeExplanationDegraded}
	ErrConcurrentCall      = &StandardError{Code: ErrCodeConcurrentCall}
	ErrInvalidState        = &StandardError{Code: ErrCodeInvalidState}
	ErrInvalidAnswer       = &StandardError{Code: ErrCodeInvalidAnswer}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewUnreachableError reports that no response could be obtained from the service.
func NewUnreachableError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnreachable,
		Message:   "Classification service unreachable",
		Details:   fmt.Sprintf("endpoint: %s, error: %v", endpoint, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRejectedRequestError reports a non-success status from the service.
func NewRejectedRequestError(endpoint string, status int, detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRejectedRequest,
		Message:   "Classification service rejected the request",
		Details:   detail,
		Retryable: false,
		Metadata: map[string]interface{}{
			"endpoint": endpoint,
			"status":   status,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError reports a nominally successful response with an unexpected shape.
func NewMalformedResponseError(endpoint string, details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Classification service returned a malformed response",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewProtocolAnomalyError records a well-formed but logically inconsistent response.
func NewProtocolAnomalyError(kind, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProtocolAnomaly,
		Message:   "Classification protocol anomaly",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"kind": kind},
		Timestamp: time.Now().UTC(),
	}
}

// NewExplanationDegradedError wraps an explanation failure after a successful classification.
func NewExplanationDegradedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExplanationDegraded,
		Message:   "Explanation unavailable",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConcurrentCallError rejects a command issued while a call is in flight.
func NewConcurrentCallError(command, phase string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConcurrentCall,
		Message:   "A call is already in flight",
		Details:   fmt.Sprintf("command: %s, phase: %s", command, phase),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStateError rejects a command that the current phase does not accept.
func NewInvalidStateError(command, phase string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidState,
		Message:   "Command not allowed in current phase",
		Details:   fmt.Sprintf("command: %s, phase: %s", command, phase),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAnswerError rejects an answer before it reaches the network.
func NewInvalidAnswerError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAnswer,
		Message:   "Invalid answer",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an error that has no taxonomy code.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Helpers
// ==========================

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the taxonomy code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsRetryableErrorCode reports whether the user can sensibly reconnect after this error.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeUnreachable
}

// IsFatalErrorCode reports whether the error ends the session.
func IsFatalErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeUnreachable, ErrCodeRejectedRequest, ErrCodeMalformedResponse, ErrCodeInternal:
		return true
	}
	return false
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeUnreachable:
		return "connectivity"
	case ErrCodeRejectedRequest:
		return "service"
	case ErrCodeMalformedResponse, ErrCodeProtocolAnomaly:
		return "protocol"
	case ErrCodeExplanationDegraded:
		return "degraded"
	case ErrCodeConcurrentCall, ErrCodeInvalidState, ErrCodeInvalidAnswer:
		return "client"
	default:
		return "internal"
	}
}
