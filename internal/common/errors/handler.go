// internal/common/errors/handler.go
package errors

// Outcome is the session-level consequence of an error.
type Outcome string

const (
	OutcomeOffline  Outcome = "offline"
	OutcomeFailed   Outcome = "failed"
	OutcomeAbsorbed Outcome = "absorbed"
	OutcomeRejected Outcome = "rejected"
)

// ErrorHandler normalizes and logs errors raised during a session.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and reports what the session should do with it.
func (h *ErrorHandler) Handle(err error, fields map[string]interface{}) (*StandardError, Outcome) {
	stdErr := h.normalizeError(err)
	outcome := OutcomeFor(stdErr.Code)
	h.logError(stdErr, outcome, fields)
	return stdErr, outcome
}

// OutcomeFor maps a code to its session outcome.
func OutcomeFor(code ErrorCode) Outcome {
	switch code {
	case ErrCodeUnreachable:
		return OutcomeOffline
	case ErrCodeRejectedRequest, ErrCodeMalformedResponse, ErrCodeInternal:
		return OutcomeFailed
	case ErrCodeProtocolAnomaly, ErrCodeExplanationDegraded:
		return OutcomeAbsorbed
	default:
		return OutcomeRejected
	}
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logError(stdErr *StandardError, outcome Outcome, extra map[string]interface{}) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"outcome":       string(outcome),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	if outcome == OutcomeAbsorbed || outcome == OutcomeRejected {
		h.logger.Warn("session error absorbed", fields)
		return
	}
	h.logger.Error("session error", fields)
}
