package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type recordedLog struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	entries []recordedLog
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, recordedLog{level: "warn", msg: msg, fields: fields})
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, recordedLog{level: "error", msg: msg, fields: fields})
}

// ==========================
// Taxonomy Tests
// ==========================

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewUnreachableError("/health", fmt.Errorf("dial tcp: connection refused"))
	wrapped := fmt.Errorf("start session: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrUnreachable))
	assert.False(t, stderrors.Is(wrapped, ErrRejectedRequest))
	assert.Equal(t, ErrCodeUnreachable, CodeOf(wrapped))
}

func TestStandardError_UnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewMalformedResponseError("/classification/start", "missing session_id", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "MALFORMED_RESPONSE")
	assert.Contains(t, err.Error(), "missing session_id")
}

func TestCodeOf_UnknownError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeUnreachable, "connectivity"},
		{ErrCodeRejectedRequest, "service"},
		{ErrCodeMalformedResponse, "protocol"},
		{ErrCodeProtocolAnomaly, "protocol"},
		{ErrCodeExplanationDegraded, "degraded"},
		{ErrCodeConcurrentCall, "client"},
		{ErrCodeInvalidAnswer, "client"},
		{ErrCodeInternal, "internal"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

func TestFatalAndRetryable(t *testing.T) {
	assert.True(t, IsFatalErrorCode(ErrCodeUnreachable))
	assert.True(t, IsFatalErrorCode(ErrCodeMalformedResponse))
	assert.False(t, IsFatalErrorCode(ErrCodeProtocolAnomaly))
	assert.False(t, IsFatalErrorCode(ErrCodeExplanationDegraded))

	assert.True(t, IsRetryableErrorCode(ErrCodeUnreachable))
	assert.False(t, IsRetryableErrorCode(ErrCodeRejectedRequest))
}

// ==========================
// Handler Tests
// ==========================

func TestErrorHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      Outcome
		wantLevel string
	}{
		{"unreachable goes offline", NewUnreachableError("/x", fmt.Errorf("refused")), OutcomeOffline, "error"},
		{"rejected fails", NewRejectedRequestError("/x", 400, "bad"), OutcomeFailed, "error"},
		{"malformed fails", NewMalformedResponseError("/x", "shape", nil), OutcomeFailed, "error"},
		{"anomaly absorbed", NewProtocolAnomalyError("repeat", "same id"), OutcomeAbsorbed, "warn"},
		{"degraded absorbed", NewExplanationDegradedError(fmt.Errorf("timeout")), OutcomeAbsorbed, "warn"},
		{"misuse rejected", NewConcurrentCallError("submit", "submitting"), OutcomeRejected, "warn"},
		{"plain error fails", fmt.Errorf("plain"), OutcomeFailed, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log)

			stdErr, outcome := h.Handle(tt.err, map[string]interface{}{"sessionId": "s1"})

			require.NotNil(t, stdErr)
			assert.Equal(t, tt.want, outcome)
			require.Len(t, log.entries, 1)
			assert.Equal(t, tt.wantLevel, log.entries[0].level)
			assert.Equal(t, "s1", log.entries[0].fields["sessionId"])
			assert.Equal(t, string(stdErr.Code), log.entries[0].fields["errorCode"])
		})
	}
}
