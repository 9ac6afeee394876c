package quiz

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"taqneeq-quiz/internal/common/logger"
)

const sinkTimeout = 2 * time.Second

// TraceEntry is one diagnostic record.
type TraceEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id,omitempty"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// TraceSink mirrors trace entries somewhere outside the process.
type TraceSink interface {
	Write(ctx context.Context, entry TraceEntry) error
}

// Tracer is an append-only log of requests, responses, anomalies and transitions.
// Control flow never reads it.
type Tracer struct {
	mu      sync.Mutex
	entries []TraceEntry
	sinks   []TraceSink
	logger  logger.Logger
	now     func() time.Time
}

func NewTracer(log logger.Logger, sinks ...TraceSink) *Tracer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracer{
		sinks:  sinks,
		logger: log,
		now:    time.Now,
	}
}

// Record appends an entry and forwards it to every sink. Sink failures are logged and dropped.
func (t *Tracer) Record(ctx context.Context, sessionID, message string, data map[string]interface{}) {
	t.mu.Lock()
	entry := TraceEntry{
		Timestamp: t.now().UTC(),
		SessionID: sessionID,
		Message:   message,
		Data:      data,
	}
	t.entries = append(t.entries, entry)
	sinks := t.sinks
	t.mu.Unlock()

	if len(sinks) == 0 {
		return
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	for _, sink := range sinks {
		if err := sink.Write(sinkCtx, entry); err != nil {
			t.logger.Warn("Trace sink write failed", map[string]interface{}{
				"sessionId": sessionID,
				"message":   message,
				"error":     err.Error(),
			})
		}
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (t *Tracer) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TraceEntry(nil), t.entries...)
}

// Reset drops every recorded entry. Sinks are kept.
func (t *Tracer) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}

// LogSink writes entries to a structured logger at debug level.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Write(_ context.Context, entry TraceEntry) error {
	fields := make(map[string]interface{}, len(entry.Data)+2)
	for k, v := range entry.Data {
		fields[k] = v
	}
	fields["sessionId"] = entry.SessionID
	fields["traceTime"] = entry.Timestamp.Format(time.RFC3339Nano)
	s.logger.Debug("trace: "+entry.Message, fields)
	return nil
}

// TraceStore is the list storage used by RedisSink.
type TraceStore interface {
	AppendTrace(ctx context.Context, key string, record []byte, ttl time.Duration) error
}

// RedisSink appends JSON entries to a per-session list. Entries recorded before the
// service has issued a session id are not mirrored.
type RedisSink struct {
	store  TraceStore
	prefix string
	ttl    time.Duration
}

func NewRedisSink(store TraceStore, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{store: store, prefix: prefix, ttl: ttl}
}

// Key returns the list key for a session.
func (s *RedisSink) Key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisSink) Write(ctx context.Context, entry TraceEntry) error {
	if entry.SessionID == "" {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.store.AppendTrace(ctx, s.Key(entry.SessionID), payload, s.ttl)
}
