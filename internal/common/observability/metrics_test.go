package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func gatheredNames(t *testing.T, reg *promclient.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func hasPrefix(names map[string]bool, prefix string) bool {
	for name := range names {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func TestObservability_RecordsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("quiz-test", WithRegisterer(reg))
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordRound(ctx, "seed")
	obs.RecordRound(ctx, "adaptive")
	obs.RecordSession(ctx, 1500*time.Millisecond, "done")

	names := gatheredNames(t, reg)
	assert.True(t, hasPrefix(names, "quiz_rounds"))
	assert.True(t, hasPrefix(names, "quiz_sessions"))
	assert.True(t, hasPrefix(names, "quiz_session_duration"))
}

func TestObservability_TracerProviderUsesProcessors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("quiz-test",
		WithRegisterer(promclient.NewRegistry()),
		WithSpanProcessor(recorder),
	)
	require.NoError(t, err)
	defer obs.Shutdown()

	_, span := obs.TracerProvider().Tracer("test").Start(context.Background(), "probe")
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "probe", recorder.Ended()[0].Name())
}
