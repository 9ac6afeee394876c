package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"taqneeq-quiz/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Commands(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantQuery string
		wantKey   string
	}{
		{"health", []string{"health"}, "/health", "status"},
		{"departments", []string{"departments", "--search", "design", "--traits"}, "/departments?include_traits=true&search=design", "departments"},
		{"department", []string{"department", "tech", "--traits"}, "/departments/tech?include_traits=true", "name"},
		{"similar", []string{"department", "tech", "--similar", "2"}, "/departments/tech/similar?limit=2", "similar_departments"},
		{"status", []string{"status", "s1"}, "/classification/status/s1", "questions_asked"},
		{"stats", []string{"stats"}, "/stats", "active_sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, server := newFakeService(t)
			cfg := writeConfig(t, server.URL+"/api/v1")

			out, err := execute(t, "", append(tt.args, "-c", cfg)...)
			require.NoError(t, err)

			assert.True(t, svc.requested(tt.wantQuery), "expected request to %s", tt.wantQuery)

			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &doc))
			assert.Contains(t, doc, tt.wantKey)
		})
	}
}

func TestLookup_UnhealthyService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "degraded"}`)
	}))
	t.Cleanup(server.Close)
	cfg := writeConfig(t, server.URL)

	_, err := execute(t, "", "health", "-c", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"degraded"`)
}

func TestLookup_RejectedRequestSurfacesDetail(t *testing.T) {
	_, server := newFakeService(t)
	cfg := writeConfig(t, server.URL+"/api/v1")

	_, err := execute(t, "", "status", "s1", "-c", cfg, "--base-url", server.URL+"/nowhere")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRejectedRequest, errors.CodeOf(err))
}

func TestLookup_RequiresArgs(t *testing.T) {
	_, err := execute(t, "", "department")
	require.Error(t, err)
}
