package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeService is a scripted classification service. The first answer continues
// with adaptive_007 and the second completes the session.
type fakeService struct {
	t *testing.T

	mu      sync.Mutex
	answers []map[string]interface{}
	queries []string

	healthFailures atomic.Int32
	explainStatus  int
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{t: t, explainStatus: http.StatusOK}
	server := httptest.NewServer(http.StripPrefix("/api/v1", http.HandlerFunc(f.serve)))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeService) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.RequestURI())
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/health":
		if f.healthFailures.Load() > 0 {
			f.healthFailures.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"detail": "warming up"}`)
			return
		}
		io.WriteString(w, `{"status": "healthy"}`)

	case r.URL.Path == "/classification/start":
		io.WriteString(w, `{
			"session_id": "s1",
			"first_question": {"id": "seed_001", "text": "I enjoy solving technical problems", "question_stage": "seed"},
			"total_departments": 8,
			"estimated_questions": "8-12",
			"features": {"adaptive_questioning": true}
		}`)

	case r.URL.Path == "/classification/answer":
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.answers = append(f.answers, body)
		n := len(f.answers)
		f.mu.Unlock()

		if n == 1 {
			io.WriteString(w, answerJSON(`{"id": "adaptive_007", "text": "I like planning events", "question_stage": "adaptive"}`, 1, false))
			return
		}
		io.WriteString(w, answerJSON("null", n, true))

	case r.URL.Path == "/classification/explanation":
		if f.explainStatus != http.StatusOK {
			w.WriteHeader(f.explainStatus)
			io.WriteString(w, `{"detail": "generator offline"}`)
			return
		}
		io.WriteString(w, `{
			"session_id": "s1",
			"department_id": "tech",
			"department_name": "Technical",
			"explanation": {
				"overview": "You build the festival's systems.",
				"why_good_fit": "You like hard problems.",
				"responsibilities": "Keep the servers up.",
				"skills_gained": "Ops",
				"next_steps": "Talk to the tech lead."
			},
			"alternative_departments": [{"id": "design", "name": "Design", "probability": 0.21, "description": "Visuals"}],
			"generation_method": "template"
		}`)

	case r.URL.Path == "/departments":
		io.WriteString(w, `{"departments": [{"id": "tech", "name": "Technical"}], "total": 1, "search_applied": true, "traits_included": false}`)

	case strings.HasSuffix(r.URL.Path, "/similar"):
		io.WriteString(w, `{"target_department": {"id": "tech", "name": "Technical"}, "similar_departments": [{"id": "design", "name": "Design", "similarity_score": 0.7}], "total_found": 1}`)

	case strings.HasPrefix(r.URL.Path, "/departments/"):
		io.WriteString(w, `{"id": "tech", "name": "Technical", "description": "Systems"}`)

	case strings.HasPrefix(r.URL.Path, "/classification/status/"):
		io.WriteString(w, `{"session_id": "s1", "questions_asked": 2, "is_complete": true}`)

	case r.URL.Path == "/stats":
		io.WriteString(w, `{"active_sessions": 3}`)

	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "Not Found"}`)
	}
}

func (f *fakeService) answerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers)
}

func (f *fakeService) answer(i int) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[i]
}

func (f *fakeService) requested(uri string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.queries {
		if q == uri {
			return true
		}
	}
	return false
}

func answerJSON(next string, asked int, complete bool) string {
	return fmt.Sprintf(`{
		"next_question": %s,
		"classification_result": {
			"session_id": "s1",
			"top_department": "tech",
			"top_probability": 0.62,
			"secondary_department": "design",
			"secondary_probability": 0.21,
			"all_probabilities": {"tech": 0.62, "design": 0.21, "pr": 0.17},
			"questions_asked": %d,
			"confidence_level": "high",
			"should_continue": %t,
			"is_complete": %t,
			"current_top_traits": [["analytical", 0.9]],
			"reasoning": "strong technical signal"
		}
	}`, next, asked, !complete, complete)
}

// writeConfig writes a config file pointing at baseURL and returns its path.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	content := fmt.Sprintf(`app:
  name: quiz-runner-test
  environment: test
classifier:
  base_url: %s
  timeout: 2000
  explanation_timeout: 1000
  hard_cap: 15
  health_preflight: true
trace:
  log_enabled: false
  redis_enabled: false
logging:
  level: error
  format: json
  output: stderr
`, baseURL)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and stdin, returning its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
