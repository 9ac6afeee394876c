package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"taqneeq-quiz/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestOpsServer_Probes(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "quiz_test_probe_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	s := NewOpsServer("127.0.0.1:0", registry, logger.NewTestLogger(t))
	h := s.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)

	rec := get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "starting")

	s.SetReady(true)
	rec = get("/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	rec = get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quiz_test_probe_total 1")
}

func TestStartOpsServer_DisabledWithoutAddress(t *testing.T) {
	_, server := newFakeService(t)
	app, err := NewAppContext(&rootOptions{configPath: writeConfig(t, server.URL+"/api/v1")})
	if !assert.NoError(t, err) {
		return
	}
	defer app.Close()

	ops, stop := app.StartOpsServer()
	assert.Nil(t, ops)
	stop()
}
