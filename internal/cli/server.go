package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"taqneeq-quiz/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpsServer exposes /health, /ready and /metrics while a quiz is running.
type OpsServer struct {
	server *http.Server
	ready  atomic.Bool
	logger logger.Logger
}

func NewOpsServer(addr string, gatherer prometheus.Gatherer, log logger.Logger) *OpsServer {
	s := &OpsServer{logger: log}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *OpsServer) routes(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "starting")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SetReady flips the /ready probe.
func (s *OpsServer) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the server's mux.
func (s *OpsServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background until Shutdown.
func (s *OpsServer) Start() {
	go func() {
		s.logger.Info("Health/Metrics server listening", map[string]interface{}{"address": s.server.Addr})
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *OpsServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("Health/Metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

// StartOpsServer starts the operability server when server.metrics_address is set.
// The returned function stops it.
func (a *AppContext) StartOpsServer() (*OpsServer, func()) {
	addr := a.Config.Server.MetricsAddress
	if addr == "" {
		return nil, func() {}
	}
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, a.Registry}
	s := NewOpsServer(addr, gatherers, a.Logger)
	s.Start()
	return s, s.Shutdown
}
