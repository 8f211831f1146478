package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/mo"
	"github.com/siherrmann/finrag/core/agent"
	"github.com/siherrmann/finrag/model"
)

const (
	Name    = "Finance RAG Agent API"
	Version = "1.0.0"

	// SessionHeader selects the message log session of an ask request.
	SessionHeader = "X-Session-ID"
)

// Asker answers questions with a fixed configuration snapshot.
type Asker interface {
	Ask(ctx context.Context, question string, overrides model.AskOverrides) *model.AskResult
	Config() model.Config
}

// HealthFunc reports whether the article store is reachable.
type HealthFunc func(ctx context.Context) bool

// Server exposes the agent over HTTP.
type Server struct {
	asker   Asker
	health  HealthFunc
	logger  *slog.Logger
	metrics *Metrics
	router  *mux.Router
}

// NewServer creates the API server and registers its routes.
func NewServer(asker Asker, health HealthFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		asker:   asker,
		health:  health,
		logger:  logger,
		metrics: NewMetrics(),
		router:  mux.NewRouter(),
	}

	s.router.Use(corsMiddleware, loggingMiddleware(logger, s.metrics))
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return s
}

// Handler returns the router with its middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("API starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("serving %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("Server exited")
	return nil
}

type askRequest struct {
	Question      string   `json:"question"`
	RetrievalSize *int     `json:"retrieval_size"`
	MinScore      *float64 `json:"min_score"`
}

type healthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	AgentInitialized  bool   `json:"agent_initialized"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":    Name,
		"version": Version,
		"endpoints": map[string]string{
			"POST /ask":    "Ask a financial question",
			"GET /health":  "Check API health status",
			"GET /config":  "Get current configuration",
			"GET /metrics": "Prometheus metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.asker == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Agent not initialized")
		return
	}

	connected := s.health != nil && s.health(r.Context())
	status := "degraded"
	if connected {
		status = "healthy"
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:            status,
		DatabaseConnected: connected,
		AgentInitialized:  true,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.asker == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Agent not initialized")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	if req.RetrievalSize != nil && *req.RetrievalSize <= 0 {
		s.writeError(w, http.StatusBadRequest, "retrieval_size must be positive")
		return
	}

	ctx := r.Context()
	if session := r.Header.Get(SessionHeader); session != "" {
		ctx = agent.WithSession(ctx, session)
	}

	start := time.Now()
	result := s.asker.Ask(ctx, req.Question, model.AskOverrides{
		Size:     mo.PointerToOption(req.RetrievalSize),
		MinScore: mo.PointerToOption(req.MinScore),
	})
	s.metrics.ObserveAsk(result, time.Since(start))

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if s.asker == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Agent not initialized")
		return
	}

	config := s.asker.Config()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"store": map[string]any{
			"index": config.Store.IndexName,
		},
		"retrieval": map[string]any{
			"size":        config.Retrieval.Size,
			"min_score":   config.Retrieval.MinScore,
			"text_weight": config.Retrieval.TextWeight,
		},
		"verbose": config.Agent.Verbose,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Error encoding response", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}
