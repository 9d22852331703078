// Package serve exposes the decision pipeline over HTTP: the request entry
// point, the metrics snapshot query, and a health check.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/access"
	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/monitoring"
)

// Enforcer is the decision pipeline entry point the server fronts.
type Enforcer interface {
	Enforce(ctx context.Context, req access.Request) (access.Outcome, error)
}

// MetricsSource serves point-in-time metrics snapshots.
type MetricsSource interface {
	Snapshot(ctx context.Context) (monitoring.Metrics, error)
}

// APIServer provides the HTTP API for the decision pipeline.
type APIServer interface {
	Start(ctx context.Context, port int) error
}

type apiServer struct {
	enforcer Enforcer
	metrics  MetricsSource
	logger   zerolog.Logger

	server *http.Server
}

// AccessRequest is the request-entry-point payload.
type AccessRequest struct {
	User     string `json:"user"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	SourceIP string `json:"source_ip"`
	DeviceID string `json:"device_id"`
}

// AccessResponse is the decision returned to the caller. Remediation and
// audit failures are invisible here; callers always get a decision plus
// reason.
type AccessResponse struct {
	Decision access.Decision `json:"decision"`
	Reason   string          `json:"reason"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAPIServer creates a new API server over the enforcer and metrics source.
func NewAPIServer(enforcer Enforcer, metrics MetricsSource, logger zerolog.Logger) APIServer {
	return &apiServer{
		enforcer: enforcer,
		metrics:  metrics,
		logger:   logger.With().Str("component", "api-server").Logger(),
	}
}

// Start starts the API server on the specified port and blocks until ctx is
// cancelled or the listener fails.
func (s *apiServer) Start(ctx context.Context, port int) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/access", s.handleAccess)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleAccess is the request entry point: it accepts an access request and
// returns the authoritative decision.
func (s *apiServer) handleAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.enforcer.Enforce(r.Context(), access.Request{
		User:        req.User,
		Action:      req.Action,
		Resource:    req.Resource,
		SourceIP:    req.SourceIP,
		DeviceID:    req.DeviceID,
		RequestTime: time.Now(),
	})
	if err != nil {
		var malformed *access.MalformedRequestError
		if errors.As(err, &malformed) {
			s.sendError(w, http.StatusBadRequest, malformed.Error())
			return
		}
		s.logger.Error().Err(err).Msg("enforcement failed")
		s.sendError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.sendJSON(w, http.StatusOK, AccessResponse{
		Decision: outcome.Decision,
		Reason:   outcome.Reason,
	})
}

// handleMetrics returns a point-in-time metrics snapshot.
func (s *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snapshot, err := s.metrics.Snapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to take metrics snapshot")
		s.sendError(w, http.StatusInternalServerError, "metrics unavailable")
		return
	}

	s.sendJSON(w, http.StatusOK, snapshot)
}

func (s *apiServer) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *apiServer) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
