// Package server exposes the orchestrator over HTTP. Workflow endpoints
// accept JSON request bodies and return the workflow result envelope;
// operational endpoints report process health, agent fleet readiness, the
// configured endpoint directory and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/ragmesh"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/health"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/workflow"
)

const maxBodyBytes = 10 << 20 // 10 MiB request body cap

// Options holds configuration overrides passed to New.
type Options struct {
	// Logger receives request-level logging.
	Logger logging.Logger
	// Checker probes the agent fleet for /ready and /api/agents/status.
	// Defaults to a checker over the orchestrator's directory.
	Checker *health.Checker
	// MetricsHandler serves GET /metrics. Nil omits the route.
	MetricsHandler http.Handler
}

// Server is the HTTP front door for one Orchestrator.
type Server struct {
	orchestrator *ragmesh.Orchestrator
	checker      *health.Checker
	logger       logging.Logger
	metrics      http.Handler
	started      time.Time
}

// New constructs a Server around an orchestrator.
func New(orchestrator *ragmesh.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Checker == nil {
		opts.Checker = health.NewChecker(orchestrator.Directory())
	}

	return &Server{
		orchestrator: orchestrator,
		checker:      opts.Checker,
		logger:       opts.Logger,
		metrics:      opts.MetricsHandler,
		started:      time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/workflows/query", s.handleQuery)
	mux.HandleFunc("POST /api/workflows/ingest", s.handleIngest)
	mux.HandleFunc("POST /api/workflows/batch-ingest", s.handleBatchIngest)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /api/agents/status", s.handleAgentStatus)
	mux.HandleFunc("GET /api/config/agents", s.handleAgentConfig)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return mux
}

type queryRequest struct {
	Query       string         `json:"query"`
	DocumentIDs []string       `json:"documentIds"`
	UserID      string         `json:"userId"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}

	metadata := req.Metadata
	if req.UserID != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["userId"] = req.UserID
	}

	result := s.orchestrator.ExecuteQueryWorkflow(r.Context(), req.Query, req.DocumentIDs, metadata)
	s.writeResult(w, result)
}

type ingestRequest struct {
	DocumentID string         `json:"documentId"`
	Content    string         `json:"content"`
	UserID     string         `json:"userId"`
	Metadata   map[string]any `json:"metadata"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}

	metadata := req.Metadata
	if req.UserID != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["userId"] = req.UserID
	}

	result := s.orchestrator.ExecuteIngestionWorkflow(r.Context(), req.DocumentID, req.Content, metadata)
	s.writeResult(w, result)
}

type batchIngestRequest struct {
	Documents []workflow.Document `json:"documents"`
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req batchIngestRequest
	if !s.decode(w, r, &req) {
		return
	}

	if len(req.Documents) == 0 {
		s.writeError(w, http.StatusBadRequest, "documents array is required")
		return
	}

	summary := s.orchestrator.ExecuteBatchIngestion(r.Context(), req.Documents)

	// Per-item failures are part of the summary; the request itself succeeded.
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "ragmesh-orchestrator",
		"uptimeSeconds": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	summary := s.checker.Check(r.Context())

	status := http.StatusOK
	if !summary.Ready {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, summary)
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.checker.Check(r.Context()))
}

func (s *Server) handleAgentConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.orchestrator.Directory(),
	})
}

// decode reads the JSON request body into dst. On malformed input it writes
// a 400 response and reports false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}

	return true
}

// writeResult maps the workflow result envelope to an HTTP status: success
// is 200, request validation failures are 400, everything else is 500.
func (s *Server) writeResult(w http.ResponseWriter, result core.WorkflowResult) {
	status := http.StatusOK

	if !result.Success {
		status = http.StatusInternalServerError
		if result.Error != nil {
			if result.Error.Code == string(core.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			s.logger.Warn("workflow request failed trace_id=%s code=%s", result.TraceID, result.Error.Code)
		}
	}

	s.writeJSON(w, status, result)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, core.WorkflowResult{
		Success: false,
		Error: &core.ErrorObject{
			Code:    string(core.ErrInvalidRequest),
			Message: msg,
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed error=%s", err)
	}
}
