// Package http exposes workflow execution over HTTP. It is an adapter in
// front of the engine: state lives per-request, the engine stays stateless.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tideloom/tideloom/internal/compiler"
	"github.com/tideloom/tideloom/pkg/domain"
)

// Engine is the execution surface the server drives.
type Engine interface {
	RunWorkflow(ctx context.Context, wf *domain.Workflow, rc *domain.RunContext, input any) (any, error)
}

// ContextFactory builds the run context for one request, pre-populated
// with the host's capabilities.
type ContextFactory func(workflow string) *domain.RunContext

// Server handles workflow run requests.
type Server struct {
	engine   Engine
	parser   *compiler.Parser
	contexts ContextFactory
}

// RunRequest is the POST /v1/runs payload: a workflow document plus the
// input value it starts from.
type RunRequest struct {
	Workflow string `json:"workflow"`
	Input    any    `json:"input,omitempty"`
}

// RunResponse carries the run outcome.
type RunResponse struct {
	RunID  string    `json:"run_id"`
	Output any       `json:"output,omitempty"`
	Error  *RunError `json:"error,omitempty"`
}

// RunError is the wire shape of an engine failure.
type RunError struct {
	Kind    string   `json:"kind"`
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

// NewHandler builds the router: run submission, health, and metrics.
func NewHandler(engine Engine, contexts ContextFactory, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{engine: engine, parser: compiler.NewParser(), contexts: contexts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/v1/runs", s.handleRun)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wf, err := s.parser.Parse([]byte(req.Workflow))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, RunResponse{Error: asRunError(err)})
		return
	}

	rc := s.contexts(wf.Document.Name)
	output, err := s.engine.RunWorkflow(r.Context(), wf, rc, req.Input)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, RunResponse{RunID: rc.RunID, Error: asRunError(err)})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{RunID: rc.RunID, Output: output})
}

func asRunError(err error) *RunError {
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		return &RunError{Kind: string(execErr.Kind), Path: execErr.Path, Message: execErr.Error()}
	}
	var evalErr *domain.EvaluationError
	if errors.As(err, &evalErr) {
		return &RunError{Kind: "evaluationError", Message: evalErr.Error()}
	}
	return &RunError{Kind: "validationError", Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
