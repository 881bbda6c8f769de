package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/internal/observability"
	"github.com/tideloom/tideloom/internal/runtime"
	"github.com/tideloom/tideloom/internal/tasks"
	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/registry"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	reg := registry.New()
	tasks.Register(reg, tasks.Deps{Evaluator: expr.New()})

	promReg := prometheus.NewRegistry()
	metrics := observability.New(promReg)
	engine := runtime.New(reg, runtime.WithHooks(metrics.Hooks()))

	return NewHandler(engine, domain.NewRunContext, promReg)
}

func postRun(t *testing.T, h http.Handler, body RunRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const sampleWorkflow = `
document:
  dsl: "1.0.0"
  namespace: test
  name: greeter
  version: "0.1.0"
do:
  - greet:
      set:
        greeting: "${ \"hello \" + input.name }"
`

func TestRunEndpointExecutesWorkflow(t *testing.T) {
	h := newTestHandler(t)

	rec := postRun(t, h, RunRequest{
		Workflow: sampleWorkflow,
		Input:    map[string]any{"name": "ada"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Nil(t, resp.Error)

	output, ok := resp.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello ada", output["greeting"])
}

func TestRunEndpointRejectsBadBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunEndpointRejectsInvalidWorkflow(t *testing.T) {
	h := newTestHandler(t)

	rec := postRun(t, h, RunRequest{Workflow: "do:\n  - broken:\n      nonsense: 1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validationError", resp.Error.Kind)
}

func TestRunEndpointReportsExecutionFailure(t *testing.T) {
	h := newTestHandler(t)

	rec := postRun(t, h, RunRequest{Workflow: `
document:
  dsl: "1.0.0"
  namespace: test
  name: doomed
  version: "0.1.0"
do:
  - explode:
      raise:
        error: paymentDeclined
        message: no funds
`})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "paymentDeclined", resp.Error.Kind)
	assert.Equal(t, []string{"doomed", "explode"}, resp.Error.Path)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpointExposesTaskCounters(t *testing.T) {
	h := newTestHandler(t)

	// Execute one workflow so the counters have samples.
	rec := postRun(t, h, RunRequest{Workflow: sampleWorkflow, Input: map[string]any{"name": "x"}})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	h.ServeHTTP(metricsRec, req)

	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "tideloom_tasks_total")
}
