package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh"
	"github.com/hupe1980/ragmesh/client"
	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/health"
)

func newTestServer(t *testing.T, stub *client.StubInvoker, optFns ...func(o *Options)) *httptest.Server {
	t.Helper()

	orchestrator := ragmesh.New(config.Default().Agents, func(o *ragmesh.Options) {
		o.Invoker = stub
	})

	srv := httptest.NewServer(New(orchestrator, optFns...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) core.WorkflowResult {
	t.Helper()
	defer resp.Body.Close()

	var result core.WorkflowResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestServer_Query(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp := postJSON(t, srv.URL+"/api/workflows/query", map[string]any{
		"query":  "What is machine learning?",
		"userId": "user-7",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeResult(t, resp)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.TraceID)
	assert.Contains(t, result.Data, "generation")
	assert.Contains(t, result.Data, "validation")
}

func TestServer_QueryEmptyQueryIs400(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp := postJSON(t, srv.URL+"/api/workflows/query", map[string]any{"query": ""})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	result := decodeResult(t, resp)
	assert.False(t, result.Success)
	assert.Equal(t, "INVALID_REQUEST", result.Error.Code)
}

func TestServer_QueryAgentFailureIs500(t *testing.T) {
	stub := client.NewStubInvoker().
		WithFailure("retrieve", core.NewWorkflowError(core.ErrAgentUnreachable, "connection refused", nil))
	srv := newTestServer(t, stub)

	resp := postJSON(t, srv.URL+"/api/workflows/query", map[string]any{"query": "q"})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	result := decodeResult(t, resp)
	assert.Equal(t, "AGENT_UNREACHABLE", result.Error.Code)
	assert.Equal(t, "retrieve", result.Error.Stage)
}

func TestServer_MalformedBodyIs400(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp, err := http.Post(srv.URL+"/api/workflows/query", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_Ingest(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp := postJSON(t, srv.URL+"/api/workflows/ingest", map[string]any{
		"documentId": "doc-1",
		"content":    "document text",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeResult(t, resp)
	assert.True(t, result.Success)
	assert.Contains(t, result.Data, "chunks")
}

func TestServer_BatchIngest(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp := postJSON(t, srv.URL+"/api/workflows/batch-ingest", map[string]any{
		"documents": []map[string]any{
			{"documentId": "doc-a", "content": "alpha"},
			{"documentId": "", "content": "missing id"},
		},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var summary core.BatchSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))

	assert.False(t, summary.Success)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "doc-a", summary.Results[0].DocumentID)
}

func TestServer_BatchIngestEmptyIs400(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp := postJSON(t, srv.URL+"/api/workflows/batch-ingest", map[string]any{"documents": []any{}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_ReadyReflectsAgentFleet(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(agent.Close)

	directory := config.Directory{"query-parser": agent.URL}
	srv := newTestServer(t, client.NewStubInvoker(), func(o *Options) {
		o.Checker = health.NewChecker(directory)
	})

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summary health.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.True(t, summary.Ready)
}

func TestServer_ReadyIs503WhenAgentsDown(t *testing.T) {
	// Default checker probes the default directory; nothing listens there.
	srv := newTestServer(t, client.NewStubInvoker())

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_AgentConfig(t *testing.T) {
	srv := newTestServer(t, client.NewStubInvoker())

	resp, err := http.Get(srv.URL + "/api/config/agents")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body["agents"], 6)
	assert.Contains(t, body["agents"], "retrieval")
}
