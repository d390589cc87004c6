package client

import (
	"context"
	"sync"

	"github.com/hupe1980/ragmesh/core"
)

// StubInvoker satisfies core.AgentInvoker without any live agents. It returns
// canned plausible payloads per action, so the orchestrator degrades
// gracefully when the agent deployment is absent (local development, demos)
// and tests can drive workflows deterministically.
//
// Responses and failures are keyed by action; every call is recorded and can
// be inspected via Calls. Safe for concurrent use.
type StubInvoker struct {
	mu        sync.Mutex
	responses map[string]map[string]any
	failures  map[string]*core.WorkflowError
	calls     []core.StageRequest
}

var _ core.AgentInvoker = (*StubInvoker)(nil)

// NewStubInvoker constructs a stub pre-seeded with a coherent set of payloads
// covering the full query and ingestion pipelines.
func NewStubInvoker() *StubInvoker {
	return &StubInvoker{
		responses: map[string]map[string]any{
			"parse": {
				"intent":          "define_concept",
				"entities":        []any{"machine learning"},
				"questionType":    "factual",
				"requiredContext": "general knowledge",
				"constraints":     []any{},
			},
			"retrieve": {
				"chunks": []any{
					map[string]any{"id": "chunk-1", "content": "Machine learning is a branch of AI.", "score": 0.92, "source": "doc-1"},
					map[string]any{"id": "chunk-2", "content": "Models learn patterns from data.", "score": 0.87, "source": "doc-2"},
				},
			},
			"rank": {
				"chunks": []any{
					map[string]any{"id": "chunk-1", "content": "Machine learning is a branch of AI.", "score": 0.95, "source": "doc-1", "justification": "directly defines the concept"},
					map[string]any{"id": "chunk-2", "content": "Models learn patterns from data.", "score": 0.81, "source": "doc-2", "justification": "supporting detail"},
				},
			},
			"generate": {
				"response":   "Machine learning is a branch of AI in which models learn patterns from data.",
				"citations":  []any{map[string]any{"chunkId": "chunk-1", "source": "doc-1"}},
				"confidence": 0.9,
			},
			"validate": {
				"passed":      true,
				"confidence":  0.95,
				"issues":      []any{},
				"suggestions": []any{},
			},
			"ingest": {
				"chunks":            12,
				"chunkSize":         512,
				"metadata":          map[string]any{"language": "en"},
				"embeddingStrategy": "per-chunk",
				"indexOptimization": "approximate nearest neighbor",
			},
		},
		failures: map[string]*core.WorkflowError{},
	}
}

// WithResponse overrides the canned payload for an action. Returns the
// receiver for chaining.
func (s *StubInvoker) WithResponse(action string, payload map[string]any) *StubInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[action] = payload
	return s
}

// WithFailure makes calls to an action fail with the given classified error.
func (s *StubInvoker) WithFailure(action string, err *core.WorkflowError) *StubInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] = err
	return s
}

// Invoke implements core.AgentInvoker.
func (s *StubInvoker) Invoke(ctx context.Context, wctx *core.WorkflowContext, req core.StageRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewWorkflowError(core.ErrCancelled, "invocation cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	if err, ok := s.failures[req.Action]; ok {
		return nil, err
	}

	payload, ok := s.responses[req.Action]
	if !ok {
		return nil, core.NewWorkflowError(core.ErrAgentUnreachable,
			"no stub response configured for action "+req.Action, nil)
	}

	return payload, nil
}

// Calls returns a copy of every request received so far, in order.
func (s *StubInvoker) Calls() []core.StageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.StageRequest, len(s.calls))
	copy(out, s.calls)
	return out
}

// Actions returns just the action names of received calls, in order.
func (s *StubInvoker) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Action
	}
	return out
}
