package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
)

// flakyInvoker fails a fixed number of times before succeeding.
type flakyInvoker struct {
	failures int32
	err      *core.WorkflowError
	calls    int32
}

func (f *flakyInvoker) Invoke(ctx context.Context, wctx *core.WorkflowContext, req core.StageRequest) (map[string]any, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, f.err
	}
	return map[string]any{"ok": true}, nil
}

func TestRetryInvoker_RetriesTransportFailures(t *testing.T) {
	flaky := &flakyInvoker{
		failures: 2,
		err:      core.NewWorkflowError(core.ErrAgentUnreachable, "agent unreachable", nil),
	}

	invoker := NewRetryInvoker(flaky, RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 2.0}, logging.NoOpLogger{})

	payload, err := invoker.Invoke(context.Background(), core.NewWorkflowContext("", "", nil), core.StageRequest{Agent: core.AgentRetrieval, Action: "retrieve"})

	require.NoError(t, err)
	assert.Equal(t, true, payload["ok"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.calls))
}

func TestRetryInvoker_ExhaustsAttempts(t *testing.T) {
	flaky := &flakyInvoker{
		failures: 10,
		err:      core.NewWorkflowError(core.ErrAgentTimeout, "no response", nil),
	}

	invoker := NewRetryInvoker(flaky, RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 2.0}, nil)

	_, err := invoker.Invoke(context.Background(), core.NewWorkflowContext("", "", nil), core.StageRequest{Agent: core.AgentRanking, Action: "rank"})

	var werr *core.WorkflowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, core.ErrAgentTimeout, werr.Kind)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.calls))
}

func TestRetryInvoker_NoRetryOnBadStatus(t *testing.T) {
	flaky := &flakyInvoker{
		failures: 10,
		err:      core.NewWorkflowError(core.ErrAgentBadStatus, "status 500", nil),
	}

	invoker := NewRetryInvoker(flaky, RetryConfig{MaxAttempts: 5, BackoffBase: time.Millisecond, BackoffMultiplier: 2.0}, nil)

	_, err := invoker.Invoke(context.Background(), core.NewWorkflowContext("", "", nil), core.StageRequest{Agent: core.AgentGeneration, Action: "generate"})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&flaky.calls))
}

func TestRetryInvoker_NoRetryOnMalformedResponse(t *testing.T) {
	flaky := &flakyInvoker{
		failures: 10,
		err:      core.NewWorkflowError(core.ErrAgentMalformedResponse, "unparseable body", nil),
	}

	invoker := NewRetryInvoker(flaky, DefaultRetryConfig(), nil)

	_, err := invoker.Invoke(context.Background(), core.NewWorkflowContext("", "", nil), core.StageRequest{Agent: core.AgentQueryParser, Action: "parse"})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&flaky.calls))
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BackoffBase: 100 * time.Millisecond, BackoffMultiplier: 2.0}

	assert.Equal(t, time.Duration(0), cfg.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, cfg.Backoff(2))
	assert.Equal(t, 400*time.Millisecond, cfg.Backoff(3))
}

func TestStubInvoker_Defaults(t *testing.T) {
	stub := NewStubInvoker()
	wctx := core.NewWorkflowContext("", "", nil)

	payload, err := stub.Invoke(context.Background(), wctx, core.StageRequest{Agent: core.AgentQueryParser, Action: "parse"})
	require.NoError(t, err)
	assert.Equal(t, "define_concept", payload["intent"])

	payload, err = stub.Invoke(context.Background(), wctx, core.StageRequest{Agent: core.AgentValidation, Action: "validate"})
	require.NoError(t, err)
	assert.Equal(t, true, payload["passed"])

	assert.Equal(t, []string{"parse", "validate"}, stub.Actions())
}

func TestStubInvoker_Overrides(t *testing.T) {
	stub := NewStubInvoker().
		WithResponse("generate", map[string]any{"response": "custom"}).
		WithFailure("retrieve", core.NewWorkflowError(core.ErrAgentTimeout, "no response", nil))
	wctx := core.NewWorkflowContext("", "", nil)

	payload, err := stub.Invoke(context.Background(), wctx, core.StageRequest{Agent: core.AgentGeneration, Action: "generate"})
	require.NoError(t, err)
	assert.Equal(t, "custom", payload["response"])

	_, err = stub.Invoke(context.Background(), wctx, core.StageRequest{Agent: core.AgentRetrieval, Action: "retrieve"})
	var werr *core.WorkflowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, core.ErrAgentTimeout, werr.Kind)
}
