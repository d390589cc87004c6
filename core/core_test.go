package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowError_Error(t *testing.T) {
	err := NewWorkflowError(ErrAgentBadStatus, "agent returned status 500", nil).WithStage(StageRetrieve)
	assert.Equal(t, "stage retrieve: AGENT_BAD_STATUS: agent returned status 500", err.Error())

	val := InvalidRequestError("query is required")
	assert.Equal(t, "INVALID_REQUEST: query is required", val.Error())
}

func TestWorkflowError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewWorkflowError(ErrAgentUnreachable, "agent unreachable", cause)

	assert.ErrorIs(t, err, cause)
}

func TestWorkflowError_Retryable(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{ErrAgentUnreachable, true},
		{ErrAgentTimeout, true},
		{ErrAgentBadStatus, false},
		{ErrAgentMalformedResponse, false},
		{ErrInvalidRequest, false},
		{ErrCancelled, false},
	}

	for _, tt := range tests {
		err := NewWorkflowError(tt.kind, "x", nil)
		assert.Equal(t, tt.retryable, err.Retryable(), "kind %s", tt.kind)
	}
}

func TestWorkflowError_WithStageDoesNotMutateOriginal(t *testing.T) {
	base := NewWorkflowError(ErrAgentTimeout, "no response", nil)
	stamped := base.WithStage(StageGenerate)

	assert.Equal(t, Stage(""), base.Stage)
	assert.Equal(t, StageGenerate, stamped.Stage)
}

func TestStageResult(t *testing.T) {
	ok := OkResult(StageParse, map[string]any{"intent": "define_concept"})
	assert.True(t, ok.Ok())
	assert.Equal(t, StageParse, ok.Stage)

	failed := FailedResult(NewWorkflowError(ErrAgentTimeout, "no response", nil).WithStage(StageRank))
	assert.False(t, failed.Ok())
	assert.Equal(t, StageRank, failed.Stage)
}

func TestWorkflowResult_Shapes(t *testing.T) {
	success := SuccessResult("trace-1", map[string]any{"response": "hi"})
	assert.True(t, success.Success)
	assert.Equal(t, "trace-1", success.TraceID)
	assert.Nil(t, success.Error)

	failure := FailureResult("trace-2", NewWorkflowError(ErrAgentBadStatus, "status 500", nil).WithStage(StageRetrieve))
	assert.False(t, failure.Success)
	require.NotNil(t, failure.Error)
	assert.Equal(t, "AGENT_BAD_STATUS", failure.Error.Code)
	assert.Equal(t, "retrieve", failure.Error.Stage)
	assert.Nil(t, failure.Data)
}

func TestPipelineState(t *testing.T) {
	state := NewPipelineState()

	_, ok := state.Get(StageParse)
	assert.False(t, ok)

	state.Put(StageParse, map[string]any{"intent": "define_concept"})
	state.Put(StageRetrieve, map[string]any{"chunks": []any{"a", "b"}})

	parsed, ok := state.Get(StageParse)
	require.True(t, ok)
	assert.Equal(t, "define_concept", parsed["intent"])

	assert.Equal(t, []Stage{StageParse, StageRetrieve}, state.Completed())
	assert.Equal(t, []any{"a", "b"}, state.Chunks(StageRetrieve))
	assert.Nil(t, state.Chunks(StageRank))
}
