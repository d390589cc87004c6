// Package stage executes single pipeline stages. A Definition binds a stage
// name to one agent action, a request builder deriving the call body from
// accumulated pipeline state, and the minimal response shape the agent must
// return. The Executor performs the call through a core.AgentInvoker,
// validates the response and reports a tagged StageResult; it never mutates
// pipeline state itself.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
)

// BuildFunc derives the agent request body from the pipeline state
// accumulated so far. It must be pure: no side effects, no state mutation.
type BuildFunc func(state *core.PipelineState) (map[string]any, error)

// Definition describes one executable pipeline stage.
type Definition struct {
	// Stage is the pipeline step identifier.
	Stage core.Stage
	// Agent names the remote service in the endpoint directory.
	Agent string
	// Action is the path POSTed to on the agent.
	Action string
	// Build derives the request body from pipeline state.
	Build BuildFunc
	// Required lists top-level response fields that must be present for the
	// payload to count as well-formed.
	Required []string
}

// Options holds configuration overrides passed to NewExecutor.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Recorder
}

// Executor runs exactly one pipeline stage per call. It is stateless and safe
// for concurrent use across workflow executions.
type Executor struct {
	invoker core.AgentInvoker
	logger  logging.Logger
	metrics *metrics.Recorder
}

// NewExecutor constructs an Executor backed by the given invoker.
func NewExecutor(invoker core.AgentInvoker, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		invoker: invoker,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Run executes one stage against the current pipeline state. Any invoker or
// shape-validation failure is returned as a Failed result stamped with the
// stage name; the caller decides whether to append the Ok payload to state.
func (e *Executor) Run(ctx context.Context, wctx *core.WorkflowContext, def Definition, state *core.PipelineState) core.StageResult {
	e.logger.Debug("stage started stage=%s agent=%s trace_id=%s", def.Stage, def.Agent, wctx.TraceID())

	body, err := def.Build(state)
	if err != nil {
		werr := core.NewWorkflowError(core.ErrAgentMalformedResponse,
			fmt.Sprintf("cannot build %s request: %v", def.Stage, err), err).WithStage(def.Stage)
		e.finish(wctx, def, 0, werr)
		return core.FailedResult(werr)
	}

	start := time.Now()
	payload, err := e.invoker.Invoke(ctx, wctx, core.StageRequest{Agent: def.Agent, Action: def.Action, Body: body})
	dur := time.Since(start)

	if err != nil {
		werr := asWorkflowError(err).WithStage(def.Stage)
		e.finish(wctx, def, dur, werr)
		return core.FailedResult(werr)
	}

	for _, field := range def.Required {
		if _, ok := payload[field]; !ok {
			werr := core.NewWorkflowError(core.ErrAgentMalformedResponse,
				fmt.Sprintf("agent %s response missing required field %q", def.Agent, field), nil).WithStage(def.Stage)
			e.finish(wctx, def, dur, werr)
			return core.FailedResult(werr)
		}
	}

	e.finish(wctx, def, dur, nil)

	return core.OkResult(def.Stage, payload)
}

func (e *Executor) finish(wctx *core.WorkflowContext, def Definition, dur time.Duration, werr *core.WorkflowError) {
	if werr != nil {
		e.metrics.ObserveStage(string(def.Stage), string(werr.Kind), dur, false)
		e.logger.Error("stage failed stage=%s agent=%s trace_id=%s duration=%s error=%s",
			def.Stage, def.Agent, wctx.TraceID(), dur, werr.Error())
		return
	}
	e.metrics.ObserveStage(string(def.Stage), "", dur, true)
	e.logger.Info("stage completed stage=%s agent=%s trace_id=%s duration=%s",
		def.Stage, def.Agent, wctx.TraceID(), dur)
}

// asWorkflowError unwraps the classified error from an invoker, falling back
// to the unreachable kind for anything unclassified.
func asWorkflowError(err error) *core.WorkflowError {
	var werr *core.WorkflowError
	if errors.As(err, &werr) {
		return werr
	}
	return core.NewWorkflowError(core.ErrAgentUnreachable, err.Error(), err)
}
