package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
	"github.com/hupe1980/ragmesh/stage"
)

// Phase is the execution state of a QueryWorkflow. Phases advance strictly in
// order; the first stage failure transitions to PhaseFailed and no later
// stage executes.
type Phase string

// Query workflow phases in execution order, plus the two terminal states.
const (
	PhaseParsing    Phase = "parsing"
	PhaseRetrieving Phase = "retrieving"
	PhaseRanking    Phase = "ranking"
	PhaseGenerating Phase = "generating"
	PhaseValidating Phase = "validating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Options holds dependency + configuration overrides shared by the workflow
// constructors.
type Options struct {
	// Logger receives workflow progress logging.
	Logger logging.Logger
	// Metrics records stage and workflow observations. Nil disables.
	Metrics *metrics.Recorder
	// TopN is the number of top-ranked chunks handed to generation.
	TopN int
	// ContextSlice is the number of original chunks handed to validation.
	ContextSlice int
	// Concurrency bounds parallel batch items (BatchOrchestrator only).
	Concurrency int
}

func defaultOptions() Options {
	return Options{
		Logger:       logging.NoOpLogger{},
		TopN:         stage.DefaultTopN,
		ContextSlice: stage.DefaultContextSlice,
		Concurrency:  4,
	}
}

// QueryWorkflow coordinates the five-stage query pipeline. Each execution is
// independent; the struct itself is immutable after construction and safe for
// concurrent use.
type QueryWorkflow struct {
	exec         *stage.Executor
	topN         int
	contextSlice int
	logger       logging.Logger
	metrics      *metrics.Recorder
}

// NewQueryWorkflow constructs a QueryWorkflow executing stages through exec.
func NewQueryWorkflow(exec *stage.Executor, optFns ...func(o *Options)) *QueryWorkflow {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &QueryWorkflow{
		exec:         exec,
		topN:         opts.TopN,
		contextSlice: opts.ContextSlice,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Execute runs the full pipeline for one query. The result carries the
// generation payload together with the validation report on success, or the
// first stage failure otherwise. A validation report with passed=false is
// still a success: content quality is reported as data, not treated as a
// pipeline fault.
func (w *QueryWorkflow) Execute(ctx context.Context, wctx *core.WorkflowContext, query string, documentIDs []string) core.WorkflowResult {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		return w.fail(wctx, start, core.InvalidRequestError("query is required"))
	}

	w.logger.Info("query workflow started trace_id=%s user_id=%s", wctx.TraceID(), wctx.UserID())

	state := core.NewPipelineState()

	phases := []struct {
		phase Phase
		def   stage.Definition
	}{
		{PhaseParsing, stage.ParseQuery(query)},
		{PhaseRetrieving, stage.RetrieveChunks(documentIDs)},
		{PhaseRanking, stage.RankChunks(query)},
		{PhaseGenerating, stage.GenerateResponse(query, w.topN)},
		{PhaseValidating, stage.ValidateResponse(w.contextSlice)},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return w.fail(wctx, start, core.NewWorkflowError(core.ErrCancelled, "workflow cancelled", err))
		}

		w.logger.Debug("query workflow phase=%s trace_id=%s", p.phase, wctx.TraceID())

		result := w.exec.Run(ctx, wctx, p.def, state)
		if !result.Ok() {
			return w.fail(wctx, start, result.Err)
		}

		state.Put(result.Stage, result.Payload)
	}

	generation, _ := state.Get(core.StageGenerate)
	report, _ := state.Get(core.StageValidate)

	if passed, ok := report["passed"].(bool); ok && !passed {
		w.logger.Warn("validation reported issues trace_id=%s", wctx.TraceID())
	}

	w.metrics.ObserveWorkflow("query", time.Since(start), true)
	w.logger.Info("query workflow completed phase=%s trace_id=%s duration=%s", PhaseDone, wctx.TraceID(), time.Since(start))

	return core.SuccessResult(wctx.TraceID(), map[string]any{
		"generation": generation,
		"validation": report,
	})
}

func (w *QueryWorkflow) fail(wctx *core.WorkflowContext, start time.Time, werr *core.WorkflowError) core.WorkflowResult {
	w.metrics.ObserveWorkflow("query", time.Since(start), false)
	w.logger.Error("query workflow failed phase=%s trace_id=%s error=%s", PhaseFailed, wctx.TraceID(), werr.Error())
	return core.FailureResult(wctx.TraceID(), werr)
}
