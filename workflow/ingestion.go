package workflow

import (
	"context"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
	"github.com/hupe1980/ragmesh/stage"
)

// IngestionWorkflow hands one document to the ingestion agent and normalizes
// its processing plan. A single logical stage: submitted → done/failed.
type IngestionWorkflow struct {
	exec    *stage.Executor
	logger  logging.Logger
	metrics *metrics.Recorder
}

// NewIngestionWorkflow constructs an IngestionWorkflow executing its stage
// through exec.
func NewIngestionWorkflow(exec *stage.Executor, optFns ...func(o *Options)) *IngestionWorkflow {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &IngestionWorkflow{
		exec:    exec,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Execute submits one document. The success payload is the ingestion agent's
// processing plan (chunks, chunkSize, metadata, embeddingStrategy,
// indexOptimization).
func (w *IngestionWorkflow) Execute(ctx context.Context, wctx *core.WorkflowContext, documentID, content string) core.WorkflowResult {
	start := time.Now()

	if documentID == "" || content == "" {
		werr := core.InvalidRequestError("documentId and content are required")
		w.metrics.ObserveWorkflow("ingestion", time.Since(start), false)
		return core.FailureResult(wctx.TraceID(), werr)
	}

	w.logger.Info("ingestion workflow started document_id=%s trace_id=%s", documentID, wctx.TraceID())

	result := w.exec.Run(ctx, wctx, stage.IngestDocument(documentID, content), core.NewPipelineState())
	if !result.Ok() {
		w.metrics.ObserveWorkflow("ingestion", time.Since(start), false)
		w.logger.Error("ingestion workflow failed document_id=%s trace_id=%s error=%s", documentID, wctx.TraceID(), result.Err.Error())
		return core.FailureResult(wctx.TraceID(), result.Err)
	}

	w.metrics.ObserveWorkflow("ingestion", time.Since(start), true)
	w.logger.Info("ingestion workflow completed document_id=%s trace_id=%s duration=%s", documentID, wctx.TraceID(), time.Since(start))

	return core.SuccessResult(wctx.TraceID(), result.Payload)
}
