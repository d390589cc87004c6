package workflow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
)

// Document is one batch ingestion input item.
type Document struct {
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
}

// BatchOrchestrator runs IngestionWorkflow once per document without
// cross-item coupling: a failing or timed-out item never aborts its
// siblings, and the summary lists one result per input in input order.
type BatchOrchestrator struct {
	ingest      *IngestionWorkflow
	concurrency int
	logger      logging.Logger
	metrics     *metrics.Recorder
}

// NewBatchOrchestrator constructs a BatchOrchestrator fanning out over the
// given ingestion workflow.
func NewBatchOrchestrator(ingest *IngestionWorkflow, optFns ...func(o *Options)) *BatchOrchestrator {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &BatchOrchestrator{
		ingest:      ingest,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Execute ingests every document in the batch. Items missing an id or
// content are recorded as failed with a validation error and never reach the
// ingestion agent. Valid items run concurrently up to the configured bound;
// each gets a child context whose trace id is the batch trace id suffixed
// with the document id so batch-level and item-level logs correlate.
func (b *BatchOrchestrator) Execute(ctx context.Context, wctx *core.WorkflowContext, docs []Document) core.BatchSummary {
	start := time.Now()

	b.logger.Info("batch ingestion started trace_id=%s documents=%d", wctx.TraceID(), len(docs))

	results := make([]core.BatchItemResult, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)

	for i, doc := range docs {
		if doc.DocumentID == "" || doc.Content == "" {
			results[i] = core.BatchItemResult{
				DocumentID: doc.DocumentID,
				Success:    false,
				Error: &core.ErrorObject{
					Code:    string(core.ErrInvalidRequest),
					Message: "missing documentId or content",
				},
			}
			continue
		}

		g.Go(func() error {
			itemCtx := wctx.Child(doc.DocumentID)
			result := b.ingest.Execute(ctx, itemCtx, doc.DocumentID, doc.Content)

			item := core.BatchItemResult{DocumentID: doc.DocumentID, Success: result.Success}
			if result.Success {
				item.Result = &result
			} else {
				item.Error = result.Error
			}
			results[i] = item

			// Item failures are isolated: never propagate an error here, it
			// would cancel the sibling goroutines.
			return nil
		})
	}

	_ = g.Wait()

	summary := core.BatchSummary{Total: len(docs), Results: results}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	summary.Success = summary.Failed == 0

	b.metrics.ObserveWorkflow("batch_ingestion", time.Since(start), summary.Success)
	b.logger.Info("batch ingestion completed trace_id=%s total=%d successful=%d failed=%d",
		wctx.TraceID(), summary.Total, summary.Successful, summary.Failed)

	return summary
}
