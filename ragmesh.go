// Package ragmesh provides a high-level façade over the workflow engine for
// retrieval-augmented generation pipelines. Most applications interact with
// this package by:
//  1. Creating an Orchestrator via New() with an agent endpoint directory
//  2. Executing query, ingestion or batch-ingestion workflows
//
// The façade wires the agent client, stage executor and workflows together
// while keeping setup ergonomics concise. Defaults are safe for local
// development; production deployments typically supply a structured logger,
// a metrics recorder and retry configuration.
package ragmesh

import (
	"context"
	"time"

	"github.com/hupe1980/ragmesh/client"
	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
	"github.com/hupe1980/ragmesh/stage"
	"github.com/hupe1980/ragmesh/workflow"
)

// Options configures the Orchestrator.
type Options struct {
	// Invoker performs agent calls. Defaults to an HTTP invoker over the
	// endpoint directory; supply client.NewStubInvoker() to run without a
	// live agent deployment.
	Invoker core.AgentInvoker

	// StageTimeout bounds each individual agent call made by the default
	// HTTP invoker. Ignored when a custom Invoker is supplied.
	StageTimeout time.Duration

	// Retry enables bounded retry of transport-level failures (unreachable,
	// timeout). Nil disables retry; stage failures surface immediately.
	Retry *client.RetryConfig

	// TopN is the number of top-ranked chunks handed to generation.
	TopN int

	// ContextSlice is the number of retrieved chunks handed to validation.
	ContextSlice int

	// BatchConcurrency bounds how many batch documents ingest in parallel.
	BatchConcurrency int

	// Metrics records stage and workflow observations. Nil disables.
	Metrics *metrics.Recorder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Orchestrator is the high-level façade aggregating the workflows over one
// agent fleet. Safe for concurrent use.
type Orchestrator struct {
	directory config.Directory
	invoker   core.AgentInvoker
	query     *workflow.QueryWorkflow
	ingest    *workflow.IngestionWorkflow
	batch     *workflow.BatchOrchestrator
	logger    logging.Logger
}

// New creates an Orchestrator over the given agent endpoint directory with
// optional overrides.
func New(directory config.Directory, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		StageTimeout:     30 * time.Second,
		TopN:             stage.DefaultTopN,
		ContextSlice:     stage.DefaultContextSlice,
		BatchConcurrency: 4,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	invoker := opts.Invoker
	if invoker == nil {
		invoker = client.NewHTTPInvoker(directory, func(o *client.Options) {
			o.Timeout = opts.StageTimeout
			o.Logger = opts.Logger
		})
	}

	if opts.Retry != nil {
		invoker = client.NewRetryInvoker(invoker, *opts.Retry, opts.Logger)
	}

	exec := stage.NewExecutor(invoker, func(o *stage.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	shared := func(o *workflow.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.TopN = opts.TopN
		o.ContextSlice = opts.ContextSlice
		o.Concurrency = opts.BatchConcurrency
	}

	ingest := workflow.NewIngestionWorkflow(exec, shared)

	return &Orchestrator{
		directory: directory,
		invoker:   invoker,
		query:     workflow.NewQueryWorkflow(exec, shared),
		ingest:    ingest,
		batch:     workflow.NewBatchOrchestrator(ingest, shared),
		logger:    opts.Logger,
	}
}

// Directory returns the agent endpoint directory the orchestrator was built
// over.
func (o *Orchestrator) Directory() config.Directory { return o.directory }

// ExecuteQueryWorkflow answers a user query through the full five-stage
// pipeline. Metadata travels with the workflow context; a "userId" entry, if
// present, becomes the context's user id.
func (o *Orchestrator) ExecuteQueryWorkflow(ctx context.Context, query string, documentIDs []string, metadata map[string]any) core.WorkflowResult {
	wctx := core.NewWorkflowContext("", userFrom(metadata), metadata)
	return o.query.Execute(ctx, wctx, query, documentIDs)
}

// ExecuteIngestionWorkflow submits one document for ingestion and returns
// the agent's processing plan.
func (o *Orchestrator) ExecuteIngestionWorkflow(ctx context.Context, documentID, content string, metadata map[string]any) core.WorkflowResult {
	wctx := core.NewWorkflowContext("", userFrom(metadata), metadata)
	return o.ingest.Execute(ctx, wctx, documentID, content)
}

// ExecuteBatchIngestion ingests a batch of documents with bounded
// concurrency. The summary lists one result per input document, in input
// order; item failures never abort siblings.
func (o *Orchestrator) ExecuteBatchIngestion(ctx context.Context, docs []workflow.Document) core.BatchSummary {
	wctx := core.NewWorkflowContext("", core.BatchUser, nil)
	return o.batch.Execute(ctx, wctx, docs)
}

func userFrom(metadata map[string]any) string {
	if u, ok := metadata["userId"].(string); ok {
		return u
	}
	return ""
}
