// Package workflow sequences pipeline stages into the externally visible
// operations of the orchestrator.
//
// QueryWorkflow runs the fixed five-stage query pipeline
// (parse → retrieve → rank → generate → validate) with strict ordering and
// fail-fast short-circuiting. IngestionWorkflow hands one document to the
// ingestion agent. BatchOrchestrator fans IngestionWorkflow out over a
// document batch with bounded concurrency, isolating per-item failures and
// preserving input order in the summary.
//
// Each execution owns its WorkflowContext and PipelineState; nothing mutable
// is shared between concurrent executions.
package workflow
