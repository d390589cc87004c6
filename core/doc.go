// Package core provides the foundational domain types, interfaces and execution
// contexts used by RagMesh. It defines the core abstractions for:
//
//   - WorkflowContext (immutable per-invocation identity: trace, user, metadata)
//   - PipelineState (accumulated validated stage outputs of one execution)
//   - StageResult / WorkflowResult / BatchSummary (tagged outcomes)
//   - ErrorKind / WorkflowError (the failure taxonomy for agent calls)
//   - AgentInvoker (pluggable transport for remote agent calls)
//
// The package intentionally keeps implementation concerns (HTTP transport,
// stage wiring, workflow sequencing) out of scope, exposing small interfaces
// to enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
