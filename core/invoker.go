package core

import "context"

// StageRequest describes one remote agent call: the agent to address (by name
// in the endpoint directory), the action path POSTed to, and the
// JSON-serializable request body.
type StageRequest struct {
	Agent  string
	Action string
	Body   map[string]any
}

// AgentInvoker sends a StageRequest to a remote agent and returns the parsed
// response object or a classified *WorkflowError. Implementations must be
// stateless per call, attach the workflow trace id for correlation, and never
// return an unclassified failure.
//
// The production implementation lives in the client package; a stub suitable
// for environments without live agents is provided alongside it.
type AgentInvoker interface {
	Invoke(ctx context.Context, wctx *WorkflowContext, req StageRequest) (map[string]any, error)
}
