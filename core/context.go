package core

import (
	"fmt"

	"github.com/hupe1980/ragmesh/internal/util"
)

// User id sentinels applied when the caller does not identify itself.
const (
	// AnonymousUser is the user id recorded for unauthenticated invocations.
	AnonymousUser = "anonymous"
	// BatchUser is the user id recorded for batch ingestion items.
	BatchUser = "batch-ingest"
)

// WorkflowContext carries the immutable identity and metadata of one workflow
// invocation. It is created once per top-level request (or once per batch
// item, derived from the parent trace id) and flows by reference through
// every stage call for the lifetime of that single execution. It is never
// persisted beyond the request.
//
// Construction always succeeds: a missing trace id is synthesized and a
// missing user id defaults to AnonymousUser. All accessors are read-only;
// the metadata map is copied on the way in and on the way out so callers
// cannot mutate shared state.
type WorkflowContext struct {
	traceID  string
	userID   string
	metadata map[string]any
}

// NewWorkflowContext constructs a WorkflowContext. Pass an empty traceID to
// have one generated, and an empty userID to fall back to AnonymousUser.
func NewWorkflowContext(traceID, userID string, metadata map[string]any) *WorkflowContext {
	if traceID == "" {
		traceID = util.NewID()
	}
	if userID == "" {
		userID = AnonymousUser
	}
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return &WorkflowContext{traceID: traceID, userID: userID, metadata: md}
}

// TraceID returns the unique identifier correlating all stage calls belonging
// to this invocation across logs and services.
func (c *WorkflowContext) TraceID() string { return c.traceID }

// UserID returns the user identity attached to the invocation.
func (c *WorkflowContext) UserID() string { return c.userID }

// Metadata returns a copy of the caller supplied metadata map.
func (c *WorkflowContext) Metadata() map[string]any {
	md := make(map[string]any, len(c.metadata))
	for k, v := range c.metadata {
		md[k] = v
	}
	return md
}

// MetadataValue looks up a single metadata entry.
func (c *WorkflowContext) MetadataValue(key string) (any, bool) {
	v, ok := c.metadata[key]
	return v, ok
}

// Child derives a context for a nested execution path (one batch item). The
// child trace id is the parent trace id suffixed with the given label so
// batch-level and item-level logs correlate; user id and metadata carry over.
func (c *WorkflowContext) Child(suffix string) *WorkflowContext {
	return NewWorkflowContext(fmt.Sprintf("%s-%s", c.traceID, suffix), c.userID, c.metadata)
}
