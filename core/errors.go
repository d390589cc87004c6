package core

import "fmt"

// ErrorKind classifies why a workflow invocation failed. Values are stable
// machine-readable codes surfaced verbatim to callers.
type ErrorKind string

const (
	// ErrInvalidRequest marks input rejected before any stage ran. No agent
	// is ever contacted for an invalid request.
	ErrInvalidRequest ErrorKind = "INVALID_REQUEST"
	// ErrAgentUnreachable marks a connection refusal or DNS failure.
	ErrAgentUnreachable ErrorKind = "AGENT_UNREACHABLE"
	// ErrAgentTimeout marks a call that produced no response in time.
	ErrAgentTimeout ErrorKind = "AGENT_TIMEOUT"
	// ErrAgentBadStatus marks a non-success HTTP status from an agent.
	ErrAgentBadStatus ErrorKind = "AGENT_BAD_STATUS"
	// ErrAgentMalformedResponse marks a success status whose body failed to
	// parse into the expected shape.
	ErrAgentMalformedResponse ErrorKind = "AGENT_MALFORMED_RESPONSE"
	// ErrCancelled marks an invocation stopped by caller cancellation.
	ErrCancelled ErrorKind = "CANCELLED"
)

// WorkflowError is the structured failure of one stage call (or of request
// validation). It is terminal for the owning workflow invocation and is never
// silently downgraded to partial success.
type WorkflowError struct {
	Stage   Stage     // stage that failed; empty for pre-stage validation errors
	Kind    ErrorKind // stable machine-readable classification
	Message string    // human-readable description
	Err     error     // underlying cause, if any
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *WorkflowError) Unwrap() error { return e.Err }

// Retryable reports whether a bounded retry policy may re-attempt the call.
// Only transport-level failures qualify; validation and malformed-response
// failures never do.
func (e *WorkflowError) Retryable() bool {
	return e.Kind == ErrAgentUnreachable || e.Kind == ErrAgentTimeout
}

// WithStage returns a copy of the error stamped with the stage it occurred
// in. The transport layer does not know stage names, so the stage executor
// applies this before propagating.
func (e *WorkflowError) WithStage(stage Stage) *WorkflowError {
	c := *e
	c.Stage = stage
	return &c
}

// NewWorkflowError constructs a WorkflowError without a stage attribution.
func NewWorkflowError(kind ErrorKind, message string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message, Err: err}
}

// InvalidRequestError constructs the pre-stage validation failure used when
// required input is missing.
func InvalidRequestError(message string) *WorkflowError {
	return &WorkflowError{Kind: ErrInvalidRequest, Message: message}
}
