// Package client implements the transports behind core.AgentInvoker.
//
// HTTPInvoker is the production implementation: it POSTs a JSON body to one
// agent endpoint, forwards the workflow trace id for log correlation, applies
// a per-call timeout and translates every failure into exactly one of the
// classified error kinds (unreachable, timeout, bad status, malformed
// response). It performs no retries itself.
//
// RetryInvoker is a decorator adding a bounded retry policy for transport
// failures only, and StubInvoker is a canned-response implementation for
// environments without live agents (local development, tests).
package client
