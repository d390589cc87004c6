package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/internal/util"
	"github.com/hupe1980/ragmesh/logging"
)

// TraceHeader carries the workflow trace id to agents so their logs can be
// correlated with the orchestrator's.
const TraceHeader = "X-Trace-ID"

// UserHeader carries the invoking user id to agents.
const UserHeader = "X-User-ID"

// maxErrorBody bounds how much of a non-success response body is kept in the
// resulting error message.
const maxErrorBody = 512

// Options holds configuration overrides passed to NewHTTPInvoker.
type Options struct {
	// Timeout bounds each individual agent call.
	Timeout time.Duration
	// HTTPClient overrides the underlying transport.
	HTTPClient *http.Client
	// Logger receives per-call debug logging.
	Logger logging.Logger
}

// HTTPInvoker sends stage requests to remote agents over HTTP with a JSON
// request/response contract. It is stateless per call and safe for
// concurrent use.
type HTTPInvoker struct {
	directory config.Directory
	client    *http.Client
	timeout   time.Duration
	logger    logging.Logger
}

var _ core.AgentInvoker = (*HTTPInvoker)(nil)

// NewHTTPInvoker constructs an HTTPInvoker resolving agents through the given
// endpoint directory.
func NewHTTPInvoker(directory config.Directory, optFns ...func(o *Options)) *HTTPInvoker {
	opts := Options{
		Timeout:    30 * time.Second,
		HTTPClient: &http.Client{},
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &HTTPInvoker{
		directory: directory,
		client:    opts.HTTPClient,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}
}

// Invoke implements core.AgentInvoker. The returned error, when non-nil, is
// always a *core.WorkflowError carrying one of the classified kinds; the
// stage attribution is left to the caller.
func (i *HTTPInvoker) Invoke(ctx context.Context, wctx *core.WorkflowContext, req core.StageRequest) (map[string]any, error) {
	endpoint, ok := i.directory.Endpoint(req.Agent)
	if !ok {
		return nil, core.NewWorkflowError(core.ErrAgentUnreachable,
			fmt.Sprintf("no endpoint configured for agent %s", req.Agent), nil)
	}

	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, core.NewWorkflowError(core.ErrInvalidRequest,
			fmt.Sprintf("request body for agent %s is not serializable", req.Agent), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	url := strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(req.Action, "/")

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewWorkflowError(core.ErrAgentUnreachable,
			fmt.Sprintf("invalid endpoint for agent %s: %s", req.Agent, endpoint), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(TraceHeader, wctx.TraceID())
	httpReq.Header.Set(UserHeader, wctx.UserID())

	start := time.Now()

	resp, err := i.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, req.Agent, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, req.Agent, err)
	}

	i.logger.Debug("agent call completed agent=%s action=%s status=%d duration=%s trace_id=%s",
		req.Agent, req.Action, resp.StatusCode, time.Since(start), wctx.TraceID())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.NewWorkflowError(core.ErrAgentBadStatus,
			fmt.Sprintf("agent %s returned status %d: %s", req.Agent, resp.StatusCode, util.Truncate(string(respBody), maxErrorBody)), nil)
	}

	var payload map[string]any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, core.NewWorkflowError(core.ErrAgentMalformedResponse,
			fmt.Sprintf("agent %s returned an unparseable body", req.Agent), err)
	}

	return payload, nil
}

// classifyTransportError maps a transport failure to the error taxonomy:
// caller cancellation, deadline expiry, then everything else as unreachable.
func classifyTransportError(ctx context.Context, agent string, err error) *core.WorkflowError {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return core.NewWorkflowError(core.ErrCancelled,
			fmt.Sprintf("call to agent %s cancelled", agent), err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewWorkflowError(core.ErrAgentTimeout,
			fmt.Sprintf("agent %s did not respond in time", agent), err)
	}

	return core.NewWorkflowError(core.ErrAgentUnreachable,
		fmt.Sprintf("agent %s unreachable", agent), err)
}
