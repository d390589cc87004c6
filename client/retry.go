package client

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
)

// RetryConfig holds the bounded retry policy applied uniformly to agent
// calls. Only transport failures (unreachable, timeout) are re-attempted;
// bad-status and malformed-response failures are terminal immediately.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       200 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// Backoff returns the pause before the attempt following the given one.
// Exponential: base * multiplier^(attempt-1).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}
	return time.Duration(float64(c.BackoffBase) * multiplier)
}

// RetryInvoker decorates another AgentInvoker with the bounded retry policy.
type RetryInvoker struct {
	next   core.AgentInvoker
	cfg    RetryConfig
	logger logging.Logger
}

var _ core.AgentInvoker = (*RetryInvoker)(nil)

// NewRetryInvoker wraps next with the given policy. A nil-ish config (zero
// MaxAttempts) falls back to DefaultRetryConfig.
func NewRetryInvoker(next core.AgentInvoker, cfg RetryConfig, logger logging.Logger) *RetryInvoker {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RetryInvoker{next: next, cfg: cfg, logger: logger}
}

// Invoke implements core.AgentInvoker.
func (r *RetryInvoker) Invoke(ctx context.Context, wctx *core.WorkflowContext, req core.StageRequest) (map[string]any, error) {
	for attempt := 1; ; attempt++ {
		payload, err := r.next.Invoke(ctx, wctx, req)
		if err == nil {
			return payload, nil
		}

		var werr *core.WorkflowError
		if !errors.As(err, &werr) || !werr.Retryable() || attempt >= r.cfg.MaxAttempts {
			return nil, err
		}

		backoff := r.cfg.Backoff(attempt)
		r.logger.Warn("retrying agent call agent=%s action=%s attempt=%d backoff=%s trace_id=%s reason=%s",
			req.Agent, req.Action, attempt, backoff, wctx.TraceID(), werr.Kind)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, core.NewWorkflowError(core.ErrCancelled, "invocation cancelled during retry backoff", ctx.Err())
		case <-timer.C:
		}
	}
}
