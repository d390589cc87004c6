// Package health aggregates liveness information about the agent fleet.
// Each agent exposes GET /health; the Checker probes every directory entry
// concurrently with a short per-probe timeout and reports a Summary. The
// orchestrator is ready only when every agent answers healthy.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/logging"
)

// Agent status values as reported in a Summary.
const (
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
	StatusUnreachable = "unreachable"
)

// AgentStatus is the probe outcome for a single agent.
type AgentStatus struct {
	Agent     string `json:"agent"`
	Endpoint  string `json:"endpoint"`
	Status    string `json:"status"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Summary is the aggregated fleet state. Agents are ordered by name so that
// repeated checks serialize identically.
type Summary struct {
	Ready  bool          `json:"ready"`
	Agents []AgentStatus `json:"agents"`
}

// Options holds configuration overrides passed to NewChecker.
type Options struct {
	// Timeout bounds each individual probe.
	Timeout time.Duration
	// HTTPClient performs the probes. Defaults to a plain client; the
	// per-probe timeout comes from the request context, not the client.
	HTTPClient *http.Client
	// Logger receives probe failures at debug level.
	Logger logging.Logger
}

// Checker probes agent /health endpoints. Safe for concurrent use.
type Checker struct {
	directory config.Directory
	timeout   time.Duration
	client    *http.Client
	logger    logging.Logger
}

// NewChecker constructs a Checker over an endpoint directory.
func NewChecker(directory config.Directory, optFns ...func(o *Options)) *Checker {
	opts := Options{
		Timeout:    2 * time.Second,
		HTTPClient: &http.Client{},
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Checker{
		directory: directory,
		timeout:   opts.Timeout,
		client:    opts.HTTPClient,
		logger:    opts.Logger,
	}
}

// Check probes every agent concurrently and returns the aggregated summary.
func (c *Checker) Check(ctx context.Context) Summary {
	agents := c.directory.Agents()
	statuses := make([]AgentStatus, len(agents))

	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = c.probe(ctx, agent)
		}()
	}
	wg.Wait()

	summary := Summary{Ready: true, Agents: statuses}
	for _, s := range statuses {
		if !s.Healthy {
			summary.Ready = false
			break
		}
	}

	return summary
}

// Ready reports whether every agent currently answers healthy.
func (c *Checker) Ready(ctx context.Context) bool {
	return c.Check(ctx).Ready
}

func (c *Checker) probe(ctx context.Context, agent string) AgentStatus {
	endpoint, _ := c.directory.Endpoint(agent)
	status := AgentStatus{Agent: agent, Endpoint: endpoint}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		status.Status = StatusUnreachable
		status.Error = err.Error()
		return status
	}

	resp, err := c.client.Do(req)
	status.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		c.logger.Debug("health probe failed agent=%s error=%s", agent, err)
		status.Status = StatusUnreachable
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status.Status = StatusUnhealthy
		status.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return status
	}

	status.Status = StatusHealthy
	status.Healthy = true
	return status
}
