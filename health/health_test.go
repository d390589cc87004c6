package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/config"
)

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChecker_AllHealthy(t *testing.T) {
	a := healthServer(t, http.StatusOK)
	b := healthServer(t, http.StatusOK)

	checker := NewChecker(config.Directory{"alpha": a.URL, "beta": b.URL})
	summary := checker.Check(context.Background())

	assert.True(t, summary.Ready)
	require.Len(t, summary.Agents, 2)

	// Agents are reported in name order regardless of probe completion order.
	assert.Equal(t, "alpha", summary.Agents[0].Agent)
	assert.Equal(t, "beta", summary.Agents[1].Agent)

	for _, s := range summary.Agents {
		assert.True(t, s.Healthy)
		assert.Equal(t, StatusHealthy, s.Status)
		assert.Empty(t, s.Error)
	}
}

func TestChecker_UnreachableAgent(t *testing.T) {
	up := healthServer(t, http.StatusOK)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	checker := NewChecker(config.Directory{"alpha": up.URL, "beta": down.URL})
	summary := checker.Check(context.Background())

	assert.False(t, summary.Ready)
	assert.Equal(t, StatusHealthy, summary.Agents[0].Status)
	assert.Equal(t, StatusUnreachable, summary.Agents[1].Status)
	assert.NotEmpty(t, summary.Agents[1].Error)
}

func TestChecker_UnhealthyStatusCode(t *testing.T) {
	sick := healthServer(t, http.StatusServiceUnavailable)

	checker := NewChecker(config.Directory{"alpha": sick.URL})
	summary := checker.Check(context.Background())

	assert.False(t, summary.Ready)
	assert.Equal(t, StatusUnhealthy, summary.Agents[0].Status)
	assert.Equal(t, "status 503", summary.Agents[0].Error)
}

func TestChecker_ProbeTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	checker := NewChecker(config.Directory{"alpha": slow.URL}, func(o *Options) {
		o.Timeout = 50 * time.Millisecond
	})

	summary := checker.Check(context.Background())

	assert.False(t, summary.Ready)
	assert.Equal(t, StatusUnreachable, summary.Agents[0].Status)
}

func TestChecker_Ready(t *testing.T) {
	up := healthServer(t, http.StatusOK)

	checker := NewChecker(config.Directory{"alpha": up.URL})
	assert.True(t, checker.Ready(context.Background()))
}
