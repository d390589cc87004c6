// Package metrics exposes Prometheus instrumentation for the orchestration
// engine: per-stage call counts, failures by error kind and latency, plus
// workflow-level run counts and durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder bundles the collectors used by stage executors and workflows.
// A nil *Recorder is valid and records nothing, so instrumentation can stay
// optional.
type Recorder struct {
	stageCalls       *prometheus.CounterVec
	stageFailures    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	workflowRuns     *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
}

// NewRecorder registers the collectors with the given registerer. Pass
// prometheus.DefaultRegisterer for process-wide metrics or a fresh registry
// in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		stageCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmesh",
			Name:      "stage_calls_total",
			Help:      "Agent stage calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmesh",
			Name:      "stage_failures_total",
			Help:      "Failed agent stage calls by stage and error kind.",
		}, []string{"stage", "kind"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragmesh",
			Name:      "stage_duration_seconds",
			Help:      "Agent stage call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		workflowRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmesh",
			Name:      "workflow_runs_total",
			Help:      "Workflow executions by workflow and outcome.",
		}, []string{"workflow", "outcome"}),
		workflowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragmesh",
			Name:      "workflow_duration_seconds",
			Help:      "End-to-end workflow latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"workflow"}),
	}
}

// ObserveStage records one stage call. kind is the error kind for failures
// and ignored for successes.
func (r *Recorder) ObserveStage(stage, kind string, dur time.Duration, success bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "failed"
		r.stageFailures.WithLabelValues(stage, kind).Inc()
	}
	r.stageCalls.WithLabelValues(stage, outcome).Inc()
	r.stageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

// ObserveWorkflow records one workflow execution.
func (r *Recorder) ObserveWorkflow(workflow string, dur time.Duration, success bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	r.workflowRuns.WithLabelValues(workflow, outcome).Inc()
	r.workflowDuration.WithLabelValues(workflow).Observe(dur.Seconds())
}
