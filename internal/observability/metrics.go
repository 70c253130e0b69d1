package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the custom instrument set. The zero value is safe to
// record on and drops everything.
type Metrics struct {
	// Workflow lifecycle
	WorkflowsStarted   metric.Int64Counter
	WorkflowsCompleted metric.Int64Counter
	WorkflowsFailed    metric.Int64Counter
	WorkflowsCancelled metric.Int64Counter

	// Backend chain
	BackendAttempts  metric.Int64Counter
	BackendFallbacks metric.Int64Counter

	// Tailoring outcomes
	TailoringDuration metric.Float64Histogram
	MatchScores       metric.Int64Histogram

	// Server
	RateLimitHits metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.WorkflowsStarted, err = meter.Int64Counter(
		"tailorflow_workflows_started_total",
		metric.WithDescription("Total number of workflows started"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workflows started metric: %w", err)
	}

	if m.WorkflowsCompleted, err = meter.Int64Counter(
		"tailorflow_workflows_completed_total",
		metric.WithDescription("Total number of workflows completed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workflows completed metric: %w", err)
	}

	if m.WorkflowsFailed, err = meter.Int64Counter(
		"tailorflow_workflows_failed_total",
		metric.WithDescription("Total number of workflows failed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workflows failed metric: %w", err)
	}

	if m.WorkflowsCancelled, err = meter.Int64Counter(
		"tailorflow_workflows_cancelled_total",
		metric.WithDescription("Total number of workflows cancelled by users"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workflows cancelled metric: %w", err)
	}

	if m.BackendAttempts, err = meter.Int64Counter(
		"tailorflow_backend_attempts_total",
		metric.WithDescription("Tailoring attempts per backend"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backend attempts metric: %w", err)
	}

	if m.BackendFallbacks, err = meter.Int64Counter(
		"tailorflow_backend_fallbacks_total",
		metric.WithDescription("Fallbacks from a failed backend to the next chain member"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backend fallbacks metric: %w", err)
	}

	if m.TailoringDuration, err = meter.Float64Histogram(
		"tailorflow_tailoring_duration_seconds",
		metric.WithDescription("End-to-end tailoring duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tailoring duration metric: %w", err)
	}

	if m.MatchScores, err = meter.Int64Histogram(
		"tailorflow_match_score",
		metric.WithDescription("Distribution of produced match scores"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match score metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"tailorflow_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordWorkflowStarted counts a workflow admission
func (m *Metrics) RecordWorkflowStarted(ctx context.Context) {
	if m == nil {
		return
	}
	if m.WorkflowsStarted != nil {
		m.WorkflowsStarted.Add(ctx, 1)
	}
}

// RecordWorkflowOutcome counts a workflow reaching a terminal state
func (m *Metrics) RecordWorkflowOutcome(ctx context.Context, status string) {
	if m == nil {
		return
	}
	switch status {
	case "completed":
		if m.WorkflowsCompleted != nil {
			m.WorkflowsCompleted.Add(ctx, 1)
		}
	case "failed":
		if m.WorkflowsFailed != nil {
			m.WorkflowsFailed.Add(ctx, 1)
		}
	case "cancelled":
		if m.WorkflowsCancelled != nil {
			m.WorkflowsCancelled.Add(ctx, 1)
		}
	}
}

// RecordBackendAttempt counts one provider attempt
func (m *Metrics) RecordBackendAttempt(ctx context.Context, backend string, success bool) {
	if m == nil {
		return
	}
	if m.BackendAttempts != nil {
		m.BackendAttempts.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.Bool("success", success),
		))
	}
	if !success && m.BackendFallbacks != nil {
		m.BackendFallbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", backend),
		))
	}
}

// RecordTailoring records the duration, winning source and score of a
// finished tailoring run
func (m *Metrics) RecordTailoring(ctx context.Context, duration time.Duration, source string, matchScore int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	if m.TailoringDuration != nil {
		m.TailoringDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if m.MatchScores != nil {
		m.MatchScores.Record(ctx, int64(matchScore), attrs)
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context) {
	if m == nil {
		return
	}
	if m.RateLimitHits != nil {
		m.RateLimitHits.Add(ctx, 1)
	}
}
