// Package workflow tracks asynchronous tailoring runs: registration,
// progress reporting, cancellation, timeouts and retention of finished
// records. The registry is in-memory and scoped to the Manager instance.
package workflow

import (
	"context"
	"sync"
	"time"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
	"tailorflow/internal/observability"
	"tailorflow/internal/types"

	"github.com/google/uuid"
)

// Tailorer produces a tailoring result. It never fails: the fallback
// chain ends in the rule-based engine.
type Tailorer interface {
	Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) types.TailoringResult
}

// progressCheckpoints are reported in order before the tailoring call;
// completion sets 100. Progress is monotonic per workflow.
var progressCheckpoints = []int{20, 40, 60, 80, 95}

const (
	errWorkflowTimeout   = "Workflow timeout"
	errWorkflowCancelled = "Workflow cancelled"
	errCancelledByUser   = "Workflow cancelled by user"
)

// Stats summarizes the registry by workflow status
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Manager owns the workflow registry. All methods are safe for
// concurrent use. Construct with NewManager and call Start before
// accepting work; Shutdown stops the sweep and cancels in-flight runs.
type Manager struct {
	tailorer Tailorer
	cfg      config.WorkflowConfig
	logger   *errors.Logger
	metrics  *observability.Metrics

	mu        sync.RWMutex
	workflows map[string]*types.WorkflowRecord
	cancels   map[string]context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewManager creates a workflow manager around the given tailorer
func NewManager(tailorer Tailorer, cfg config.WorkflowConfig, logger *errors.Logger) *Manager {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Manager{
		tailorer:   tailorer,
		cfg:        cfg,
		logger:     logger,
		workflows:  make(map[string]*types.WorkflowRecord),
		cancels:    make(map[string]context.CancelFunc),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// SetMetrics attaches instrument recording. Safe to leave unset.
func (m *Manager) SetMetrics(metrics *observability.Metrics) {
	m.metrics = metrics
}

// Start launches the retention sweep. It returns immediately.
func (m *Manager) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.baseCtx.Done():
				return
			case <-ticker.C:
				removed := m.sweep(time.Now())
				if removed > 0 {
					m.logger.Info("Expired workflows removed", "count", removed)
				}
			}
		}
	}()
}

// Shutdown cancels all in-flight workflows and the retention sweep,
// then waits for the worker goroutines to drain or ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.baseCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartWorkflow validates the request, registers a pending record and
// launches the tailoring run. The returned id is immediately queryable.
func (m *Manager) StartWorkflow(request types.WorkflowRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidInput,
			"Workflow request failed validation", err)
	}

	id := uuid.NewString()
	now := time.Now()

	wfCtx, cancel := context.WithTimeout(m.baseCtx, m.cfg.Timeout)

	m.mu.Lock()
	m.workflows[id] = &types.WorkflowRecord{
		ID:        id,
		Status:    types.WorkflowPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.cancels[id] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.execute(wfCtx, cancel, id, request)

	m.metrics.RecordWorkflowStarted(m.baseCtx)
	m.logger.Info("Workflow started", "workflow_id", id, "user_id", request.UserID)
	return id, nil
}

// GetWorkflowStatus returns a copy of the workflow record
func (m *Manager) GetWorkflowStatus(id string) (*types.WorkflowRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.workflows[id]
	if !ok {
		return nil, false
	}
	copied := *record
	if record.Result != nil {
		result := *record.Result
		copied.Result = &result
	}
	return &copied, true
}

// CancelWorkflow fails a non-terminal workflow on the caller's behalf.
// Terminal and unknown workflows report false.
func (m *Manager) CancelWorkflow(id string) bool {
	m.mu.Lock()
	record, ok := m.workflows[id]
	if !ok || record.Status.Terminal() {
		m.mu.Unlock()
		return false
	}

	record.Status = types.WorkflowFailed
	record.Error = errCancelledByUser
	record.UpdatedAt = time.Now()
	cancel := m.cancels[id]
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.metrics.RecordWorkflowOutcome(context.Background(), "cancelled")
	m.logger.Info("Workflow cancelled", "workflow_id", id)
	return true
}

// Stats returns registry counters by status
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Total: len(m.workflows)}
	for _, record := range m.workflows {
		switch record.Status {
		case types.WorkflowPending:
			stats.Pending++
		case types.WorkflowRunning:
			stats.Running++
		case types.WorkflowCompleted:
			stats.Completed++
		case types.WorkflowFailed:
			stats.Failed++
		}
	}
	return stats
}

// execute drives one workflow through its checkpoints and the tailorer
func (m *Manager) execute(ctx context.Context, cancel context.CancelFunc, id string, request types.WorkflowRequest) {
	defer m.wg.Done()
	defer cancel()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, id)
		m.mu.Unlock()
	}()

	// Force-fail the record the moment the context dies, whether from
	// timeout, user cancellation or shutdown. A completion that arrives
	// later is ignored because the record is already terminal.
	stopWatch := context.AfterFunc(ctx, func() {
		reason := errWorkflowCancelled
		if ctx.Err() == context.DeadlineExceeded {
			reason = errWorkflowTimeout
		}
		m.failIfRunning(id, reason)
	})
	defer stopWatch()

	m.transition(id, types.WorkflowRunning, 10)

	for _, checkpoint := range progressCheckpoints {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.StepDelay):
		}
		m.setProgress(id, checkpoint)
	}

	result := m.tailorer.Tailor(ctx, request.OriginalResume, request.JobDescription, request.Options)
	if ctx.Err() != nil {
		return
	}

	stopWatch()
	m.complete(id, result)
}

// transition moves a non-terminal workflow to the given status
func (m *Manager) transition(id string, status types.WorkflowStatus, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.workflows[id]
	if !ok || record.Status.Terminal() {
		return
	}
	record.Status = status
	if progress > record.Progress {
		record.Progress = progress
	}
	record.UpdatedAt = time.Now()
}

// setProgress raises progress on a non-terminal workflow. Progress
// never decreases.
func (m *Manager) setProgress(id string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.workflows[id]
	if !ok || record.Status.Terminal() || progress <= record.Progress {
		return
	}
	record.Progress = progress
	record.UpdatedAt = time.Now()
}

// complete finishes a workflow with its result unless it is already
// terminal (timed out or cancelled)
func (m *Manager) complete(id string, result types.TailoringResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.workflows[id]
	if !ok || record.Status.Terminal() {
		return
	}
	record.Status = types.WorkflowCompleted
	record.Progress = 100
	record.Result = &result
	record.Error = ""
	record.UpdatedAt = time.Now()
	m.metrics.RecordWorkflowOutcome(context.Background(), "completed")
}

// failIfRunning marks a non-terminal workflow failed with the reason
func (m *Manager) failIfRunning(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.workflows[id]
	if !ok || record.Status.Terminal() {
		return
	}
	record.Status = types.WorkflowFailed
	record.Error = reason
	record.UpdatedAt = time.Now()
	m.metrics.RecordWorkflowOutcome(context.Background(), "failed")
	m.logger.Warn("Workflow failed", "workflow_id", id, "reason", reason)
}

// sweep removes records created before the retention cutoff and
// returns how many were dropped
func (m *Manager) sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.Retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, record := range m.workflows {
		if record.CreatedAt.Before(cutoff) {
			delete(m.workflows, id)
			removed++
		}
	}
	return removed
}
