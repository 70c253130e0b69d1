package workflow

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
	"tailorflow/internal/types"
)

// stubTailorer blocks for delay (or until ctx dies) and then returns
// a fixed result
type stubTailorer struct {
	delay  time.Duration
	result types.TailoringResult
}

func (s *stubTailorer) Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) types.TailoringResult {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(s.delay):
		}
	}
	return s.result
}

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func fastConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		Timeout:       2 * time.Second,
		Retention:     24 * time.Hour,
		SweepInterval: time.Hour,
		StepDelay:     time.Millisecond,
	}
}

func testRequest() types.WorkflowRequest {
	return types.WorkflowRequest{
		OriginalResume: types.ResumeDocument{
			PersonalInfo: types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
			Summary:      "Engineer.",
			Skills:       []string{"Go"},
		},
		JobDescription: types.JobDescription{
			Title:       "Backend Engineer",
			Description: "Go services.",
		},
		Options: types.DefaultTailoringOptions(types.TemplateModern),
	}
}

func successResult() types.TailoringResult {
	return types.TailoringResult{
		TailoredResume: types.ResumeDocument{
			PersonalInfo: types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		},
		MatchScore: 75,
	}
}

// waitForTerminal polls until the workflow reaches a terminal status
func waitForTerminal(t *testing.T, m *Manager, id string) *types.WorkflowRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := m.GetWorkflowStatus(id)
		if !ok {
			t.Fatalf("workflow %s disappeared", id)
		}
		if record.Status.Terminal() {
			return record
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("workflow %s never reached a terminal status", id)
	return nil
}

func TestStartWorkflowRejectsInvalidRequest(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	request := testRequest()
	request.OriginalResume.PersonalInfo.Email = "not-an-email"

	_, err := m.StartWorkflow(request)
	if err == nil {
		t.Fatal("StartWorkflow() expected validation error")
	}
}

func TestStartWorkflowImmediateStatus(t *testing.T) {
	m := NewManager(&stubTailorer{delay: 100 * time.Millisecond, result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}
	if id == "" {
		t.Fatal("StartWorkflow() returned empty id")
	}

	record, ok := m.GetWorkflowStatus(id)
	if !ok {
		t.Fatal("workflow must be queryable immediately after start")
	}
	if record.Status != types.WorkflowPending && record.Status != types.WorkflowRunning {
		t.Errorf("status = %s, want pending or running", record.Status)
	}
	if record.Progress >= 100 {
		t.Errorf("progress = %d before completion", record.Progress)
	}
}

func TestWorkflowCompletes(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	record := waitForTerminal(t, m, id)
	if record.Status != types.WorkflowCompleted {
		t.Fatalf("status = %s (error=%q), want completed", record.Status, record.Error)
	}
	if record.Progress != 100 {
		t.Errorf("progress = %d, want 100", record.Progress)
	}
	if record.Result == nil || record.Result.MatchScore != 75 {
		t.Errorf("result = %+v, want matchScore 75", record.Result)
	}
	if record.Error != "" {
		t.Errorf("error = %q, want empty", record.Error)
	}
	if record.UpdatedAt.Before(record.CreatedAt) {
		t.Error("updatedAt precedes createdAt")
	}
}

func TestWorkflowProgressIsMonotonic(t *testing.T) {
	m := NewManager(&stubTailorer{delay: 20 * time.Millisecond, result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	last := -1
	for {
		record, ok := m.GetWorkflowStatus(id)
		if !ok {
			t.Fatal("workflow disappeared")
		}
		if record.Progress < last {
			t.Fatalf("progress went backwards: %d -> %d", last, record.Progress)
		}
		last = record.Progress
		if record.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWorkflowTimeoutForceFails(t *testing.T) {
	cfg := fastConfig()
	cfg.Timeout = 50 * time.Millisecond

	tailorer := &stubTailorer{delay: 300 * time.Millisecond, result: successResult()}
	m := NewManager(tailorer, cfg, testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	record := waitForTerminal(t, m, id)
	if record.Status != types.WorkflowFailed {
		t.Fatalf("status = %s, want failed", record.Status)
	}
	if record.Error != "Workflow timeout" {
		t.Errorf("error = %q, want Workflow timeout", record.Error)
	}

	// The late completion must not resurrect the record
	time.Sleep(350 * time.Millisecond)
	record, _ = m.GetWorkflowStatus(id)
	if record.Status != types.WorkflowFailed || record.Result != nil {
		t.Errorf("late completion overrode the timeout: %+v", record)
	}
}

func TestCancelWorkflow(t *testing.T) {
	m := NewManager(&stubTailorer{delay: time.Second, result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	if !m.CancelWorkflow(id) {
		t.Fatal("CancelWorkflow() = false for a running workflow")
	}

	record, _ := m.GetWorkflowStatus(id)
	if record.Status != types.WorkflowFailed {
		t.Errorf("status = %s, want failed", record.Status)
	}
	if record.Error != "Workflow cancelled by user" {
		t.Errorf("error = %q", record.Error)
	}

	// Terminal and unknown workflows are not cancellable
	if m.CancelWorkflow(id) {
		t.Error("CancelWorkflow() = true for an already-failed workflow")
	}
	if m.CancelWorkflow("no-such-id") {
		t.Error("CancelWorkflow() = true for unknown id")
	}
}

func TestCancelCompletedWorkflowReturnsFalse(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, _ := m.StartWorkflow(testRequest())
	waitForTerminal(t, m, id)

	if m.CancelWorkflow(id) {
		t.Error("CancelWorkflow() = true for a completed workflow")
	}
}

func TestGetWorkflowStatusReturnsCopy(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, _ := m.StartWorkflow(testRequest())
	record := waitForTerminal(t, m, id)

	record.Status = types.WorkflowPending
	record.Result.MatchScore = 1

	fresh, _ := m.GetWorkflowStatus(id)
	if fresh.Status != types.WorkflowCompleted || fresh.Result.MatchScore != 75 {
		t.Error("mutating a returned record leaked into the registry")
	}
}

func TestSweepRemovesExpiredWorkflows(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	id, _ := m.StartWorkflow(testRequest())
	waitForTerminal(t, m, id)

	// Not yet expired
	if removed := m.sweep(time.Now()); removed != 0 {
		t.Errorf("sweep removed %d fresh workflows", removed)
	}

	if removed := m.sweep(time.Now().Add(25 * time.Hour)); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if _, ok := m.GetWorkflowStatus(id); ok {
		t.Error("expired workflow still queryable")
	}
}

func TestStats(t *testing.T) {
	m := NewManager(&stubTailorer{result: successResult()}, fastConfig(), testLogger())
	defer func() { _ = m.Shutdown(context.Background()) }()

	ids := make([]string, 3)
	for i := range ids {
		id, err := m.StartWorkflow(testRequest())
		if err != nil {
			t.Fatalf("StartWorkflow() error = %v", err)
		}
		ids[i] = id
	}
	for _, id := range ids {
		waitForTerminal(t, m, id)
	}

	stats := m.Stats()
	if stats.Total != 3 || stats.Completed != 3 {
		t.Errorf("stats = %+v, want 3 total / 3 completed", stats)
	}
}

func TestShutdownDrainsWorkflows(t *testing.T) {
	m := NewManager(&stubTailorer{delay: time.Second, result: successResult()}, fastConfig(), testLogger())
	m.Start()

	id, err := m.StartWorkflow(testRequest())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	record, ok := m.GetWorkflowStatus(id)
	if !ok {
		t.Fatal("workflow record missing after shutdown")
	}
	if record.Status != types.WorkflowFailed {
		t.Errorf("status = %s, want failed after shutdown", record.Status)
	}
}

func TestProgressMessage(t *testing.T) {
	tests := []struct {
		progress int
		want     string
	}{
		{0, "Analyzing job requirements..."},
		{19, "Analyzing job requirements..."},
		{20, "Matching your experience..."},
		{40, "Optimizing keywords..."},
		{60, "Restructuring content..."},
		{95, "Final optimization..."},
		{100, "Complete!"},
	}

	for _, tt := range tests {
		if got := ProgressMessage(tt.progress); got != tt.want {
			t.Errorf("ProgressMessage(%d) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}
