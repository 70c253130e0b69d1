package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/config"
	"tailorflow/internal/engine"
	"tailorflow/internal/errors"
	"tailorflow/internal/orchestrator"
	"tailorflow/internal/types"
	"tailorflow/internal/workflow"
)

func testConfig() *config.Config {
	return &config.Config{
		Workflow: config.WorkflowConfig{
			Timeout:       5 * time.Second,
			Retention:     24 * time.Hour,
			SweepInterval: time.Hour,
			StepDelay:     time.Millisecond,
		},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: "0",
			RateLimit: config.RateLimitConfig{
				Enabled:        true,
				RequestsPerMin: 600,
				BurstCapacity:  100,
			},
		},
		App: config.AppConfig{
			MaxRequestSize: 1 << 20,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)
	an := analyzer.New()
	eng := engine.New(an)
	orch := orchestrator.New(nil, eng, an, logger)
	workflows := workflow.NewManager(orch, cfg.Workflow, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = workflows.Shutdown(ctx)
	})

	srv := NewServer(cfg, "test", orch, workflows, logger)
	t.Cleanup(func() {
		if srv.RateLimiter != nil {
			srv.RateLimiter.Close()
		}
	})
	return srv
}

func tailorRequestBody(t *testing.T) []byte {
	t.Helper()
	req := types.WorkflowRequest{
		OriginalResume: types.ResumeDocument{
			PersonalInfo: types.PersonalInfo{Name: "Dana Smith", Email: "dana@example.com"},
			Summary:      "Engineer with Go and Python experience",
			Skills:       []string{"go", "python"},
		},
		JobDescription: types.JobDescription{
			Title:       "Backend Engineer",
			Description: "We need Go and Kubernetes experience",
		},
		Options: types.DefaultTailoringOptions(types.TemplateModern),
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func postJSON(handler http.Handler, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", response["status"])
	}
	if response["service"] != "tailorflow" {
		t.Errorf("expected service tailorflow, got %v", response["service"])
	}
}

func TestTailorEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	recorder := postJSON(mux, "/tailor", tailorRequestBody(t), nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var result types.TailoringResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.TailoredResume.PersonalInfo.Name != "Dana Smith" {
		t.Errorf("unexpected tailored resume: %+v", result.TailoredResume.PersonalInfo)
	}
	if result.MatchScore < 0 || result.MatchScore > 100 {
		t.Errorf("match score out of range: %d", result.MatchScore)
	}
}

func TestTailorEndpointRejectsInvalidBody(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	recorder := postJSON(mux, "/tailor", []byte("not json"), nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestTailorEndpointRejectsInvalidResume(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	body, _ := json.Marshal(types.WorkflowRequest{
		OriginalResume: types.ResumeDocument{
			PersonalInfo: types.PersonalInfo{Name: "Dana Smith", Email: "not-an-email"},
		},
		JobDescription: types.JobDescription{Title: "Engineer", Description: "Build things"},
	})
	recorder := postJSON(mux, "/tailor", body, nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAuthRequiredWhenKeysConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123456"}
	srv := newTestServer(t, cfg)
	mux := srv.setupRoutes()

	recorder := postJSON(mux, "/tailor", tailorRequestBody(t), nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", recorder.Code)
	}

	recorder = postJSON(mux, "/tailor", tailorRequestBody(t), map[string]string{"X-API-Key": "wrong"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", recorder.Code)
	}

	recorder = postJSON(mux, "/tailor", tailorRequestBody(t), map[string]string{"X-API-Key": "secret-key-123456"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid key, got %d", recorder.Code)
	}

	recorder = postJSON(mux, "/tailor", tailorRequestBody(t), map[string]string{"Authorization": "Bearer secret-key-123456"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", recorder.Code)
	}
}

func TestWorkflowLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	recorder := postJSON(mux, "/workflows", tailorRequestBody(t), nil)
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var started WorkflowStartedResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &started); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if started.ID == "" || started.Status != "pending" {
		t.Fatalf("unexpected start response: %+v", started)
	}

	// Poll until the workflow finishes
	deadline := time.Now().Add(3 * time.Second)
	var status WorkflowStatusResponse
	for {
		req := httptest.NewRequest(http.MethodGet, "/workflows/"+started.ID, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if status.Status == "completed" || status.Status == "failed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("workflow did not finish: %+v", status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if status.Status != "completed" {
		t.Fatalf("expected completed workflow, got %s (%s)", status.Status, status.Error)
	}
	if status.Progress != 100 || status.ProgressMessage != "Complete!" {
		t.Errorf("unexpected progress: %d %q", status.Progress, status.ProgressMessage)
	}
	if status.Result == nil {
		t.Fatal("expected result on completed workflow")
	}

	// Cancelling a completed workflow conflicts
	req := httptest.NewRequest(http.MethodDelete, "/workflows/"+started.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 cancelling finished workflow, got %d", rec.Code)
	}
}

func TestWorkflowStatusNotFound(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/workflows/does-not-exist", nil)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestWorkflowCancelNotFound(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodDelete, "/workflows/does-not-exist", nil)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
	}
	srv := newTestServer(t, cfg)
	mux := srv.setupRoutes()

	first := postJSON(mux, "/tailor", tailorRequestBody(t), nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := postJSON(mux, "/tailor", tailorRequestBody(t), nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.App.MaxRequestSize = 64
	srv := newTestServer(t, cfg)
	mux := srv.setupRoutes()

	recorder := postJSON(mux, "/tailor", tailorRequestBody(t), nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "too large") {
		t.Errorf("expected size limit message, got %s", recorder.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := response["workflows"]; !ok {
		t.Error("expected workflows section in stats")
	}
	if _, ok := response["rate_limiting"]; !ok {
		t.Error("expected rate_limiting section in stats")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}
	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.10:54321",
			want:       "192.0.2.10",
		},
		{
			name:       "x-forwarded-for",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "invalid forwarded header falls through",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
