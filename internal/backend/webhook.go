package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
	"tailorflow/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	tailorWebhookPath = "/webhook/tailor-resume"
	executionsPath    = "/api/v1/executions/"
)

// WebhookBackend tailors resumes through an external workflow-automation
// webhook. The webhook either answers synchronously with a result or
// returns an execution id that is polled until the run finishes.
type WebhookBackend struct {
	httpClient *http.Client
	config     config.WebhookConfig
	breaker    *ResultBreaker
	logger     *errors.Logger
}

var _ Provider = (*WebhookBackend)(nil)

// NewWebhookBackend creates a webhook-backed provider
func NewWebhookBackend(cfg config.WebhookConfig, logger *errors.Logger) (*WebhookBackend, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Webhook base URL is not configured", nil)
	}
	if cfg.Token == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingToken,
			"Webhook bearer token is not configured", nil)
	}

	return &WebhookBackend{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:  cfg,
		breaker: NewResultBreaker("webhook", cfg.CircuitBreaker, logger),
		logger:  logger,
	}, nil
}

// Name implements Provider
func (w *WebhookBackend) Name() string { return "webhook" }

// webhookPayload is the wire format sent to the tailoring webhook
type webhookPayload struct {
	OriginalResume types.ResumeDocument `json:"originalResume"`
	JobDescription types.JobDescription `json:"jobDescription"`
	Template       types.Template       `json:"template"`
	Timestamp      string               `json:"timestamp"`
	RequestID      string               `json:"requestId"`
}

// webhookResult is the tailoring payload the webhook produces. Keyword
// matches and improvement areas are computed locally after fallback
// selection, so only the core fields travel over the wire.
type webhookResult struct {
	TailoredResume *types.ResumeDocument `json:"tailoredResume"`
	MatchScore     *float64              `json:"matchScore"`
	Suggestions    []string              `json:"suggestions"`
}

// webhookEnvelope accepts both a synchronous result (top-level or under
// "data") and an asynchronous execution handle.
type webhookEnvelope struct {
	webhookResult
	Data        *webhookResult `json:"data"`
	ExecutionID string         `json:"executionId"`
	Error       string         `json:"error"`
}

// Tailor implements Provider
func (w *WebhookBackend) Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) (types.TailoringResult, error) {
	tracer := otel.Tracer("tailorflow.backend.webhook")
	ctx, span := tracer.Start(ctx, "webhook.tailor")
	defer span.End()

	span.SetAttributes(
		attribute.String("backend.name", "webhook"),
		attribute.String("tailoring.template", string(opts.Template)),
	)

	if err := validatePayload(resume, job); err != nil {
		span.RecordError(err)
		return types.TailoringResult{}, err
	}

	payload := webhookPayload{
		OriginalResume: resume,
		JobDescription: job,
		Template:       opts.Template,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		RequestID:      uuid.NewString(),
	}
	span.SetAttributes(attribute.String("webhook.request_id", payload.RequestID))

	result, err := w.breaker.Execute(func() (types.TailoringResult, error) {
		envelope, err := executeWithRetry(ctx, w.logger, "webhook_tailor", w.config.MaxRetries, func() (*webhookEnvelope, error) {
			return w.trigger(ctx, payload)
		})
		if err != nil {
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeBackendFailed,
				"Webhook trigger failed", err)
		}

		if envelope.ExecutionID != "" {
			w.logger.Debug("Webhook run is asynchronous, polling execution",
				"request_id", payload.RequestID,
				"execution_id", envelope.ExecutionID)
			return w.pollExecution(ctx, envelope.ExecutionID)
		}

		return envelope.toResult()
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.TailoringResult{}, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("tailoring.match_score", result.MatchScore),
	)

	return result, nil
}

// Stats returns circuit breaker statistics for the backend
func (w *WebhookBackend) Stats() map[string]any {
	return w.breaker.Stats()
}

// validatePayload rejects inputs the workflow cannot process before any
// network traffic happens
func validatePayload(resume types.ResumeDocument, job types.JobDescription) error {
	if resume.PersonalInfo.Name == "" || resume.PersonalInfo.Email == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidInput,
			"Resume must carry a name and email address", nil)
	}
	if job.Title == "" || job.Description == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidInput,
			"Job description must carry a title and description", nil)
	}
	return nil
}

// trigger POSTs the payload to the tailoring webhook
func (w *WebhookBackend) trigger(ctx context.Context, payload webhookPayload) (*webhookEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.BaseURL+tailorWebhookPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.config.Token)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var envelope webhookEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode webhook response: %w", err)
	}

	return &envelope, nil
}

// executionState mirrors the workflow engine's execution resource
type executionState struct {
	Finished  bool            `json:"finished"`
	StoppedAt string          `json:"stoppedAt"`
	Data      json.RawMessage `json:"data"`
}

// pollExecution polls the execution resource until it finishes or the
// poll budget runs out
func (w *WebhookBackend) pollExecution(ctx context.Context, executionID string) (types.TailoringResult, error) {
	deadline := time.Now().Add(w.config.PollTimeout)
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeBackendFailed,
				"Webhook polling cancelled", ctx.Err())
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodePollingTimeout,
				fmt.Sprintf("Webhook execution %s did not finish within %s", executionID, w.config.PollTimeout), nil)
		}

		state, err := w.fetchExecution(ctx, executionID)
		if err != nil {
			w.logger.Warn("Execution status check failed",
				"execution_id", executionID,
				"error", err.Error())
			continue
		}

		if !state.Finished {
			w.logger.Debug("Webhook execution still running",
				"execution_id", executionID,
				"progress", executionProgress(state.Data))
			continue
		}

		if state.StoppedAt == "" {
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeBackendFailed,
				fmt.Sprintf("Webhook execution %s finished without completing", executionID), nil)
		}

		var envelope webhookEnvelope
		if err := json.Unmarshal(state.Data, &envelope); err != nil {
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeMalformedResponse,
				"Failed to decode finished execution data", err)
		}
		return envelope.toResult()
	}
}

// fetchExecution reads the current execution state
func (w *WebhookBackend) fetchExecution(ctx context.Context, executionID string) (*executionState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.config.BaseURL+executionsPath+executionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build execution request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.config.Token)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var state executionState
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode execution state: %w", err)
	}

	return &state, nil
}

// executionProgress estimates completion as the share of workflow nodes
// that produced output
func executionProgress(data json.RawMessage) int {
	if len(data) == 0 {
		return 0
	}

	var parsed struct {
		ResultData struct {
			RunData map[string][]struct {
				Data json.RawMessage `json:"data"`
			} `json:"runData"`
		} `json:"resultData"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0
	}

	total := len(parsed.ResultData.RunData)
	if total == 0 {
		return 0
	}

	completed := 0
	for _, runs := range parsed.ResultData.RunData {
		if len(runs) > 0 && len(runs[0].Data) > 0 {
			completed++
		}
	}

	return int(float64(completed)/float64(total)*100 + 0.5)
}

// toResult validates and converts the envelope into a TailoringResult
func (e *webhookEnvelope) toResult() (types.TailoringResult, error) {
	result := e.webhookResult
	if result.TailoredResume == nil && e.Data != nil {
		result = *e.Data
	}

	if result.TailoredResume == nil {
		msg := "No tailored resume data received from webhook"
		if e.Error != "" {
			msg = fmt.Sprintf("Webhook reported failure: %s", e.Error)
		}
		return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeSchemaViolation, msg, nil)
	}

	score := 0.0
	if result.MatchScore != nil {
		score = *result.MatchScore
	}

	return types.TailoringResult{
		TailoredResume:   *result.TailoredResume,
		MatchScore:       clampScore(score),
		Suggestions:      orEmpty(result.Suggestions),
		KeywordMatches:   []string{},
		ImprovementAreas: []string{},
	}, nil
}
