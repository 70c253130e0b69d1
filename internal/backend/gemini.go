package backend

import (
	"context"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
	"tailorflow/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// GeminiBackend tailors resumes through the Gemini generative API
type GeminiBackend struct {
	client  *genai.Client
	config  config.GeminiConfig
	breaker *ResultBreaker
	logger  *errors.Logger
}

var _ Provider = (*GeminiBackend)(nil)

// NewGeminiBackend creates a Gemini-backed provider. A missing API key
// fails immediately, before any network traffic.
func NewGeminiBackend(cfg config.GeminiConfig, logger *errors.Logger) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewBackendError(errors.ErrCodeBackendFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiBackend{
		client:  client,
		config:  cfg,
		breaker: NewResultBreaker("gemini", cfg.CircuitBreaker, logger),
		logger:  logger,
	}, nil
}

// Name implements Provider
func (g *GeminiBackend) Name() string { return "gemini" }

// Tailor implements Provider
func (g *GeminiBackend) Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) (types.TailoringResult, error) {
	tracer := otel.Tracer("tailorflow.backend.gemini")
	ctx, span := tracer.Start(ctx, "gemini.tailor")
	defer span.End()

	span.SetAttributes(
		attribute.String("backend.name", "gemini"),
		attribute.String("backend.model", g.config.Model),
		attribute.String("tailoring.template", string(opts.Template)),
	)

	prompt, err := buildTailoringPrompt(resume, job, opts)
	if err != nil {
		span.RecordError(err)
		return types.TailoringResult{}, err
	}

	genConfig := g.generationConfig()

	result, err := g.breaker.Execute(func() (types.TailoringResult, error) {
		resp, err := executeWithRetry(ctx, g.logger, "gemini_tailor", g.config.MaxRetries, func() (*genai.GenerateContentResponse, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
			defer cancel()
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(prompt), genConfig)
		})
		if err != nil {
			return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeBackendFailed,
				"Gemini content generation failed", err)
		}
		return parseTailoringJSON(resp.Text())
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
func (g *GeminiBackend) Stats() map[string]any {
	return g.breaker.Stats()
}

// generationConfig builds the model configuration for tailoring requests
func (g *GeminiBackend) generationConfig() *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	topK := g.config.TopK
	topP := g.config.TopP

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  g.config.MaxOutputTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}

	if temperature > 0 {
		cfg.Temperature = &temperature
	}
	if topK > 0 {
		cfg.TopK = &topK
	}
	if topP > 0 {
		cfg.TopP = &topP
	}

	return cfg
}
