// Package orchestrator runs the tailoring fallback chain: external
// backends in configured order, closed by the rule-based engine so a
// tailoring request never fails outright.
package orchestrator

import (
	"context"
	"time"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/backend"
	"tailorflow/internal/config"
	"tailorflow/internal/engine"
	"tailorflow/internal/errors"
	"tailorflow/internal/observability"
	"tailorflow/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator owns the ordered provider chain. The rule-based engine is
// the implicit terminal member and is not part of the providers slice.
type Orchestrator struct {
	providers []backend.Provider
	engine    *engine.Engine
	analyzer  *analyzer.Analyzer
	logger    *errors.Logger
	metrics   *observability.Metrics
}

// SetMetrics attaches instrument recording. A nil receiver on the
// metrics side makes this safe to leave unset in tests and the CLI path.
func (o *Orchestrator) SetMetrics(m *observability.Metrics) {
	o.metrics = m
}

// New creates an orchestrator over an explicit provider chain
func New(providers []backend.Provider, eng *engine.Engine, an *analyzer.Analyzer, logger *errors.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		engine:    eng,
		analyzer:  an,
		logger:    logger,
	}
}

// NewFromConfig builds the provider chain from backends.order. Backends
// whose credentials are not configured are skipped with a log line, so a
// deployment without Gemini or without a webhook still serves requests
// through the remaining chain.
func NewFromConfig(cfg *config.BackendsConfig, eng *engine.Engine, an *analyzer.Analyzer, logger *errors.Logger) *Orchestrator {
	var providers []backend.Provider

	for _, name := range cfg.Order {
		switch name {
		case "webhook":
			provider, err := backend.NewWebhookBackend(cfg.Webhook, logger)
			if err != nil {
				logger.Warn("Webhook backend unavailable, skipping", "error", err.Error())
				continue
			}
			providers = append(providers, provider)
		case "gemini":
			provider, err := backend.NewGeminiBackend(cfg.Gemini, logger)
			if err != nil {
				logger.Warn("Gemini backend unavailable, skipping", "error", err.Error())
				continue
			}
			providers = append(providers, provider)
		default:
			logger.Warn("Unknown backend in chain, skipping", "backend", name)
		}
	}

	return New(providers, eng, an, logger)
}

// Tailor runs the fallback chain. It never returns an error: every
// backend failure falls through to the next provider and finally to the
// rule-based engine, which always produces a result for validated input.
func (o *Orchestrator) Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) types.TailoringResult {
	tracer := otel.Tracer("tailorflow.orchestrator")
	ctx, span := tracer.Start(ctx, "orchestrator.tailor")
	defer span.End()

	span.SetAttributes(
		attribute.Int("chain.length", len(o.providers)),
		attribute.String("tailoring.template", string(opts.Template)),
	)

	start := time.Now()

	for i, provider := range o.providers {
		result, err := provider.Tailor(ctx, resume, job, opts)
		if err == nil && result.TailoredResume.PersonalInfo.Name == "" {
			err = errors.NewBackendError(errors.ErrCodeSchemaViolation,
				"Backend returned an empty tailored resume", nil)
		}
		if err != nil {
			o.metrics.RecordBackendAttempt(ctx, provider.Name(), false)
			o.logger.Warn("Backend failed, falling back",
				"backend", provider.Name(),
				"position", i,
				"error", err.Error())
			span.AddEvent("backend fallback", trace.WithAttributes(
				attribute.String("backend", provider.Name()),
				attribute.Int("position", i),
			))
			continue
		}

		o.metrics.RecordBackendAttempt(ctx, provider.Name(), true)
		o.logger.Info("Tailoring served by backend",
			"backend", provider.Name(),
			"match_score", result.MatchScore)
		span.SetAttributes(attribute.String("chain.winner", provider.Name()))
		processed := o.postProcess(result, &job, &opts)
		o.metrics.RecordTailoring(ctx, time.Since(start), provider.Name(), processed.MatchScore)
		return processed
	}

	o.logger.Info("All backends exhausted, using rule-based engine")
	span.SetAttributes(attribute.String("chain.winner", "engine"))
	result := o.engine.Tailor(resume, job, opts)
	o.metrics.RecordTailoring(ctx, time.Since(start), "engine", result.MatchScore)
	return result
}

// postProcess recomputes the locally-derived fields of a backend result
// so keyword matches and improvement areas are consistent regardless of
// which backend produced the resume. The score is clamped into [0,100].
func (o *Orchestrator) postProcess(result types.TailoringResult, job *types.JobDescription, opts *types.TailoringOptions) types.TailoringResult {
	jobKeywords := o.engine.JobKeywords(job, opts)
	resumeText := analyzer.FlattenResume(&result.TailoredResume)

	result.KeywordMatches = o.analyzer.KeywordMatches(resumeText, jobKeywords)
	result.ImprovementAreas = o.engine.ImprovementAreas(&result.TailoredResume, jobKeywords)

	if result.MatchScore < 0 {
		result.MatchScore = 0
	} else if result.MatchScore > 100 {
		result.MatchScore = 100
	}

	return result
}

// statsSource is implemented by providers that expose breaker statistics
type statsSource interface {
	Stats() map[string]any
}

// Stats reports the chain order and per-backend circuit breaker state
func (o *Orchestrator) Stats() map[string]any {
	chain := make([]string, 0, len(o.providers)+1)
	backends := make(map[string]any, len(o.providers))

	for _, provider := range o.providers {
		chain = append(chain, provider.Name())
		if src, ok := provider.(statsSource); ok {
			backends[provider.Name()] = src.Stats()
		}
	}
	chain = append(chain, "engine")

	return map[string]any{
		"chain":    chain,
		"backends": backends,
	}
}
