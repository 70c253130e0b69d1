package backend

import (
	stderrors "errors"
	"testing"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
)

func TestNewGeminiBackendRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiBackend(config.GeminiConfig{Model: "gemini-2.0-flash-001"}, testLogger())
	if err == nil {
		t.Fatal("NewGeminiBackend() expected error for missing API key")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("error is not *AppError: %v", err)
	}
	if appErr.Type != errors.ErrorTypeConfig {
		t.Errorf("type = %s, want %s", appErr.Type, errors.ErrorTypeConfig)
	}
	if appErr.Code != errors.ErrCodeMissingAPIKey {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeMissingAPIKey)
	}
}

func TestGeminiGenerationConfig(t *testing.T) {
	g := &GeminiBackend{config: config.GeminiConfig{
		Temperature:     0.3,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 8192,
	}}

	cfg := g.generationConfig()
	if cfg.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q", cfg.ResponseMIMEType)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 8192 {
		t.Errorf("MaxOutputTokens = %d, want 8192", cfg.MaxOutputTokens)
	}
	if len(cfg.SafetySettings) != 4 {
		t.Errorf("SafetySettings count = %d, want 4", len(cfg.SafetySettings))
	}

	// Zero-valued tuning knobs stay unset so the API defaults apply
	zero := (&GeminiBackend{config: config.GeminiConfig{}}).generationConfig()
	if zero.Temperature != nil || zero.TopK != nil || zero.TopP != nil {
		t.Error("zero tuning values must not be forwarded")
	}
}
