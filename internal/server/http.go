package server

import (
	"time"

	"tailorflow/internal/config"
	tailorflowErrors "tailorflow/internal/errors"
	"tailorflow/internal/observability"
	"tailorflow/internal/orchestrator"
	"tailorflow/internal/types"
	"tailorflow/internal/workflow"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WorkflowStartedResponse is returned when a workflow is accepted
type WorkflowStartedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WorkflowStatusResponse wraps a workflow record with a human-readable
// progress message
type WorkflowStatusResponse struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	Progress        int                    `json:"progress"`
	ProgressMessage string                 `json:"progressMessage"`
	Result          *types.TailoringResult `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Tailoring pipeline
	Orchestrator *orchestrator.Orchestrator
	Workflows    *workflow.Manager

	// Observability, set during Start
	obs *observability.Manager

	// Logger
	Logger *tailorflowErrors.Logger
}

// NewServer creates a new Server instance around the tailoring pipeline
func NewServer(cfg *config.Config, version string, orch *orchestrator.Orchestrator, workflows *workflow.Manager, logger *tailorflowErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AppConfig:      cfg,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Orchestrator:   orch,
		Workflows:      workflows,
		Logger:         logger,
	}
}
