package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Credential precedence order:
// 1. Vault (if configured) - highest priority
// 2. Config file values
// 3. Environment variables (TAILORFLOW_BACKENDS_GEMINI_APIKEY, ...)
// 4. Default values - lowest priority
type Config struct {
	Backends      BackendsConfig      `mapstructure:"backends"`
	Workflow      WorkflowConfig      `mapstructure:"workflow"`
	Analyzer      AnalyzerConfig      `mapstructure:"analyzer"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BackendsConfig holds configuration for the external tailoring backends.
// Order lists backend names in fallback priority; unknown names are
// rejected during validation.
type BackendsConfig struct {
	Order   []string      `mapstructure:"order"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// GeminiConfig holds configuration for the generative-text backend
type GeminiConfig struct {
	APIKey          string               `mapstructure:"apiKey"`
	Model           string               `mapstructure:"model"`
	Timeout         time.Duration        `mapstructure:"timeout"`
	MaxRetries      int                  `mapstructure:"maxRetries"`
	Temperature     float32              `mapstructure:"temperature"`
	TopK            float32              `mapstructure:"topK"`
	TopP            float32              `mapstructure:"topP"`
	MaxOutputTokens int32                `mapstructure:"maxOutputTokens"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// WebhookConfig holds configuration for the workflow-automation backend
type WebhookConfig struct {
	BaseURL        string               `mapstructure:"baseUrl"`
	Token          string               `mapstructure:"token"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	PollInterval   time.Duration        `mapstructure:"pollInterval"`
	PollTimeout    time.Duration        `mapstructure:"pollTimeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// WorkflowConfig holds lifecycle configuration for tracked workflows
type WorkflowConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`       // Per-workflow lifetime budget
	Retention     time.Duration `mapstructure:"retention"`     // How long records are kept after creation
	SweepInterval time.Duration `mapstructure:"sweepInterval"` // How often the retention sweep runs
	StepDelay     time.Duration `mapstructure:"stepDelay"`     // Pacing between progress checkpoints
}

// AnalyzerConfig holds keyword vocabulary configuration
type AnalyzerConfig struct {
	VocabularyFile string        `mapstructure:"vocabularyFile"` // Optional external vocabulary, one term per line
	Watch          bool          `mapstructure:"watch"`          // Hot-reload the vocabulary file on change
	DebounceDelay  time.Duration `mapstructure:"debounceDelay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration for the HTTP server
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxRequestSize   int64    `mapstructure:"maxRequestSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled        bool             `mapstructure:"enabled"`
	ServiceName    string           `mapstructure:"serviceName"`
	ServiceVersion string           `mapstructure:"serviceVersion"`
	ConsoleOutput  bool             `mapstructure:"consoleOutput"`
	PrettyPrint    bool             `mapstructure:"prettyPrint"`
	SampleRate     float64          `mapstructure:"sampleRate"`
	Prometheus     PrometheusConfig `mapstructure:"prometheus"`
	OTLP           OTLPConfig       `mapstructure:"otlp"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, an optional config file
// and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TAILORFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/tailorflow/")
	v.AddConfigPath("$HOME/.tailorflow")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyFallbacks resolves credentials from conventional environment
// variables when the config file and prefixed variables left them empty.
func (c *Config) applyFallbacks() {
	if c.Backends.Gemini.APIKey == "" {
		c.Backends.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Backends.Webhook.Token == "" {
		c.Backends.Webhook.Token = os.Getenv("WEBHOOK_TOKEN")
	}
}

// Validate checks structural configuration invariants
func (c *Config) Validate() error {
	for _, name := range c.Backends.Order {
		switch name {
		case "webhook", "gemini":
		default:
			return fmt.Errorf("unknown backend %q in backends.order", name)
		}
	}

	if c.Workflow.Timeout <= 0 {
		return fmt.Errorf("workflow.timeout must be positive")
	}
	if c.Workflow.Retention <= 0 {
		return fmt.Errorf("workflow.retention must be positive")
	}
	if c.Workflow.SweepInterval <= 0 {
		return fmt.Errorf("workflow.sweepInterval must be positive")
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls requires certFile and keyFile when enabled")
		}
	}

	if c.Analyzer.Watch && c.Analyzer.VocabularyFile == "" {
		return fmt.Errorf("analyzer.watch requires analyzer.vocabularyFile")
	}

	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid app.logLevel: %s", c.App.LogLevel)
	}

	return nil
}
