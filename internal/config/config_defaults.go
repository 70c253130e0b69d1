package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	// Backend fallback order
	v.SetDefault("backends.order", []string{"webhook", "gemini"})

	// Gemini backend
	v.SetDefault("backends.gemini.model", "gemini-2.0-flash-001")
	v.SetDefault("backends.gemini.timeout", 60*time.Second)
	v.SetDefault("backends.gemini.maxRetries", 3)
	v.SetDefault("backends.gemini.temperature", 0.3)
	v.SetDefault("backends.gemini.topK", 40)
	v.SetDefault("backends.gemini.topP", 0.95)
	v.SetDefault("backends.gemini.maxOutputTokens", 8192)
	setCircuitBreakerDefaults(v, "backends.gemini.circuitBreaker")

	// Webhook backend
	v.SetDefault("backends.webhook.timeout", 30*time.Second)
	v.SetDefault("backends.webhook.maxRetries", 2)
	v.SetDefault("backends.webhook.pollInterval", 2*time.Second)
	v.SetDefault("backends.webhook.pollTimeout", 2*time.Minute)
	setCircuitBreakerDefaults(v, "backends.webhook.circuitBreaker")

	// Workflow lifecycle
	v.SetDefault("workflow.timeout", 5*time.Minute)
	v.SetDefault("workflow.retention", 24*time.Hour)
	v.SetDefault("workflow.sweepInterval", time.Hour)
	v.SetDefault("workflow.stepDelay", 500*time.Millisecond)

	// Analyzer
	v.SetDefault("analyzer.vocabularyFile", "")
	v.SetDefault("analyzer.watch", false)
	v.SetDefault("analyzer.debounceDelay", 500*time.Millisecond)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxRequestSize", int64(1024*1024)) // 1MB

	// Vault
	v.SetDefault("vault.enabled", false)

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "tailorflow")
	v.SetDefault("observability.serviceVersion", "dev")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.prettyPrint", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".maxRequests", 3)
	v.SetDefault(prefix+".interval", 60*time.Second)
	v.SetDefault(prefix+".timeout", 60*time.Second)
	v.SetDefault(prefix+".minRequests", 3)
	v.SetDefault(prefix+".failureThreshold", 0.6)
}
