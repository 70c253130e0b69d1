package backend

import (
	"fmt"

	"tailorflow/internal/config"
	"tailorflow/internal/errors"
	"tailorflow/internal/types"

	"github.com/sony/gobreaker/v2"
)

// ResultBreaker wraps tailoring attempts with circuit breaker protection.
// A nil ResultBreaker is valid and means the breaker is disabled.
type ResultBreaker struct {
	cb *gobreaker.CircuitBreaker[types.TailoringResult]
}

// NewResultBreaker creates a circuit breaker for the named backend
func NewResultBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *ResultBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("backend-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &ResultBreaker{
		cb: gobreaker.NewCircuitBreaker[types.TailoringResult](settings),
	}
}

// Execute runs fn with circuit breaker protection
func (rb *ResultBreaker) Execute(fn func() (types.TailoringResult, error)) (types.TailoringResult, error) {
	if rb == nil || rb.cb == nil {
		return fn()
	}
	return rb.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (rb *ResultBreaker) Stats() map[string]any {
	if rb == nil || rb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    rb.cb.Name(),
		"state":   rb.cb.State().String(),
		"counts":  rb.cb.Counts(),
		"enabled": true,
	}
}

// Healthy returns true if the circuit breaker is in closed state
func (rb *ResultBreaker) Healthy() bool {
	if rb == nil || rb.cb == nil {
		return true
	}
	return rb.cb.State() == gobreaker.StateClosed
}
