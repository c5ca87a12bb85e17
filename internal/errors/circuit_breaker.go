package errors

import (
	"fmt"
	"sync"
	"time"

	"heartbeat/internal/logging"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// StateClosed - normal operation, requests allowed
	StateClosed CircuitState = iota
	// StateOpen - failing, requests blocked
	StateOpen
	// StateHalfOpen - testing if service recovered
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures to open the circuit
	SuccessThreshold int           // consecutive half-open successes to close it
	Timeout          time.Duration // wait before attempting half-open
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// OpenCircuitError is returned while the circuit rejects requests.
type OpenCircuitError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *OpenCircuitError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s, retry in %v", e.Name, e.RetryAfter.Truncate(time.Millisecond))
}

// CircuitBreaker implements the circuit breaker pattern around an upstream
// service. The runner wraps its control-plane transport with one so a dead
// control plane fails fast instead of burning the request timeout per call.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger *logging.Logger

	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(name string, config CircuitBreakerConfig, logger *logging.Logger) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultCircuitBreakerConfig().FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultCircuitBreakerConfig().SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultCircuitBreakerConfig().Timeout
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logging.OrNop(logger).Component("circuit-breaker"),
		state:  StateClosed,
	}
}

// Allow checks whether a request can proceed under the circuit breaker.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		if since := time.Since(cb.lastFailureTime); since >= cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			cb.logger.Info("circuit half-open, testing recovery", "name", cb.name)
			return nil
		}
		return &OpenCircuitError{
			Name:       cb.name,
			RetryAfter: cb.config.Timeout - time.Since(cb.lastFailureTime),
		}
	default:
		return fmt.Errorf("unknown circuit breaker state: %v", cb.state)
	}
}

// Mark records a request outcome. Pass nil to mark success.
func (cb *CircuitBreaker) Mark(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.onSuccess()
	} else {
		cb.onFailure(err)
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.logger.Info("circuit closed, service recovered", "name", cb.name)
		}
	}
}

func (cb *CircuitBreaker) onFailure(err error) {
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.logger.Warn("circuit opened",
				"name", cb.name,
				"failures", cb.failureCount,
				"error", err.Error(),
			)
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.successCount = 0
		cb.logger.Warn("circuit re-opened during recovery test", "name", cb.name, "error", err.Error())
	}
}
