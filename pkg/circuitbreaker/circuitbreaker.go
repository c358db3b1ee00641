package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tair/storefront/pkg/logger"
)

// ErrOpen is returned by Call while the circuit rejects requests
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker
type State string

const (
	StateClosed   State = "closed"    // Normal operation
	StateOpen     State = "open"      // Blocking requests
	StateHalfOpen State = "half-open" // Testing if service recovered
)

// Settings tune a breaker
type Settings struct {
	MaxFailures       int           // Max consecutive failures before opening
	OpenTimeout       time.Duration // Time to wait before attempting recovery
	HalfOpenSuccesses int           // Successes in half-open needed to close
}

// DefaultSettings returns 5 failures, 30s open, 3 probes
func DefaultSettings() Settings {
	return Settings{
		MaxFailures:       5,
		OpenTimeout:       30 * time.Second,
		HalfOpenSuccesses: 3,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name            string
	settings        Settings
	state           State
	failures        int
	lastFailureTime time.Time
	lastStateChange time.Time
	successCount    int // Success count in half-open state
	now             func() time.Time
	mu              sync.RWMutex
}

// New creates a new circuit breaker
func New(name string, settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = DefaultSettings().MaxFailures
	}
	if settings.HalfOpenSuccesses <= 0 {
		settings.HalfOpenSuccesses = DefaultSettings().HalfOpenSuccesses
	}
	cb := &CircuitBreaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		now:      time.Now,
	}
	cb.lastStateChange = cb.now()
	return cb
}

// Call executes fn with circuit breaker protection. Only errors for which
// counts returns true are recorded as failures; others pass through as
// successes of the remote side.
func (cb *CircuitBreaker) Call(fn func() error, counts func(error) bool) error {
	cb.mu.Lock()

	// Check if we should transition to half-open
	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.settings.OpenTimeout {
		cb.state = StateHalfOpen
		cb.successCount = 0
		logger.Logger.Info().
			Str("circuit", cb.name).
			Msg("Circuit breaker transitioning to half-open")
	}

	currentState := cb.state
	cb.mu.Unlock()

	// If circuit is open, reject immediately
	if currentState == StateOpen {
		return fmt.Errorf("%w for %s", ErrOpen, cb.name)
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && (counts == nil || counts(err)) {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}

	return err
}

// onFailure records a failure
func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen {
		// Any failure in half-open state reopens the circuit
		cb.state = StateOpen
		cb.lastStateChange = cb.now()
		logger.Logger.Warn().
			Str("circuit", cb.name).
			Msg("Circuit breaker reopened after half-open failure")
	} else if cb.failures >= cb.settings.MaxFailures {
		cb.state = StateOpen
		cb.lastStateChange = cb.now()
		logger.Logger.Error().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.settings.MaxFailures).
			Msg("Circuit breaker opened")
	}
}

// onSuccess records a success
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.settings.HalfOpenSuccesses {
			cb.state = StateClosed
			cb.failures = 0
			cb.successCount = 0
			cb.lastStateChange = cb.now()
			logger.Logger.Info().
				Str("circuit", cb.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		// Reset failure count on success
		cb.failures = 0
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"name":              cb.name,
		"state":             cb.state,
		"failures":          cb.failures,
		"max_failures":      cb.settings.MaxFailures,
		"last_failure_time": cb.lastFailureTime,
		"last_state_change": cb.lastStateChange,
	}
}

// Manager manages one breaker per remote resource
type Manager struct {
	settings Settings
	breakers map[string]*CircuitBreaker
	now      func() time.Time
	mu       sync.RWMutex
}

// NewManager creates a new manager
func NewManager(settings Settings) *Manager {
	return &Manager{
		settings: settings,
		breakers: make(map[string]*CircuitBreaker),
		now:      time.Now,
	}
}

// SetClock replaces the time source of existing and future breakers
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	for _, cb := range m.breakers {
		cb.mu.Lock()
		cb.now = now
		cb.mu.Unlock()
	}
}

// GetOrCreate gets or creates the breaker for a resource
func (m *Manager) GetOrCreate(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, exists := m.breakers[name]; exists {
		return cb
	}

	cb := New(name, m.settings)
	cb.now = m.now
	cb.lastStateChange = m.now()
	m.breakers[name] = cb

	logger.Logger.Debug().
		Str("circuit", name).
		Msg("Circuit breaker created")

	return cb
}

// AllStats returns stats for all circuit breakers
func (m *Manager) AllStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]interface{})
	for name, cb := range m.breakers {
		stats[name] = cb.Stats()
	}
	return stats
}
