package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CBState is the breaker state guarding the WhatsApp sidecar.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without calling the sidecar while the breaker is open.
var ErrCircuitOpen = errors.New("whatsapp: circuito abierto")

type CircuitBreakerConfig struct {
	Nombre           string
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // half-open successes that close it again
	OpenTimeout      time.Duration // wait before the first half-open probe
}

// DefaultCBConfig returns the settings used for the WhatsApp sidecar.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Nombre:           "whatsapp",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

// CircuitBreaker makes reminder sends fail fast while the sidecar is down.
// Safe for concurrent use.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     CBState
	fallos    int
	exitos    int
	abiertoEn time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Nombre == "" {
		cfg.Nombre = def.Nombre
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: CBClosed}
}

// State reports the current state. An open breaker whose timeout elapsed
// moves to half-open here.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.estado()
}

// estado must be called with mu held.
func (cb *CircuitBreaker) estado() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.abiertoEn) >= cb.cfg.OpenTimeout {
		cb.cambiar(CBHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the breaker is open. Every error counts as a failure.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	return cb.ExecuteIf(fn, nil)
}

// ExecuteIf runs fn unless the breaker is open. Errors for which countable
// returns false are passed through without touching the counters; a nil
// countable counts every error.
func (cb *CircuitBreaker) ExecuteIf(fn func() error, countable func(error) bool) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && countable != nil && !countable(err) {
		return err
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.fallo()
	} else {
		cb.exito()
	}
	return err
}

func (cb *CircuitBreaker) fallo() {
	cb.fallos++
	switch cb.estado() {
	case CBHalfOpen:
		cb.cambiar(CBOpen)
	case CBClosed:
		if cb.fallos >= cb.cfg.FailureThreshold {
			cb.cambiar(CBOpen)
		}
	}
}

func (cb *CircuitBreaker) exito() {
	switch cb.estado() {
	case CBClosed:
		cb.fallos = 0
	case CBHalfOpen:
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			cb.cambiar(CBClosed)
		}
	}
}

// cambiar resets the counters for the new state. Caller holds mu.
func (cb *CircuitBreaker) cambiar(to CBState) {
	if to == CBOpen {
		cb.abiertoEn = cb.now()
	}
	log.Warn().Str("circuito", cb.cfg.Nombre).
		Str("de", cb.state.String()).Str("a", to.String()).
		Msg("circuit breaker: cambio de estado")
	cb.state = to
	cb.fallos = 0
	cb.exitos = 0
}
