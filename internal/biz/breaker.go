package biz

import (
	"context"
	"sync"
	"time"

	"RelGuard/internal/model"
	pkgerrors "RelGuard/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// Circuit breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// Default breaker settings, applied when a definition leaves them out.
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
)

// Operation is a guarded call executed through a circuit breaker.
type Operation func(ctx context.Context) (any, error)

// CircuitBreaker is a named fault-isolation state machine guarding one risky
// operation. It starts closed, opens after failureThreshold consecutive
// failures, and allows a single half-open trial once recoveryTimeout has
// elapsed since the last failure.
//
// The decision step (state check, transition, trial claim) is serialized by
// the breaker mutex; the guarded operation itself runs outside the lock.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration

	mu              sync.Mutex
	state           string
	failureCount    int
	lastFailureTime time.Time // zero value means no failure yet
	trialInFlight   bool

	nowFn  func() time.Time
	logger *log.Helper
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
// Non-positive threshold or timeout fall back to the defaults.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration, logger log.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}

	b := &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		nowFn:            time.Now,
		logger:           log.NewHelper(logger),
	}

	b.logger.Infow("circuit breaker initialized",
		"name", name,
		"failure_threshold", failureThreshold,
		"recovery_timeout", recoveryTimeout)

	return b
}

// Call executes op under breaker protection. It returns op's result, or op's
// own error unchanged after the failure is recorded, or *errors.CircuitOpenError
// when the breaker rejects the call without invoking op. Callers detect the
// rejection with errors.AsCircuitOpen and typically substitute a fallback.
func (b *CircuitBreaker) Call(ctx context.Context, op Operation) (any, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}

	result, err := op(ctx)
	if err != nil {
		b.onFailure()
		return nil, err
	}

	b.onSuccess()
	return result, nil
}

// State returns a read-only snapshot of the breaker for reporting.
func (b *CircuitBreaker) State() model.BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := model.BreakerSnapshot{
		Name:                   b.name,
		State:                  b.state,
		FailureCount:           b.failureCount,
		FailureThreshold:       b.failureThreshold,
		RecoveryTimeoutSeconds: b.recoveryTimeout.Seconds(),
	}
	if !b.lastFailureTime.IsZero() {
		t := b.lastFailureTime
		snap.LastFailureTime = &t
	}

	return snap
}

// Name returns the breaker's unique name.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// stuckOpen reports whether the breaker has been open for longer than twice
// its recovery timeout since the last failure. That means trial calls either
// never came or keep failing, which the registry treats as critical.
func (b *CircuitBreaker) stuckOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen || b.lastFailureTime.IsZero() {
		return false
	}
	return now.Sub(b.lastFailureTime) > 2*b.recoveryTimeout
}

// beforeCall runs the atomic decision step. It returns nil when the caller
// may execute the operation, or a rejection error when the breaker is open
// or another half-open trial is already in flight.
func (b *CircuitBreaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		now := b.nowFn()
		if b.readyForTrial(now) {
			b.state = StateHalfOpen
			b.trialInFlight = true
			b.logger.Infow("circuit breaker moved to half-open", "name", b.name)
			return nil
		}
		return &pkgerrors.CircuitOpenError{
			Name:       b.name,
			RetryAfter: b.recoveryTimeout - now.Sub(b.lastFailureTime),
		}
	case StateHalfOpen:
		if b.trialInFlight {
			// Only one trial probes the operation at a time.
			return &pkgerrors.CircuitOpenError{Name: b.name}
		}
		b.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// readyForTrial reports whether the recovery timeout has elapsed.
// Caller must hold b.mu.
func (b *CircuitBreaker) readyForTrial(now time.Time) bool {
	if b.lastFailureTime.IsZero() {
		return true
	}
	return now.Sub(b.lastFailureTime) >= b.recoveryTimeout
}

// onSuccess resets the failure count and closes a half-open breaker.
func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false
	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.logger.Infow("circuit breaker reset to closed", "name", b.name)
	}
}

// onFailure records a failure and opens the breaker once the threshold is
// reached. The failure count is not reset when entering half-open, so a
// single failed trial re-opens the circuit and restarts the recovery timer.
func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false
	b.failureCount++
	b.lastFailureTime = b.nowFn()

	if b.failureCount >= b.failureThreshold {
		if b.state != StateOpen {
			b.logger.Warnw("circuit breaker opened",
				"name", b.name,
				"failure_count", b.failureCount)
		}
		b.state = StateOpen
	}
}
