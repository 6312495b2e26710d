package biz

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"RelGuard/internal/conf"
	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// BreakerRegistry tracks all live circuit breakers for aggregate health
// reporting. Breakers register once at creation and are never removed.
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker

	nowFn     func() time.Time
	rawLogger log.Logger
	logger    *log.Helper
}

// NewBreakerRegistry creates the registry and instantiates every breaker
// named in the reliability configuration.
func NewBreakerRegistry(c *conf.Reliability, logger log.Logger) *BreakerRegistry {
	r := &BreakerRegistry{
		breakers:  make(map[string]*CircuitBreaker),
		nowFn:     time.Now,
		rawLogger: logger,
		logger:    log.NewHelper(logger),
	}

	if c != nil {
		for _, def := range c.Breakers {
			var timeout time.Duration
			if def.RecoveryTimeout != nil {
				timeout = def.RecoveryTimeout.AsDuration()
			}
			if _, err := r.GetOrCreate(def.Name, def.FailureThreshold, timeout); err != nil {
				r.logger.Warnw("skipping duplicate breaker definition", "name", def.Name)
			}
		}
	}

	return r
}

// Register adds a breaker to the registry. Names are unique; registering a
// second breaker under an existing name is rejected.
func (r *BreakerRegistry) Register(b *CircuitBreaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.breakers[b.Name()]; exists {
		return fmt.Errorf("circuit breaker already registered: %s", b.Name())
	}

	r.breakers[b.Name()] = b
	r.logger.Infow("circuit breaker registered", "name", b.Name())

	return nil
}

// Get returns the registered breaker with the given name, if any.
func (r *BreakerRegistry) Get(name string) (*CircuitBreaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.breakers[name]
	return b, ok
}

// GetOrCreate returns the existing breaker with the given name, or creates
// and registers a new one with the given settings.
func (r *BreakerRegistry) GetOrCreate(name string, failureThreshold int, recoveryTimeout time.Duration) (*CircuitBreaker, error) {
	if b, ok := r.Get(name); ok {
		return b, nil
	}

	b := NewCircuitBreaker(name, failureThreshold, recoveryTimeout, r.rawLogger)
	if err := r.Register(b); err != nil {
		// Lost a create race; the registered breaker wins.
		existing, ok := r.Get(name)
		if !ok {
			return nil, err
		}
		return existing, nil
	}

	return b, nil
}

// SnapshotAll returns a read-only snapshot of every registered breaker,
// keyed by name.
func (r *BreakerRegistry) SnapshotAll() map[string]model.BreakerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]model.BreakerSnapshot, len(r.breakers))
	for name, b := range r.breakers {
		states[name] = b.State()
	}

	return states
}

// ListOpen returns the names of breakers currently open, sorted.
func (r *BreakerRegistry) ListOpen() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var open []string
	for name, b := range r.breakers {
		if b.State().State == StateOpen {
			open = append(open, name)
		}
	}
	sort.Strings(open)

	return open
}

// ListCritical returns the names of breakers that have been open for longer
// than twice their recovery timeout since the last failure, sorted. These
// are stuck open: recovery trials either never ran or keep failing.
func (r *BreakerRegistry) ListCritical() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.nowFn()

	var critical []string
	for name, b := range r.breakers {
		if b.stuckOpen(now) {
			critical = append(critical, name)
		}
	}
	sort.Strings(critical)

	return critical
}
