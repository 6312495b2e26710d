package biz

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	pkgerrors "RelGuard/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for deterministic breaker tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(t *testing.T, threshold int, timeout time.Duration) (*CircuitBreaker, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	b := NewCircuitBreaker("database", threshold, timeout, log.NewStdLogger(os.Stdout))
	b.nowFn = clock.Now

	return b, clock
}

var errBoom = errors.New("boom")

func failingOp(context.Context) (any, error) {
	return nil, errBoom
}

func succeedingOp(context.Context) (any, error) {
	return "ok", nil
}

func TestBreakerStartsClosed(t *testing.T) {
	b, _ := newTestBreaker(t, 3, 30*time.Second)

	snap := b.State()
	assert.Equal(t, "database", snap.Name)
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
	assert.Nil(t, snap.LastFailureTime)
	assert.Equal(t, 3, snap.FailureThreshold)
	assert.Equal(t, 30.0, snap.RecoveryTimeoutSeconds)
}

func TestBreakerDefaultsApplied(t *testing.T) {
	b, _ := newTestBreaker(t, 0, 0)

	snap := b.State()
	assert.Equal(t, DefaultFailureThreshold, snap.FailureThreshold)
	assert.Equal(t, DefaultRecoveryTimeout.Seconds(), snap.RecoveryTimeoutSeconds)
}

func TestBreakerPassesThroughResult(t *testing.T) {
	b, _ := newTestBreaker(t, 3, 30*time.Second)

	result, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestBreakerPassesThroughOperationError(t *testing.T) {
	b, _ := newTestBreaker(t, 3, 30*time.Second)

	_, err := b.Call(context.Background(), failingOp)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, pkgerrors.IsCircuitOpen(err))

	snap := b.State()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 1, snap.FailureCount)
	require.NotNil(t, snap.LastFailureTime)
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(t, 3, 30*time.Second)

	for i := 0; i < 3; i++ {
		_, err := b.Call(context.Background(), failingOp)
		assert.ErrorIs(t, err, errBoom)
	}

	snap := b.State()
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, 3, snap.FailureCount)

	// Next call is rejected without invoking the operation.
	invoked := false
	_, err := b.Call(context.Background(), func(context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCircuitOpen(err))
	assert.False(t, invoked)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(t, 3, 30*time.Second)

	_, _ = b.Call(context.Background(), failingOp)
	_, _ = b.Call(context.Background(), failingOp)

	_, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)

	snap := b.State()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}

func TestBreakerHalfOpenTrialSuccessCloses(t *testing.T) {
	b, clock := newTestBreaker(t, 3, 60*time.Second)

	for i := 0; i < 3; i++ {
		_, _ = b.Call(context.Background(), failingOp)
	}
	require.Equal(t, StateOpen, b.State().State)

	clock.Advance(61 * time.Second)

	result, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	snap := b.State()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}

func TestBreakerHalfOpenTrialFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(t, 3, 60*time.Second)

	for i := 0; i < 3; i++ {
		_, _ = b.Call(context.Background(), failingOp)
	}
	openedAt := b.State().LastFailureTime
	require.NotNil(t, openedAt)

	clock.Advance(61 * time.Second)

	_, err := b.Call(context.Background(), failingOp)
	assert.ErrorIs(t, err, errBoom)

	snap := b.State()
	assert.Equal(t, StateOpen, snap.State)
	require.NotNil(t, snap.LastFailureTime)
	assert.True(t, snap.LastFailureTime.After(*openedAt), "recovery timer must restart")
}

func TestBreakerEndToEndRecovery(t *testing.T) {
	// threshold=3, recoveryTimeout=60s walk from the runbook:
	// 3 failures open the circuit, t+30s is still rejected, t+61s runs the
	// trial, a succeeding trial closes it with the failure count reset.
	b, clock := newTestBreaker(t, 3, 60*time.Second)

	for i := 0; i < 3; i++ {
		_, err := b.Call(context.Background(), failingOp)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, StateOpen, b.State().State)

	clock.Advance(30 * time.Second)
	_, err := b.Call(context.Background(), succeedingOp)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCircuitOpen(err))

	open, ok := pkgerrors.AsCircuitOpen(err)
	require.True(t, ok)
	assert.Equal(t, "database", open.Name)
	assert.Equal(t, 30*time.Second, open.RetryAfter)

	clock.Advance(31 * time.Second)
	result, err := b.Call(context.Background(), succeedingOp)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	snap := b.State()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}

func TestBreakerSingleFlightTrial(t *testing.T) {
	b, clock := newTestBreaker(t, 1, 10*time.Second)

	_, _ = b.Call(context.Background(), failingOp)
	require.Equal(t, StateOpen, b.State().State)

	clock.Advance(11 * time.Second)

	trialStarted := make(chan struct{})
	release := make(chan struct{})
	trialDone := make(chan error, 1)

	go func() {
		_, err := b.Call(context.Background(), func(context.Context) (any, error) {
			close(trialStarted)
			<-release
			return "ok", nil
		})
		trialDone <- err
	}()

	<-trialStarted
	require.Equal(t, StateHalfOpen, b.State().State)

	// A second caller must not run a concurrent trial.
	invoked := false
	_, err := b.Call(context.Background(), func(context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCircuitOpen(err))
	assert.False(t, invoked)

	close(release)
	require.NoError(t, <-trialDone)
	assert.Equal(t, StateClosed, b.State().State)
}

func TestBreakerConcurrentFailuresNoLostUpdates(t *testing.T) {
	b, _ := newTestBreaker(t, 100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Call(context.Background(), failingOp)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, b.State().FailureCount)
}
