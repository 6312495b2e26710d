package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitOpenErrorMessage(t *testing.T) {
	err := &CircuitOpenError{Name: "database", RetryAfter: 30 * time.Second}
	assert.Equal(t, `circuit breaker "database" is open (retry in 30s)`, err.Error())

	trial := &CircuitOpenError{Name: "database"}
	assert.Equal(t, `circuit breaker "database" is open`, trial.Error())
}

func TestIsCircuitOpen(t *testing.T) {
	open := &CircuitOpenError{Name: "database"}
	assert.True(t, IsCircuitOpen(open))
	assert.True(t, IsCircuitOpen(fmt.Errorf("calling repo: %w", open)))

	assert.False(t, IsCircuitOpen(nil))
	assert.False(t, IsCircuitOpen(errors.New("connection refused")))
}

func TestAsCircuitOpen(t *testing.T) {
	open := &CircuitOpenError{Name: "external_api", RetryAfter: time.Second}
	wrapped := fmt.Errorf("fetch quote: %w", open)

	got, ok := AsCircuitOpen(wrapped)
	require.True(t, ok)
	assert.Same(t, open, got)

	_, ok = AsCircuitOpen(errors.New("timeout"))
	assert.False(t, ok)
}

func TestToTransportError(t *testing.T) {
	assert.Nil(t, ToTransportError(nil))

	ke := ToTransportError(&CircuitOpenError{Name: "database", RetryAfter: 10 * time.Second})
	require.NotNil(t, ke)
	assert.Equal(t, int32(503), ke.GetCode())
	assert.Equal(t, ReasonCircuitOpen, ke.GetReason())
	assert.Contains(t, ke.GetMessage(), "database")

	// Unknown errors pass through the default conversion.
	ke = ToTransportError(errors.New("boom"))
	require.NotNil(t, ke)
	assert.Equal(t, int32(500), ke.GetCode())
}
