// Package errors provides reliability error classification and handling utilities.
package errors

import (
	"errors"
	"fmt"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// ReasonCircuitOpen is the machine-readable reason attached to transport
// errors produced from a breaker rejection.
const ReasonCircuitOpen = "CIRCUIT_OPEN"

// CircuitOpenError is returned when a circuit breaker rejects a call without
// invoking the guarded operation. Callers must treat it distinctly from the
// operation's own failure; the usual response is a fallback value, not a
// propagated hard failure.
type CircuitOpenError struct {
	// Name identifies the breaker that rejected the call.
	Name string
	// RetryAfter is how long until the breaker will allow a trial call.
	// Zero when a half-open trial is already in flight.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("circuit breaker %q is open (retry in %s)", e.Name, e.RetryAfter)
	}
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// IsCircuitOpen reports whether err is (or wraps) a breaker rejection.
func IsCircuitOpen(err error) bool {
	var target *CircuitOpenError
	return errors.As(err, &target)
}

// AsCircuitOpen extracts the breaker rejection from err, if any.
func AsCircuitOpen(err error) (*CircuitOpenError, bool) {
	var target *CircuitOpenError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ToTransportError maps err to a Kratos transport error for HTTP/gRPC
// boundaries. Breaker rejections become 503 CIRCUIT_OPEN; everything else
// passes through kratos error conversion unchanged.
func ToTransportError(err error) *kerrors.Error {
	if err == nil {
		return nil
	}
	if open, ok := AsCircuitOpen(err); ok {
		return kerrors.New(503, ReasonCircuitOpen, open.Error())
	}
	return kerrors.FromError(err)
}
