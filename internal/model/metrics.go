package model

import (
	"fmt"
	"time"
)

// ScopeAll is the aggregate scope every request is recorded under,
// in addition to its own endpoint scope.
const ScopeAll = "all"

// RequestRecord represents a single request outcome before it is folded
// into an hour bucket. It is transient and never retained individually.
type RequestRecord struct {
	Endpoint   string
	StatusCode int
	LatencyMs  float64
	Timestamp  time.Time
}

// IsSuccess reports whether the status code counts as a successful request.
// Anything in [200, 400) is a success, everything else is an error.
func (r RequestRecord) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// WindowAggregate is the sum of all hour buckets for one scope over a
// reporting window.
type WindowAggregate struct {
	TotalRequests      int64
	SuccessfulRequests int64
	ErrorCount         int64
	LatenciesMs        []float64
}

// SLODefinition is an immutable service level objective: a target percentage
// for one SLI over a rolling window of days.
type SLODefinition struct {
	Name          string  `json:"name"`
	SLIName       string  `json:"sli_name"`
	TargetPercent float64 `json:"target"`
	WindowDays    int     `json:"window_days"`
}

// Description renders a human readable summary, e.g. "Availability: 99.9% over 30 days".
func (s SLODefinition) Description() string {
	return fmt.Sprintf("%s: %g%% over %d days", s.Name, s.TargetPercent, s.WindowDays)
}
