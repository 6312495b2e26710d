package model

import "time"

// Overall health statuses reported by the dashboard, ordered by severity.
const (
	StatusHealthy  = "HEALTHY"
	StatusDegraded = "DEGRADED"
	StatusCritical = "CRITICAL"
)

// SLO evaluation statuses.
const (
	SLOStatusPass = "PASS"
	SLOStatusFail = "FAIL"
)

// Alert severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
)

// BreakerSnapshot is a read-only view of one circuit breaker, safe to
// serialize for the breaker status endpoint.
type BreakerSnapshot struct {
	Name                   string     `json:"name"`
	State                  string     `json:"state"`
	FailureCount           int        `json:"failure_count"`
	LastFailureTime        *time.Time `json:"last_failure_time,omitempty"`
	FailureThreshold       int        `json:"threshold"`
	RecoveryTimeoutSeconds float64    `json:"timeout_seconds"`
}

// SLOResult is the per-SLO outcome of one dashboard evaluation.
type SLOResult struct {
	SLOTarget       float64 `json:"slo_target"`
	SLIValue        float64 `json:"sli_value"`
	Status          string  `json:"status"`
	BudgetConsumed  float64 `json:"budget_consumed"`
	BudgetRemaining float64 `json:"budget_remaining"`
	IsCritical      bool    `json:"is_critical"`
}

// BreakerSummary aggregates registry state for the dashboard payload.
type BreakerSummary struct {
	TotalCircuits    int                        `json:"total_circuits"`
	OpenCircuits     int                        `json:"open_circuits"`
	CriticalCircuits int                        `json:"critical_circuits"`
	CircuitStates    map[string]BreakerSnapshot `json:"circuit_states"`
}

// DashboardReport is the unified health payload served by /sre/health.
// Its field set is the wire contract; consumers depend on it.
type DashboardReport struct {
	Timestamp       time.Time            `json:"timestamp"`
	Window          string               `json:"window"`
	SLOs            map[string]SLOResult `json:"slos"`
	CircuitBreakers BreakerSummary       `json:"circuit_breakers"`
	Alerts          []string             `json:"alerts"`
	OverallStatus   string               `json:"overall_status"`
	Recommendations []string             `json:"recommendations"`
}

// BreakerCounts summarizes the registry for the breaker status endpoint.
type BreakerCounts struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Critical int `json:"critical"`
}

// BreakerStatusReport is the payload served by /sre/circuit-breakers.
type BreakerStatusReport struct {
	CircuitBreakers  map[string]BreakerSnapshot `json:"circuit_breakers"`
	OpenCircuits     []string                   `json:"open_circuits"`
	CriticalCircuits []string                   `json:"critical_circuits"`
	Summary          BreakerCounts              `json:"summary"`
	Timestamp        time.Time                  `json:"timestamp"`
}

// Alert is a single actionable alert with severity classification.
type Alert struct {
	Severity  string `json:"severity"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// AlertsReport is the payload served by /sre/alerts.
type AlertsReport struct {
	Alerts         []Alert   `json:"alerts"`
	TotalAlerts    int       `json:"total_alerts"`
	CriticalAlerts int       `json:"critical_alerts"`
	Timestamp      time.Time `json:"timestamp"`
}
