package conf

import (
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration for the RelGuard service.
type Bootstrap struct {
	Server      *Server
	Log         *Log
	Reliability *Reliability
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP holds HTTP server configuration.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Log holds logger configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

// Reliability holds the reliability engine configuration: the metric
// retention policy, SLI thresholds, circuit breaker definitions and the
// SLO catalogue evaluated by the dashboard.
type Reliability struct {
	// LatencyThresholdMs is the fixed latency-compliance threshold used by
	// the latency SLI (percentage of requests faster than this).
	LatencyThresholdMs float64
	// Retention bounds how long hour buckets are kept. Must cover the
	// longest configured SLO window.
	Retention *durationpb.Duration
	// EvaluationCron is the cron spec (with seconds) for the periodic SLO
	// evaluation job.
	EvaluationCron string
	// BudgetCriticalThreshold is the fraction of the error budget below
	// which a budget is flagged critical.
	BudgetCriticalThreshold float64
	Breakers                []*Breaker
	Slos                    []*SLO
}

// Breaker defines one named circuit breaker created at startup.
type Breaker struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  *durationpb.Duration
}

// SLO defines one service level objective.
type SLO struct {
	Name          string
	SliName       string
	TargetPercent float64
	WindowDays    int
}
