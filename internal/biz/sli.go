package biz

import (
	"time"

	"RelGuard/internal/conf"
	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// SLI names recognized by the evaluator, matching the SLO catalogue.
const (
	SLIAvailability = "availability_sli"
	SLILatency      = "latency_p95_sli"
	SLIErrorRate    = "error_rate_sli"
	SLIFreshness    = "freshness_sli"
)

// FreshnessSLIValue is the stubbed data-freshness indicator. Real staleness
// instrumentation does not exist yet; the constant must be preserved until
// it does.
const FreshnessSLIValue = 99.5

// SLIEvaluator computes service level indicator values over an arbitrary
// time window from recorded request outcomes. All indicators are
// percentages; a window with no traffic evaluates to 100 (absence of
// traffic is fully available, not a failure).
type SLIEvaluator struct {
	repo               MetricsRepo
	latencyThresholdMs float64
	logger             *log.Helper
}

// NewSLIEvaluator creates an evaluator reading from the given store.
func NewSLIEvaluator(repo MetricsRepo, c *conf.Reliability, logger log.Logger) *SLIEvaluator {
	threshold := conf.DefaultLatencyThresholdMs
	if c != nil && c.LatencyThresholdMs > 0 {
		threshold = c.LatencyThresholdMs
	}

	return &SLIEvaluator{
		repo:               repo,
		latencyThresholdMs: threshold,
		logger:             log.NewHelper(logger),
	}
}

// Availability returns the percentage of successful requests in the window.
func (e *SLIEvaluator) Availability(scope string, start, end time.Time) float64 {
	agg := e.repo.Aggregate(scope, start, end)
	if agg.TotalRequests == 0 {
		return 100.0
	}
	return float64(agg.SuccessfulRequests) / float64(agg.TotalRequests) * 100
}

// LatencyCompliance returns the percentage of latency samples strictly below
// the configured threshold. This is threshold compliance, not a percentile.
func (e *SLIEvaluator) LatencyCompliance(scope string, start, end time.Time) float64 {
	agg := e.repo.Aggregate(scope, start, end)
	if len(agg.LatenciesMs) == 0 {
		return 100.0
	}

	var underThreshold int
	for _, sample := range agg.LatenciesMs {
		if sample < e.latencyThresholdMs {
			underThreshold++
		}
	}

	return float64(underThreshold) / float64(len(agg.LatenciesMs)) * 100
}

// ErrorRate returns the percentage of non-error requests in the window.
func (e *SLIEvaluator) ErrorRate(scope string, start, end time.Time) float64 {
	agg := e.repo.Aggregate(scope, start, end)
	if agg.TotalRequests == 0 {
		return 100.0
	}
	return float64(agg.TotalRequests-agg.ErrorCount) / float64(agg.TotalRequests) * 100
}

// Freshness returns the data freshness indicator for the window.
func (e *SLIEvaluator) Freshness(start, end time.Time) float64 {
	return FreshnessSLIValue
}

// Value computes the indicator identified by sliName over the window on the
// aggregate scope. The second return is false for unknown indicator names.
func (e *SLIEvaluator) Value(sliName string, start, end time.Time) (float64, bool) {
	switch sliName {
	case SLIAvailability:
		return e.Availability(model.ScopeAll, start, end), true
	case SLILatency:
		return e.LatencyCompliance(model.ScopeAll, start, end), true
	case SLIErrorRate:
		return e.ErrorRate(model.ScopeAll, start, end), true
	case SLIFreshness:
		return e.Freshness(start, end), true
	default:
		e.logger.Warnw("unknown SLI requested", "sli_name", sliName)
		return 0, false
	}
}
