package biz

import (
	"fmt"
	"time"

	"RelGuard/internal/conf"
	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// recommendations maps a failing SLO name to the operator guidance shown on
// the dashboard. This is a static lookup, not derived from raw metrics.
var recommendations = map[string]string{
	"availability": "Investigate infrastructure issues and implement redundancy",
	"latency_p95":  "Optimize database queries and implement caching",
	"error_rate":   "Review error logs and implement better error handling",
	"freshness":    "Check database replication lag and query performance",
}

// ReportUsecase runs every configured SLO through the SLI evaluator and its
// error budget, folds in circuit breaker health, and produces the unified
// dashboard payload with alerts and recommendations.
type ReportUsecase struct {
	slos              []model.SLODefinition
	budgets           map[string]*ErrorBudget
	criticalThreshold float64

	sli      *SLIEvaluator
	registry *BreakerRegistry
	logger   *log.Helper
}

// NewReportUsecase creates the dashboard aggregator from the configured SLO
// catalogue. Each SLO gets its own error budget, created once and kept for
// the process lifetime.
func NewReportUsecase(c *conf.Reliability, sli *SLIEvaluator, registry *BreakerRegistry, logger log.Logger) *ReportUsecase {
	defs := c.Slos
	if len(defs) == 0 {
		defs = conf.DefaultSlos()
	}

	criticalThreshold := conf.DefaultBudgetCriticalThreshold
	if c.BudgetCriticalThreshold > 0 {
		criticalThreshold = c.BudgetCriticalThreshold
	}

	uc := &ReportUsecase{
		budgets:           make(map[string]*ErrorBudget, len(defs)),
		criticalThreshold: criticalThreshold,
		sli:               sli,
		registry:          registry,
		logger:            log.NewHelper(logger),
	}

	for _, def := range defs {
		slo := model.SLODefinition{
			Name:          def.Name,
			SLIName:       def.SliName,
			TargetPercent: def.TargetPercent,
			WindowDays:    def.WindowDays,
		}
		uc.slos = append(uc.slos, slo)
		uc.budgets[slo.Name] = NewErrorBudget(slo)
	}

	return uc
}

// EvaluateSLOs computes every SLO over its own window ending at now, charges
// the matching error budget, and returns per-SLO results keyed by name.
func (uc *ReportUsecase) EvaluateSLOs(now time.Time) map[string]model.SLOResult {
	results := make(map[string]model.SLOResult, len(uc.slos))

	for _, slo := range uc.slos {
		start := now.Add(-time.Duration(slo.WindowDays) * 24 * time.Hour)

		sliValue, ok := uc.sli.Value(slo.SLIName, start, now)
		if !ok {
			continue
		}

		budget := uc.budgets[slo.Name]
		consumed := budget.Consume(sliValue)

		status := model.SLOStatusPass
		if sliValue < slo.TargetPercent {
			status = model.SLOStatusFail
		}

		results[slo.Name] = model.SLOResult{
			SLOTarget:       slo.TargetPercent,
			SLIValue:        sliValue,
			Status:          status,
			BudgetConsumed:  consumed,
			BudgetRemaining: budget.Remaining(),
			IsCritical:      budget.IsCritical(uc.criticalThreshold),
		}
	}

	return results
}

// Evaluate produces the unified dashboard report at now. The payload's field
// set is the wire contract consumed by the status endpoint.
func (uc *ReportUsecase) Evaluate(now time.Time) *model.DashboardReport {
	results := uc.EvaluateSLOs(now)

	states := uc.registry.SnapshotAll()
	open := uc.registry.ListOpen()
	critical := uc.registry.ListCritical()

	report := &model.DashboardReport{
		Timestamp: now,
		Window:    fmt.Sprintf("%d days", uc.longestWindowDays()),
		SLOs:      results,
		CircuitBreakers: model.BreakerSummary{
			TotalCircuits:    len(states),
			OpenCircuits:     len(open),
			CriticalCircuits: len(critical),
			CircuitStates:    states,
		},
		Alerts:          []string{},
		Recommendations: []string{},
	}

	anyFail := false
	anyCriticalBudget := false

	// Walk the configured order so alerts and recommendations are stable.
	for _, slo := range uc.slos {
		result, ok := results[slo.Name]
		if !ok {
			continue
		}

		if result.Status == model.SLOStatusFail {
			anyFail = true
			report.Alerts = append(report.Alerts,
				fmt.Sprintf("SLO VIOLATION: %s - %.2f%% < %.2f%%", slo.Name, result.SLIValue, result.SLOTarget))
			if rec, found := recommendations[slo.Name]; found {
				report.Recommendations = append(report.Recommendations, rec)
			}
		}
		if result.IsCritical {
			anyCriticalBudget = true
			report.Alerts = append(report.Alerts,
				fmt.Sprintf("ERROR BUDGET CRITICAL: %s - %.2f%% remaining", slo.Name, result.BudgetRemaining))
		}
	}

	for _, name := range open {
		report.Alerts = append(report.Alerts,
			fmt.Sprintf("CIRCUIT BREAKER OPEN: %s - requests are failing fast", name))
	}
	for _, name := range critical {
		report.Alerts = append(report.Alerts,
			fmt.Sprintf("CIRCUIT BREAKER STUCK OPEN: %s - recovery trials are not succeeding", name))
	}

	switch {
	case len(critical) > 0 || anyCriticalBudget:
		report.OverallStatus = model.StatusCritical
	case len(open) > 0 || anyFail:
		report.OverallStatus = model.StatusDegraded
	default:
		report.OverallStatus = model.StatusHealthy
	}

	if report.OverallStatus != model.StatusHealthy {
		uc.logger.Warnw("reliability evaluation completed",
			"overall_status", report.OverallStatus,
			"alerts", len(report.Alerts))
	} else {
		uc.logger.Debugw("reliability evaluation completed", "overall_status", report.OverallStatus)
	}

	return report
}

// Alerts evaluates the SLOs at now and returns severity-classified alerts
// for the alerting endpoint. Stuck-open breakers and critical budgets are
// CRITICAL; failing SLOs and open breakers are WARNING.
func (uc *ReportUsecase) Alerts(now time.Time) *model.AlertsReport {
	results := uc.EvaluateSLOs(now)
	open := uc.registry.ListOpen()
	critical := uc.registry.ListCritical()

	criticalSet := make(map[string]bool, len(critical))
	for _, name := range critical {
		criticalSet[name] = true
	}

	report := &model.AlertsReport{
		Alerts:    []model.Alert{},
		Timestamp: now,
	}

	for _, slo := range uc.slos {
		result, ok := results[slo.Name]
		if !ok {
			continue
		}

		if result.Status == model.SLOStatusFail {
			report.Alerts = append(report.Alerts, model.Alert{
				Severity:  model.SeverityWarning,
				Component: slo.Name,
				Message:   fmt.Sprintf("SLO VIOLATION: %s - %.2f%% < %.2f%%", slo.Name, result.SLIValue, result.SLOTarget),
			})
		}
		if result.IsCritical {
			report.Alerts = append(report.Alerts, model.Alert{
				Severity:  model.SeverityCritical,
				Component: slo.Name,
				Message:   fmt.Sprintf("ERROR BUDGET CRITICAL: %s - %.2f%% remaining", slo.Name, result.BudgetRemaining),
			})
		}
	}

	for _, name := range open {
		severity := model.SeverityWarning
		message := fmt.Sprintf("CIRCUIT BREAKER OPEN: %s - requests are failing fast", name)
		if criticalSet[name] {
			severity = model.SeverityCritical
			message = fmt.Sprintf("CIRCUIT BREAKER STUCK OPEN: %s - recovery trials are not succeeding", name)
		}
		report.Alerts = append(report.Alerts, model.Alert{
			Severity:  severity,
			Component: name,
			Message:   message,
		})
	}

	report.TotalAlerts = len(report.Alerts)
	for _, alert := range report.Alerts {
		if alert.Severity == model.SeverityCritical {
			report.CriticalAlerts++
		}
	}

	return report
}

// ResetBudgets recreates every error budget. Exposed for tests and manual
// operator intervention; nothing resets budgets automatically.
func (uc *ReportUsecase) ResetBudgets() {
	for _, slo := range uc.slos {
		uc.budgets[slo.Name] = NewErrorBudget(slo)
	}
	uc.logger.Infow("error budgets reset", "count", len(uc.slos))
}

// longestWindowDays returns the widest configured SLO window, used for the
// dashboard's display window.
func (uc *ReportUsecase) longestWindowDays() int {
	longest := 0
	for _, slo := range uc.slos {
		if slo.WindowDays > longest {
			longest = slo.WindowDays
		}
	}
	return longest
}
