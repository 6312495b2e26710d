package biz

import (
	"sync"

	"RelGuard/internal/model"
)

// DefaultBudgetCriticalThreshold flags a budget critical when less than half
// of it remains.
const DefaultBudgetCriticalThreshold = 0.5

// ErrorBudget converts an SLO target and measured SLI values into consumed
// and remaining error budget. The budget total is the allowed percentage of
// shortfall (100 - target); consumption accumulates monotonically for the
// process lifetime and never auto-resets.
type ErrorBudget struct {
	slo model.SLODefinition

	mu          sync.Mutex
	budgetTotal float64
	consumed    float64
}

// NewErrorBudget creates the budget for one SLO definition.
func NewErrorBudget(slo model.SLODefinition) *ErrorBudget {
	return &ErrorBudget{
		slo:         slo,
		budgetTotal: 100.0 - slo.TargetPercent,
	}
}

// SLO returns the owning SLO definition.
func (b *ErrorBudget) SLO() model.SLODefinition {
	return b.slo
}

// Total returns the full budget in percentage points.
func (b *ErrorBudget) Total() float64 {
	return b.budgetTotal
}

// Consume charges the budget for one SLI measurement. When sliValue misses
// the target, the shortfall (target - sliValue) is added to the consumed
// budget and returned; otherwise nothing is consumed and 0 is returned.
func (b *ErrorBudget) Consume(sliValue float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sliValue >= b.slo.TargetPercent {
		return 0
	}

	delta := b.slo.TargetPercent - sliValue
	b.consumed += delta

	return delta
}

// Remaining returns the unconsumed budget, floored at zero.
func (b *ErrorBudget) Remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.budgetTotal - b.consumed
	if remaining < 0 {
		return 0
	}

	return remaining
}

// RemainingDays converts the remaining budget into days at the given daily
// burn rate. Returns 0 when dailyBudget is not positive.
func (b *ErrorBudget) RemainingDays(dailyBudget float64) float64 {
	if dailyBudget <= 0 {
		return 0
	}
	return b.Remaining() / dailyBudget
}

// IsCritical reports whether less than the given fraction of the budget
// remains. Non-positive thresholds fall back to the default of 0.5.
func (b *ErrorBudget) IsCritical(threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultBudgetCriticalThreshold
	}
	return b.Remaining() < b.budgetTotal*threshold
}
