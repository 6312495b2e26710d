// Package biz contains business logic layer implementations.
// For RelGuard this is the reliability engine itself: circuit breakers,
// request recording, SLI evaluation, error budgets and the dashboard report.
package biz

import (
	"RelGuard/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewRecorderUsecase,
	NewSLIEvaluator,
	NewBreakerRegistry,
	NewReportUsecase,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(MetricsRepo), new(*data.MetricStore)),
)
