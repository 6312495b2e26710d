// Package service exposes the reliability engine over HTTP.
package service

import (
	"context"
	"net/http"
	"time"

	"RelGuard/internal/biz"
	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewReliabilityService,
)

// ReliabilityService serves the SRE status endpoints: the health dashboard,
// SLO evaluation results, circuit breaker states and alerts.
type ReliabilityService struct {
	report   *biz.ReportUsecase
	registry *biz.BreakerRegistry
	nowFn    func() time.Time
	logger   *log.Helper
}

// NewReliabilityService creates a new ReliabilityService instance.
func NewReliabilityService(report *biz.ReportUsecase, registry *biz.BreakerRegistry, logger log.Logger) *ReliabilityService {
	return &ReliabilityService{
		report:   report,
		registry: registry,
		nowFn:    time.Now,
		logger:   log.NewHelper(logger),
	}
}

// RegisterRoutes registers the /sre routes on the HTTP server.
func (s *ReliabilityService) RegisterRoutes(srv *khttp.Server) {
	r := srv.Route("/sre")
	r.GET("/health", s.health)
	r.GET("/slos", s.slos)
	r.GET("/circuit-breakers", s.circuitBreakers)
	r.GET("/alerts", s.alerts)
}

// respond runs fn through the server middleware chain (so the request is
// recorded like any other) and serializes the reply.
func respond(ctx khttp.Context, fn func(context.Context) (interface{}, error)) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return fn(c)
	})

	reply, err := h(ctx, nil)
	if err != nil {
		return err
	}

	return ctx.Result(http.StatusOK, reply)
}

// health serves the unified dashboard payload.
func (s *ReliabilityService) health(ctx khttp.Context) error {
	return respond(ctx, func(context.Context) (interface{}, error) {
		report := s.report.Evaluate(s.nowFn().UTC())

		s.logger.Debugw("health report served",
			"overall_status", report.OverallStatus,
			"alerts", len(report.Alerts))

		return report, nil
	})
}

// slos serves the per-SLO evaluation results only.
func (s *ReliabilityService) slos(ctx khttp.Context) error {
	return respond(ctx, func(context.Context) (interface{}, error) {
		now := s.nowFn().UTC()

		return map[string]any{
			"timestamp": now,
			"slos":      s.report.EvaluateSLOs(now),
		}, nil
	})
}

// circuitBreakers serves the breaker status payload.
func (s *ReliabilityService) circuitBreakers(ctx khttp.Context) error {
	return respond(ctx, func(context.Context) (interface{}, error) {
		states := s.registry.SnapshotAll()
		open := s.registry.ListOpen()
		critical := s.registry.ListCritical()

		return &model.BreakerStatusReport{
			CircuitBreakers:  states,
			OpenCircuits:     open,
			CriticalCircuits: critical,
			Summary: model.BreakerCounts{
				Total:    len(states),
				Open:     len(open),
				Critical: len(critical),
			},
			Timestamp: s.nowFn().UTC(),
		}, nil
	})
}

// alerts serves severity-classified alerts.
func (s *ReliabilityService) alerts(ctx khttp.Context) error {
	return respond(ctx, func(context.Context) (interface{}, error) {
		return s.report.Alerts(s.nowFn().UTC()), nil
	})
}
