package main

import (
	"time"

	"RelGuard/internal/biz"
	"RelGuard/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// NewEvaluationCron builds the periodic SLO evaluation job. Each run
// evaluates every configured SLO, charges the error budgets, and logs any
// alerts. The schedule comes from reliability.evaluation_cron (seconds
// field included, default every 5 minutes).
//
// The returned cron is not started; the application starts it on boot and
// stops it on shutdown.
func NewEvaluationCron(c *conf.Reliability, report *biz.ReportUsecase, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	spec := c.EvaluationCron
	if spec == "" {
		spec = conf.DefaultEvaluationCron
	}

	cr := cron.New(cron.WithSeconds())

	_, err := cr.AddFunc(spec, func() {
		rep := report.Evaluate(time.Now().UTC())

		if len(rep.Alerts) == 0 {
			helper.Debugw("scheduled reliability evaluation clean",
				"overall_status", rep.OverallStatus)
			return
		}

		for _, alert := range rep.Alerts {
			helper.Warnw("reliability alert", "alert", alert, "overall_status", rep.OverallStatus)
		}
	})
	if err != nil {
		helper.Errorw("failed to register SLO evaluation cron job", "spec", spec, "error", err)
		return nil
	}

	helper.Infow("SLO evaluation cron job registered", "spec", spec)

	return cr
}
