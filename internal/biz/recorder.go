package biz

import (
	"time"

	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// MetricsRepo is the hour-bucket store behind the request recorder,
// implemented by the data layer.
type MetricsRepo interface {
	// Record folds one request outcome into the (endpoint, hour) bucket and
	// the aggregate ("all", hour) bucket. It cannot fail.
	Record(endpoint string, statusCode int, latencyMs float64, ts time.Time)

	// Aggregate sums every hour bucket for scope whose hour falls within
	// [start, end] inclusive.
	Aggregate(scope string, start, end time.Time) model.WindowAggregate
}

// RecorderUsecase ingests individual request outcomes for SLI calculation.
// The web layer calls Record after every request completes, regardless of
// outcome.
type RecorderUsecase struct {
	repo   MetricsRepo
	nowFn  func() time.Time
	logger *log.Helper
}

// NewRecorderUsecase creates a new request recorder use case.
func NewRecorderUsecase(repo MetricsRepo, logger log.Logger) *RecorderUsecase {
	return &RecorderUsecase{
		repo:   repo,
		nowFn:  time.Now,
		logger: log.NewHelper(logger),
	}
}

// Record ingests a request outcome stamped with the current time.
func (uc *RecorderUsecase) Record(endpoint string, statusCode int, latencyMs float64) {
	uc.RecordAt(endpoint, statusCode, latencyMs, uc.nowFn())
}

// RecordAt ingests a request outcome with an explicit timestamp.
func (uc *RecorderUsecase) RecordAt(endpoint string, statusCode int, latencyMs float64, ts time.Time) {
	uc.repo.Record(endpoint, statusCode, latencyMs, ts)
}
