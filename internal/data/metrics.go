// Package data provides data access layer implementations.
// For the reliability engine this is an in-memory hour-bucket store;
// nothing here is persisted durably.
package data

import (
	"fmt"
	"sync"
	"time"

	"RelGuard/internal/conf"
	"RelGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// bucketHourLayout formats the hour part of a bucket key, e.g.
// "all_2026-08-25-14" for the aggregate scope at 14:00 UTC.
const bucketHourLayout = "2006-01-02-15"

// maxBuckets bounds the number of live hour buckets. 31 days of hourly
// buckets for the aggregate scope is 744; the remainder is headroom for
// per-endpoint scopes.
const maxBuckets = 16384

// metricBucket accumulates request outcomes for one (scope, hour) pair.
// Counters are guarded by the bucket's own mutex so concurrent recorders
// never lose updates.
type metricBucket struct {
	mu                 sync.Mutex
	totalRequests      int64
	successfulRequests int64
	errorCount         int64
	latenciesMs        []float64
}

// apply folds one request outcome into the bucket.
func (b *metricBucket) apply(rec model.RequestRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++
	if rec.IsSuccess() {
		b.successfulRequests++
	} else {
		b.errorCount++
	}
	b.latenciesMs = append(b.latenciesMs, rec.LatencyMs)
}

// snapshot returns a point-in-time copy of the bucket's counters and samples.
func (b *metricBucket) snapshot() model.WindowAggregate {
	b.mu.Lock()
	defer b.mu.Unlock()

	samples := make([]float64, len(b.latenciesMs))
	copy(samples, b.latenciesMs)

	return model.WindowAggregate{
		TotalRequests:      b.totalRequests,
		SuccessfulRequests: b.successfulRequests,
		ErrorCount:         b.errorCount,
		LatenciesMs:        samples,
	}
}

// MetricStore aggregates request outcomes into per-hour buckets, one per
// endpoint scope plus one aggregate "all" scope. Buckets older than the
// configured retention are evicted, which bounds memory over the process
// lifetime while keeping every reporting window intact.
type MetricStore struct {
	mu      sync.Mutex // guards bucket creation
	buckets *expirable.LRU[string, *metricBucket]
	logger  *log.Helper
}

// NewMetricStore creates the hour-bucket store. Retention comes from the
// reliability configuration and must cover the longest SLO window.
func NewMetricStore(c *conf.Reliability, logger log.Logger) *MetricStore {
	retention := conf.DefaultRetention
	if c != nil && c.Retention != nil && c.Retention.AsDuration() > 0 {
		retention = c.Retention.AsDuration()
	}

	return &MetricStore{
		buckets: expirable.NewLRU[string, *metricBucket](maxBuckets, nil, retention),
		logger:  log.NewHelper(logger),
	}
}

// Record folds one request outcome into the bucket for (endpoint, hour) and
// the aggregate bucket for ("all", hour). It never fails; malformed inputs
// such as negative latencies are accepted as-is and simply skew aggregates.
func (s *MetricStore) Record(endpoint string, statusCode int, latencyMs float64, ts time.Time) {
	rec := model.RequestRecord{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		LatencyMs:  latencyMs,
		Timestamp:  ts.UTC(),
	}

	for _, scope := range []string{endpoint, model.ScopeAll} {
		s.bucket(bucketKey(scope, rec.Timestamp)).apply(rec)
	}
}

// Aggregate sums every hour bucket for scope whose hour falls within
// [start, end] inclusive, walking hour by hour. It returns a zeroed
// aggregate when no buckets exist in range.
func (s *MetricStore) Aggregate(scope string, start, end time.Time) model.WindowAggregate {
	var agg model.WindowAggregate

	for cur := start.UTC(); !cur.After(end.UTC()); cur = cur.Add(time.Hour) {
		// Peek keeps reads from refreshing bucket recency.
		bucket, ok := s.buckets.Peek(bucketKey(scope, cur))
		if !ok {
			continue
		}

		snap := bucket.snapshot()
		agg.TotalRequests += snap.TotalRequests
		agg.SuccessfulRequests += snap.SuccessfulRequests
		agg.ErrorCount += snap.ErrorCount
		agg.LatenciesMs = append(agg.LatenciesMs, snap.LatenciesMs...)
	}

	return agg
}

// BucketCount returns the number of live hour buckets, for reporting.
func (s *MetricStore) BucketCount() int {
	return s.buckets.Len()
}

// bucket returns the live bucket for key, creating it on first use.
func (s *MetricStore) bucket(key string) *metricBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets.Get(key); ok {
		return b
	}

	b := &metricBucket{}
	if evicted := s.buckets.Add(key, b); evicted {
		s.logger.Debugw("evicted oldest metric bucket at capacity", "capacity", maxBuckets)
	}

	return b
}

// bucketKey builds the store key for one scope and hour.
func bucketKey(scope string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", scope, ts.UTC().Format(bucketHourLayout))
}
