package middleware

import (
	"context"
	"time"

	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Health(ctx context.Context) (coordinator.ServiceStatus, error) {
	return mm.svc.Health(ctx)
}

func (mm *metricsMiddleware) Status(ctx context.Context) (coordinator.ServiceStatus, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "status").Add(1)
		mm.latency.With("method", "status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Status(ctx)
}

func (mm *metricsMiddleware) SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (coordinator.UpdateAck, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-feedback").Add(1)
		mm.latency.With("method", "submit-feedback").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitFeedback(ctx, rec)
}

func (mm *metricsMiddleware) StartAggregationListener(ctx context.Context) (coordinator.ListenerInfo, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "start-aggregation-listener").Add(1)
		mm.latency.With("method", "start-aggregation-listener").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StartAggregationListener(ctx)
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, update fl.Update) (coordinator.RoundStatus, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, update)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, roundID string) (fl.RoundState, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, roundID)
}

func (mm *metricsMiddleware) ListFeedback(ctx context.Context, offset, limit uint64) (coordinator.FeedbackPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-feedback").Add(1)
		mm.latency.With("method", "list-feedback").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListFeedback(ctx, offset, limit)
}

func (mm *metricsMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (coordinator.RoundPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-rounds").Add(1)
		mm.latency.With("method", "list-rounds").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRounds(ctx, offset, limit)
}
