package middleware

import (
	"context"
	"time"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/absmach/voicefed/predictor"
	"github.com/go-kit/kit/metrics"
)

var _ predictor.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     predictor.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc predictor.Service) predictor.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Health(ctx context.Context) (predictor.Health, error) {
	return mm.svc.Health(ctx)
}

func (mm *metricsMiddleware) Predict(ctx context.Context, audio []byte, userID string) (predictor.Prediction, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "predict").Add(1)
		mm.latency.With("method", "predict").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Predict(ctx, audio, userID)
}

func (mm *metricsMiddleware) ForwardFeedback(ctx context.Context, body []byte) (sdk.Relay, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "forward-feedback").Add(1)
		mm.latency.With("method", "forward-feedback").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ForwardFeedback(ctx, body)
}
