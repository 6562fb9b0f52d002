package middleware

import (
	"context"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/absmach/voicefed/predictor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ predictor.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    predictor.Service
}

func Tracing(tracer trace.Tracer, svc predictor.Service) predictor.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Health(ctx context.Context) (predictor.Health, error) {
	return tm.svc.Health(ctx)
}

func (tm *tracing) Predict(ctx context.Context, audio []byte, userID string) (predictor.Prediction, error) {
	ctx, span := tm.tracer.Start(ctx, "predict", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.Int("audio_bytes", len(audio)),
	))
	defer span.End()

	return tm.svc.Predict(ctx, audio, userID)
}

func (tm *tracing) ForwardFeedback(ctx context.Context, body []byte) (sdk.Relay, error) {
	ctx, span := tm.tracer.Start(ctx, "forward-feedback", trace.WithAttributes(
		attribute.Int("body_bytes", len(body)),
	))
	defer span.End()

	return tm.svc.ForwardFeedback(ctx, body)
}
