package middleware

import (
	"context"

	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Health(ctx context.Context) (coordinator.ServiceStatus, error) {
	return tm.svc.Health(ctx)
}

func (tm *tracing) Status(ctx context.Context) (coordinator.ServiceStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "status")
	defer span.End()

	return tm.svc.Status(ctx)
}

func (tm *tracing) SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (coordinator.UpdateAck, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-feedback", trace.WithAttributes(
		attribute.String("user_id", rec.UserID),
		attribute.String("feedback_type", string(rec.FeedbackType)),
		attribute.String("confirmed_emotion", string(rec.ConfirmedLabel)),
	))
	defer span.End()

	return tm.svc.SubmitFeedback(ctx, rec)
}

func (tm *tracing) StartAggregationListener(ctx context.Context) (coordinator.ListenerInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "start-aggregation-listener")
	defer span.End()

	return tm.svc.StartAggregationListener(ctx)
}

func (tm *tracing) SubmitUpdate(ctx context.Context, update fl.Update) (coordinator.RoundStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.String("round_id", update.RoundID),
		attribute.String("participant_id", update.ParticipantID),
		attribute.Int("num_samples", update.NumSamples),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, update)
}

func (tm *tracing) GetRound(ctx context.Context, roundID string) (fl.RoundState, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.String("round_id", roundID),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, roundID)
}

func (tm *tracing) ListFeedback(ctx context.Context, offset, limit uint64) (coordinator.FeedbackPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-feedback", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListFeedback(ctx, offset, limit)
}

func (tm *tracing) ListRounds(ctx context.Context, offset, limit uint64) (coordinator.RoundPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRounds(ctx, offset, limit)
}
