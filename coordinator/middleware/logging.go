package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Health(ctx context.Context) (resp coordinator.ServiceStatus, err error) {
	return lm.svc.Health(ctx)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (resp coordinator.ServiceStatus, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("model_version", resp.ModelVersion),
			slog.Int("queue_size", resp.QueueSize),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get status failed", args...)

			return
		}
		lm.logger.Info("Get status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}

func (lm *loggingMiddleware) SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (resp coordinator.UpdateAck, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("feedback",
				slog.String("id", resp.UpdateID),
				slog.String("user_id", rec.UserID),
				slog.String("type", string(rec.FeedbackType)),
				slog.Bool("eligible", resp.Eligible),
				slog.Bool("model_updated", resp.ModelUpdated),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit feedback failed", args...)

			return
		}
		lm.logger.Info("Submit feedback completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitFeedback(ctx, rec)
}

func (lm *loggingMiddleware) StartAggregationListener(ctx context.Context) (resp coordinator.ListenerInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("address", resp.Address),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start aggregation listener failed", args...)

			return
		}
		lm.logger.Info("Start aggregation listener completed successfully", args...)
	}(time.Now())

	return lm.svc.StartAggregationListener(ctx)
}

func (lm *loggingMiddleware) SubmitUpdate(ctx context.Context, update fl.Update) (resp coordinator.RoundStatus, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("update",
				slog.String("round_id", resp.RoundID),
				slog.String("participant_id", update.ParticipantID),
				slog.Int("num_samples", update.NumSamples),
				slog.Int("received", resp.Received),
				slog.Bool("completed", resp.Completed),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit update failed", args...)

			return
		}
		lm.logger.Info("Submit update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdate(ctx, update)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, roundID string) (resp fl.RoundState, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("round_id", roundID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, roundID)
}

func (lm *loggingMiddleware) ListFeedback(ctx context.Context, offset, limit uint64) (resp coordinator.FeedbackPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List feedback failed", args...)

			return
		}
		lm.logger.Info("List feedback completed successfully", args...)
	}(time.Now())

	return lm.svc.ListFeedback(ctx, offset, limit)
}

func (lm *loggingMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (resp coordinator.RoundPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List rounds failed", args...)

			return
		}
		lm.logger.Info("List rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRounds(ctx, offset, limit)
}
