package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/absmach/voicefed/predictor"
)

var _ predictor.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    predictor.Service
}

func Logging(logger *slog.Logger, svc predictor.Service) predictor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Health(ctx context.Context) (predictor.Health, error) {
	return lm.svc.Health(ctx)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, audio []byte, userID string) (resp predictor.Prediction, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("prediction",
				slog.String("user_id", userID),
				slog.Int("audio_bytes", len(audio)),
				slog.String("emotion", resp.Emotion),
				slog.Float64("confidence", resp.Confidence),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, audio, userID)
}

func (lm *loggingMiddleware) ForwardFeedback(ctx context.Context, body []byte) (resp sdk.Relay, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("status_code", resp.StatusCode),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Forward feedback failed", args...)

			return
		}
		lm.logger.Info("Forward feedback completed successfully", args...)
	}(time.Now())

	return lm.svc.ForwardFeedback(ctx, body)
}
