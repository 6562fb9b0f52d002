package storage

import (
	"context"

	"github.com/absmach/voicefed/pkg/fl"
)

// FeedbackRepository is the feedback log: every submission with the gate's
// verdict, kept for later analysis.
type FeedbackRepository interface {
	Create(ctx context.Context, e fl.FeedbackEntry) error
	Get(ctx context.Context, id string) (fl.FeedbackEntry, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.FeedbackEntry, uint64, error)
}

// RoundRepository keeps the history of aggregation rounds.
type RoundRepository interface {
	Create(ctx context.Context, r fl.RoundSummary) error
	List(ctx context.Context, offset, limit uint64) ([]fl.RoundSummary, uint64, error)
}
