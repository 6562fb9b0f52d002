package fl

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RoundRunner executes one aggregation round: derive parameters, then commit
// them to the artifact store. It does not serialize rounds; callers hold the
// round lock.
type RoundRunner struct {
	store    ArtifactStore
	strategy AggregationStrategy
}

func NewRoundRunner(store ArtifactStore, strategy AggregationStrategy) *RoundRunner {
	if strategy == nil {
		strategy = NewIdentityStrategy()
	}

	return &RoundRunner{
		store:    store,
		strategy: strategy,
	}
}

func (r *RoundRunner) Run(ctx context.Context, batch []FeedbackRecord) AggregationRound {
	round := AggregationRound{
		ID:    uuid.NewString(),
		Batch: batch,
	}

	if !r.store.Loaded() {
		round.Err = errors.Join(ErrAggregation, ErrNotLoaded)

		return round
	}

	params, err := r.strategy.Aggregate(ctx, r.store.Current(), batch)
	if err != nil {
		round.Err = fmt.Errorf("%w: %w", ErrAggregation, err)

		return round
	}

	return r.commit(round, params)
}

// RunUpdates folds participant updates into a new artifact version.
func (r *RoundRunner) RunUpdates(ctx context.Context, roundID string, updates []Update, agg Aggregator) AggregationRound {
	round := AggregationRound{
		ID:      uuid.NewString(),
		RoundID: roundID,
	}

	if err := ctx.Err(); err != nil {
		round.Err = fmt.Errorf("%w: %w", ErrAggregation, err)

		return round
	}

	params, err := agg.Aggregate(updates)
	if err != nil {
		round.Err = fmt.Errorf("%w: %w", ErrAggregation, err)

		return round
	}

	return r.commit(round, params)
}

func (r *RoundRunner) commit(round AggregationRound, params Params) AggregationRound {
	if err := validateParams(r.store.Current().Params, params); err != nil {
		round.Err = fmt.Errorf("%w: %w", ErrAggregation, err)

		return round
	}

	artifact, err := r.store.Replace(params)
	if err != nil {
		round.Err = err

		return round
	}

	round.Result = artifact
	round.Success = true

	return round
}

// validateParams rejects parameter sets whose shape differs from the current
// model, unless the current model has no weights yet.
func validateParams(current, next Params) error {
	if len(current.W) > 0 && len(next.W) != len(current.W) {
		return fmt.Errorf("%w: expected %d weights, got %d", ErrInvalidParams, len(current.W), len(next.W))
	}

	return nil
}
