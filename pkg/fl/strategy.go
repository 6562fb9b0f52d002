package fl

import (
	"context"
	"errors"
	"fmt"
)

const (
	StrategyIdentity = "identity"
	StrategyFedAvg   = "fedavg"
	StrategyWasm     = "wasm"

	DefaultLearningRate = 0.01
)

// Featurizer turns a raw audio sample into a feature vector. It is satisfied
// by the inference engine client.
type Featurizer interface {
	Featurize(ctx context.Context, sample []byte) ([]float64, error)
}

type identityStrategy struct{}

// NewIdentityStrategy re-applies the current parameters unchanged. Each round
// still produces a new artifact version.
func NewIdentityStrategy() AggregationStrategy {
	return identityStrategy{}
}

func (identityStrategy) Aggregate(_ context.Context, current ModelArtifact, batch []FeedbackRecord) (Params, error) {
	if len(batch) == 0 {
		return Params{}, ErrEmptyBatch
	}

	p := current.Params.Clone()
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	p.Metadata["algorithm"] = StrategyIdentity
	p.Metadata["num_updates"] = len(batch)

	return p, nil
}

type localUpdateStrategy struct {
	featurizer   Featurizer
	learningRate float64
	aggregator   Aggregator
}

// NewLocalUpdateStrategy derives one local update per feedback record from
// its features and combines them with the given aggregator.
// Local update: w_i = w + lr * confidence * (f_i - w).
func NewLocalUpdateStrategy(featurizer Featurizer, learningRate float64, aggregator Aggregator) AggregationStrategy {
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	if aggregator == nil {
		aggregator = NewFedAvgAggregator()
	}

	return &localUpdateStrategy{
		featurizer:   featurizer,
		learningRate: learningRate,
		aggregator:   aggregator,
	}
}

func (s *localUpdateStrategy) Aggregate(ctx context.Context, current ModelArtifact, batch []FeedbackRecord) (Params, error) {
	if len(batch) == 0 {
		return Params{}, ErrEmptyBatch
	}
	if s.featurizer == nil {
		return Params{}, errors.New("no featurizer configured")
	}

	updates := make([]Update, 0, len(batch))
	for _, rec := range batch {
		features, err := s.featurizer.Featurize(ctx, rec.RawSample)
		if err != nil {
			return Params{}, fmt.Errorf("failed to featurize record %s: %w", rec.ID, err)
		}
		if len(features) == 0 {
			return Params{}, fmt.Errorf("empty feature vector for record %s", rec.ID)
		}

		base := current.Params.W
		if len(base) == 0 {
			base = make([]float64, len(features))
		}

		step := s.learningRate * rec.Confidence
		w := make([]float64, len(base))
		for i := range base {
			var f float64
			if i < len(features) {
				f = features[i]
			}
			w[i] = base[i] + step*(f-base[i])
		}

		updates = append(updates, Update{
			RoundID:       rec.ID,
			ParticipantID: rec.UserID,
			NumSamples:    1,
			Update: map[string]any{
				"w": w,
				"b": current.Params.B,
			},
			ReceivedAt: rec.ReceivedAt,
		})
	}

	return s.aggregator.Aggregate(updates)
}
