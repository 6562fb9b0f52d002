package fl

import (
	"fmt"
	"math"
)

type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(updates []Update) (Params, error) {
	if len(updates) == 0 {
		return Params{}, ErrNoUpdates
	}

	var (
		aggregatedW  []float64
		aggregatedB  float64
		totalSamples int64
		sized        bool
	)

	for _, update := range updates {
		if update.Update == nil || update.NumSamples <= 0 {
			continue
		}

		if totalSamples > math.MaxInt64-int64(update.NumSamples) {
			return Params{}, ErrOverflow
		}
		weight := float64(update.NumSamples)
		totalSamples += int64(update.NumSamples)

		if _, ok := update.Update["w"]; ok {
			w, ok := update.Weights()
			if !ok {
				return Params{}, fmt.Errorf("%w: participant %s sent non-numeric weights", ErrInvalidParams, update.ParticipantID)
			}
			if !sized {
				aggregatedW = make([]float64, len(w))
				sized = true
			}
			if len(w) != len(aggregatedW) {
				return Params{}, fmt.Errorf("%w: participant %s sent %d weights, expected %d", ErrInvalidParams, update.ParticipantID, len(w), len(aggregatedW))
			}
			for i, v := range w {
				aggregatedW[i] += v * weight
			}
		}

		if b, ok := number(update.Update["b"]); ok {
			aggregatedB += b * weight
		}
	}

	if totalSamples == 0 {
		return Params{}, ErrNoUpdates
	}

	weightNorm := float64(totalSamples)
	for i := range aggregatedW {
		aggregatedW[i] /= weightNorm
	}
	aggregatedB /= weightNorm

	return Params{
		W: aggregatedW,
		B: aggregatedB,
		Metadata: map[string]any{
			"total_samples": totalSamples,
			"num_updates":   len(updates),
			"algorithm":     "FedAvg",
		},
	}, nil
}

// floats accepts both decoded JSON/CBOR arrays and in-process slices.
func floats(v any) ([]float64, bool) {
	switch w := v.(type) {
	case []float64:
		return w, true
	case []any:
		out := make([]float64, len(w))
		for i, e := range w {
			f, ok := number(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}

		return out, true
	default:
		return nil, false
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
