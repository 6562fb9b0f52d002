package fl_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	aggregatorOnce sync.Once
	aggregatorWasm []byte
	aggregatorErr  error
	errNoGo        error
)

// aggregatorModule compiles examples/wasm-aggregator for wasip1 once per test
// binary.
func aggregatorModule(t *testing.T) []byte {
	t.Helper()

	aggregatorOnce.Do(func() {
		gobin, err := exec.LookPath("go")
		if err != nil {
			errNoGo = err

			return
		}

		dir, err := os.MkdirTemp("", "wasm-aggregator")
		if err != nil {
			aggregatorErr = err

			return
		}
		defer os.RemoveAll(dir)

		out := filepath.Join(dir, "aggregator.wasm")
		cmd := exec.Command(gobin, "build", "-o", out, ".")
		cmd.Dir = filepath.Join("..", "..", "examples", "wasm-aggregator")
		cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0", "GOWORK=off")
		if output, err := cmd.CombinedOutput(); err != nil {
			aggregatorErr = fmt.Errorf("build failed: %w: %s", err, output)

			return
		}

		aggregatorWasm, aggregatorErr = os.ReadFile(out)
	})

	if errNoGo != nil {
		t.Skipf("go toolchain not available: %s", errNoGo)
	}
	require.NoError(t, aggregatorErr)

	return aggregatorWasm
}

func weighted(participant string, samples int, b float64, w ...float64) fl.Update {
	weights := make([]any, len(w))
	for i, v := range w {
		weights[i] = v
	}

	return fl.Update{
		RoundID:       "r1",
		ParticipantID: participant,
		NumSamples:    samples,
		Update:        map[string]any{"w": weights, "b": b},
	}
}

func TestWasmAggregatorAggregate(t *testing.T) {
	agg := fl.NewWasmAggregatorFromBinary(aggregatorModule(t), 30*time.Second)

	cases := []struct {
		desc    string
		updates []fl.Update
		w       []float64
		b       float64
		err     bool
	}{
		{
			desc:    "equal samples",
			updates: []fl.Update{weighted("p1", 1, 1, 1, 2), weighted("p2", 1, 3, 3, 4)},
			w:       []float64{2, 3},
			b:       2,
		},
		{
			desc:    "weighted by sample count",
			updates: []fl.Update{weighted("p1", 1, 1, 1, 2), weighted("p2", 3, 5, 5, 6)},
			w:       []float64{4, 5},
			b:       4,
		},
		{
			desc:    "no usable updates exits non-zero",
			updates: []fl.Update{weighted("p1", 0, 0, 1, 2)},
			err:     true,
		},
		{
			desc:    "mismatched vectors exit non-zero",
			updates: []fl.Update{weighted("p1", 1, 0, 1, 2), weighted("p2", 1, 0, 3)},
			err:     true,
		},
		{
			desc: "no updates",
			err:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			p, err := agg.Aggregate(tc.updates)
			if tc.err {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tc.w, p.W, 1e-9)
			assert.InDelta(t, tc.b, p.B, 1e-9)
			assert.Equal(t, "FedAvg-wasm", p.Metadata["algorithm"])
		})
	}
}

func TestWasmAggregatorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aggregator.wasm")
	require.NoError(t, os.WriteFile(path, aggregatorModule(t), 0o644))

	agg, err := fl.NewWasmAggregator(path, 0)
	require.NoError(t, err)

	p, err := agg.Aggregate([]fl.Update{weighted("p1", 2, 0, 2, 4), weighted("p2", 2, 2, 4, 8)})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 6}, p.W, 1e-9)

	_, err = fl.NewWasmAggregator(filepath.Join(t.TempDir(), "missing.wasm"), 0)
	assert.Error(t, err)
}

func TestWasmAggregatorInvalidModule(t *testing.T) {
	agg := fl.NewWasmAggregatorFromBinary([]byte("not a wasm module"), time.Second)

	_, err := agg.Aggregate([]fl.Update{weighted("p1", 1, 0, 1)})
	assert.Error(t, err)
}

func TestWasmStrategyMatchesFedAvg(t *testing.T) {
	wasm := fl.NewWasmAggregatorFromBinary(aggregatorModule(t), 30*time.Second)

	current := fl.ModelArtifact{Params: fl.Params{W: []float64{0, 0}, B: 1}}
	batch := []fl.FeedbackRecord{
		{ID: "a", Confidence: 1, RawSample: []byte("a")},
		{ID: "b", Confidence: 0.5, RawSample: []byte("b")},
	}
	featurizer := stubFeaturizer{features: map[string][]float64{
		"a": {10, 20},
		"b": {10, 0},
	}}

	want, err := fl.NewLocalUpdateStrategy(featurizer, 0.1, fl.NewFedAvgAggregator()).Aggregate(context.Background(), current, batch)
	require.NoError(t, err)

	got, err := fl.NewLocalUpdateStrategy(featurizer, 0.1, wasm).Aggregate(context.Background(), current, batch)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.W, got.W, 1e-9)
	assert.InDelta(t, want.B, got.B, 1e-9)
}
