package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStrategy = errors.New("strategy failed")

// switchStrategy returns the current weights unchanged, or fails while fail is
// set. It also records the highest number of overlapping calls.
type switchStrategy struct {
	fail   atomic.Bool
	calls  atomic.Int32
	active atomic.Int32
	max    atomic.Int32
	delay  time.Duration
}

func (s *switchStrategy) Aggregate(_ context.Context, current fl.ModelArtifact, batch []fl.FeedbackRecord) (fl.Params, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.max.Load()
		if n <= m || s.max.CompareAndSwap(m, n) {
			break
		}
	}
	s.calls.Add(1)
	time.Sleep(s.delay)

	if s.fail.Load() {
		return fl.Params{}, errStrategy
	}

	return current.Params.Clone(), nil
}

func newFileStore(t *testing.T) *fl.FileStore {
	t.Helper()

	dir := t.TempDir()
	store, err := fl.NewFileStore(fl.StoreConfig{
		ModelsDir:      dir + "/models",
		RoundsDir:      dir + "/rounds",
		BootstrapEmpty: true,
		InitialParams:  fl.Params{W: []float64{0, 0}},
	})
	require.NoError(t, err)

	return store
}

func TestTriggerRunsFullBatches(t *testing.T) {
	cases := []struct {
		desc    string
		records int
		rounds  int
		left    int
	}{
		{desc: "below batch size", records: 4, rounds: 0, left: 4},
		{desc: "exactly one batch", records: 5, rounds: 1, left: 0},
		{desc: "two batches and a remainder", records: 13, rounds: 2, left: 3},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			store := newFileStore(t)
			q := coordinator.NewQueue()
			for i := 0; i < tc.records; i++ {
				q.Append(fl.FeedbackRecord{ID: "r"})
			}
			trigger := coordinator.NewTrigger(q, fl.NewRoundRunner(store, &switchStrategy{}), 5)

			rounds := trigger.MaybeRun(context.Background())
			assert.Len(t, rounds, tc.rounds)
			assert.Equal(t, tc.left, q.Len())
			assert.Equal(t, tc.rounds, store.Current().UpdateCount)
		})
	}
}

func TestTriggerRetainsFailedBatch(t *testing.T) {
	store := newFileStore(t)
	q := coordinator.NewQueue()
	strategy := &switchStrategy{}
	strategy.fail.Store(true)
	trigger := coordinator.NewTrigger(q, fl.NewRoundRunner(store, strategy), 5)

	for i := 0; i < 5; i++ {
		q.Append(fl.FeedbackRecord{ID: "r"})
	}

	rounds := trigger.MaybeRun(context.Background())
	require.Len(t, rounds, 1)
	assert.False(t, rounds[0].Success)
	assert.ErrorIs(t, rounds[0].Err, fl.ErrAggregation)
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, fl.InitialVersion, store.Current().Version)

	strategy.fail.Store(false)
	rounds = trigger.MaybeRun(context.Background())
	require.Len(t, rounds, 1)
	assert.True(t, rounds[0].Success)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, "v1.0.1", store.Current().Version)
}

func TestTriggerSerializesRounds(t *testing.T) {
	store := newFileStore(t)
	q := coordinator.NewQueue()
	strategy := &switchStrategy{delay: 5 * time.Millisecond}
	trigger := coordinator.NewTrigger(q, fl.NewRoundRunner(store, strategy), 5)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Append(fl.FeedbackRecord{ID: "r"})
			trigger.MaybeRun(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), strategy.max.Load())
	assert.Equal(t, int32(5), strategy.calls.Load())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, "v1.0.5", store.Current().Version)
}
