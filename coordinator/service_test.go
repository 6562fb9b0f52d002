package coordinator_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/absmach/voicefed/coordinator"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/absmach/voicefed/pkg/mqtt"
	"github.com/absmach/voicefed/pkg/mqtt/mocks"
	"github.com/absmach/voicefed/pkg/storage"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var vocabulary = []string{"Anger", "Fear", "Happy", "Neutral", "Sad"}

type fixture struct {
	svc       coordinator.Service
	store     *fl.FileStore
	roundsDir string
	strategy  *switchStrategy
	launcher  *fakeLauncher
	repos     *storage.Repositories
}

// switchAggregator runs FedAvg, or fails while fail is set.
type switchAggregator struct {
	fail atomic.Bool
}

func (a *switchAggregator) Aggregate(updates []fl.Update) (fl.Params, error) {
	if a.fail.Load() {
		return fl.Params{}, errors.New("aggregation backend down")
	}

	return fl.NewFedAvgAggregator().Aggregate(updates)
}

// audioFeaturizer refuses empty samples and maps any other sample to a fixed
// feature vector.
type audioFeaturizer struct {
	calls atomic.Int32
}

func (a *audioFeaturizer) Featurize(_ context.Context, sample []byte) ([]float64, error) {
	a.calls.Add(1)
	if len(sample) == 0 {
		return nil, errors.New("empty audio sample")
	}

	return []float64{1, 1}, nil
}

func newService(t *testing.T, pubsub mqtt.PubSub) fixture {
	t.Helper()

	return newServiceWith(t, pubsub, nil, nil)
}

func newServiceWith(t *testing.T, pubsub mqtt.PubSub, strategy fl.AggregationStrategy, aggregator fl.Aggregator) fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := fl.NewFileStore(fl.StoreConfig{
		ModelsDir:      filepath.Join(dir, "models"),
		RoundsDir:      filepath.Join(dir, "rounds"),
		BootstrapEmpty: true,
		InitialParams:  fl.Params{W: []float64{0, 0}},
	})
	require.NoError(t, err)

	f := fixture{
		store:     store,
		roundsDir: filepath.Join(dir, "rounds"),
		strategy:  &switchStrategy{},
		launcher:  &fakeLauncher{},
		repos:     storage.NewMemoryRepositories(),
	}
	if strategy == nil {
		strategy = f.strategy
	}
	cfg := coordinator.Config{
		ModelType:       "VoiceBasedEmotionClassifier_CNN_Federated",
		ServerType:      "real_federated_learning_server",
		ListenerAddress: "localhost:8083",
		BatchSize:       5,
		KOfN:            2,
		Vocabulary:      vocabulary,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = coordinator.NewService(cfg, f.store, strategy, aggregator, f.repos, pubsub, f.launcher, logger)

	return f
}

func feedback(kind fl.FeedbackType) fl.FeedbackRecord {
	return fl.FeedbackRecord{
		UserID:         "user-1",
		OriginalLabel:  "Sad",
		ConfirmedLabel: "Happy",
		Confidence:     0.87,
		FeedbackType:   kind,
		RawSample:      []byte("RIFF"),
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	f := newService(t, nil)

	cases := []struct {
		desc string
		rec  fl.FeedbackRecord
		err  error
	}{
		{
			desc: "missing user id",
			rec:  fl.FeedbackRecord{FeedbackType: fl.Correct},
			err:  pkgerrors.ErrMissingUserID,
		},
		{
			desc: "invalid feedback type",
			rec:  fl.FeedbackRecord{UserID: "u", FeedbackType: "MAYBE"},
			err:  pkgerrors.ErrInvalidType,
		},
		{
			desc: "confidence above one",
			rec:  fl.FeedbackRecord{UserID: "u", FeedbackType: fl.Correct, Confidence: 1.2},
			err:  pkgerrors.ErrConfidence,
		},
		{
			desc: "negative confidence",
			rec:  fl.FeedbackRecord{UserID: "u", FeedbackType: fl.Correct, Confidence: -0.1},
			err:  pkgerrors.ErrConfidence,
		},
		{
			desc: "correct feedback without audio",
			rec:  fl.FeedbackRecord{UserID: "u", FeedbackType: fl.Correct, Confidence: 0.9, ConfirmedLabel: "Happy"},
			err:  pkgerrors.ErrMissingAudio,
		},
		{
			desc: "unsupported emotion",
			rec:  fl.FeedbackRecord{UserID: "u", FeedbackType: fl.Correct, ConfirmedLabel: "Bored"},
			err:  pkgerrors.ErrInvalidEmotion,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := f.svc.SubmitFeedback(context.Background(), tc.rec)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	page, err := f.svc.ListFeedback(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total, "invalid submissions must not be logged")
}

func TestSubmitFeedbackRejectedLeavesModel(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	for _, kind := range []fl.FeedbackType{fl.Incorrect, fl.Unknown, fl.Incorrect, fl.Incorrect, fl.Unknown, fl.Incorrect} {
		ack, err := f.svc.SubmitFeedback(ctx, feedback(kind))
		require.NoError(t, err)
		assert.True(t, ack.Success)
		assert.True(t, ack.ContributionAccepted)
		assert.False(t, ack.ModelUpdated)
		assert.False(t, ack.Eligible)
		assert.Equal(t, "Incorrect prediction feedback recorded - model protected", ack.Message)
		assert.Equal(t, fl.InitialVersion, ack.ModelVersion)
	}

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.QueueSize)
	assert.Equal(t, fl.InitialVersion, status.ModelVersion)
	assert.Zero(t, f.strategy.calls.Load())

	page, err := f.svc.ListFeedback(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), page.Total)
	for _, e := range page.Feedback {
		assert.False(t, e.Eligible)
		assert.NotEmpty(t, e.Record.ID)
	}
}

func TestSubmitFeedbackTriggersRound(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		ack, err := f.svc.SubmitFeedback(ctx, feedback(fl.Correct))
		require.NoError(t, err)
		assert.True(t, ack.Eligible)
		assert.False(t, ack.ModelUpdated)
		assert.Equal(t, i, ack.QueueSize)
		assert.Equal(t, 0, ack.FederatedRounds)
		assert.Equal(t, fl.InitialVersion, ack.ModelVersion)
		assert.Equal(t, "Correct prediction added to federated learning queue", ack.Message)
		assert.Equal(t, "Real federated averaging will improve your CNN model", ack.Impact)
	}

	ack, err := f.svc.SubmitFeedback(ctx, feedback(fl.Correct))
	require.NoError(t, err)
	assert.True(t, ack.ModelUpdated)
	assert.Equal(t, 0, ack.QueueSize)
	assert.Equal(t, 1, ack.FederatedRounds)
	assert.Equal(t, "v1.0.1", ack.ModelVersion)

	backups, err := f.store.ListBackups()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, backups)

	rounds, err := f.svc.ListRounds(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, rounds.Rounds, 1)
	assert.True(t, rounds.Rounds[0].Success)
	assert.Equal(t, fl.SourceFeedback, rounds.Rounds[0].Source)
	assert.Len(t, rounds.Rounds[0].RecordIDs, 5)
	assert.Equal(t, "v1.0.1", rounds.Rounds[0].ModelVersion)
}

func TestSubmitFeedbackBatchArithmetic(t *testing.T) {
	cases := []struct {
		desc     string
		eligible int
		rejected int
	}{
		{desc: "no eligible feedback", rejected: 7},
		{desc: "twelve eligible", eligible: 12, rejected: 3},
		{desc: "exactly three batches", eligible: 15},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			f := newService(t, nil)
			ctx := context.Background()
			for i := 0; i < tc.eligible+tc.rejected; i++ {
				kind := fl.Correct
				if i >= tc.eligible {
					kind = fl.Incorrect
				}
				_, err := f.svc.SubmitFeedback(ctx, feedback(kind))
				require.NoError(t, err)
			}

			status, err := f.svc.Status(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.eligible/5, status.UpdateCount)
			assert.Equal(t, fl.VersionFor(tc.eligible/5), status.ModelVersion)
			assert.Equal(t, tc.eligible%5, status.QueueSize)

			page, err := f.svc.ListFeedback(ctx, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, uint64(tc.eligible+tc.rejected), page.Total)
		})
	}
}

func TestSubmitFeedbackFailedRoundIsRetried(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()
	f.strategy.fail.Store(true)

	for i := 0; i < 5; i++ {
		_, err := f.svc.SubmitFeedback(ctx, feedback(fl.Correct))
		require.NoError(t, err)
	}

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, fl.InitialVersion, status.ModelVersion)
	assert.Equal(t, 5, status.QueueSize)

	rounds, err := f.svc.ListRounds(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, rounds.Rounds, 1)
	assert.False(t, rounds.Rounds[0].Success)
	assert.NotEmpty(t, rounds.Rounds[0].Error)

	f.strategy.fail.Store(false)
	ack, err := f.svc.SubmitFeedback(ctx, feedback(fl.Correct))
	require.NoError(t, err)
	assert.True(t, ack.ModelUpdated)
	assert.Equal(t, "v1.0.1", ack.ModelVersion)
	assert.Equal(t, 1, ack.QueueSize)
}

func TestSubmitFeedbackLocalUpdateStrategy(t *testing.T) {
	featurizer := &audioFeaturizer{}
	strategy := fl.NewLocalUpdateStrategy(featurizer, 0.5, nil)
	f := newServiceWith(t, nil, strategy, nil)
	ctx := context.Background()

	silent := feedback(fl.Correct)
	silent.RawSample = nil
	_, err := f.svc.SubmitFeedback(ctx, silent)
	assert.ErrorIs(t, err, pkgerrors.ErrMissingAudio)

	var updated int
	for i := 0; i < 19; i++ {
		ack, err := f.svc.SubmitFeedback(ctx, feedback(fl.Correct))
		require.NoError(t, err)
		if ack.ModelUpdated {
			updated++
		}
	}

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)
	assert.Equal(t, 3, status.UpdateCount)
	assert.Equal(t, "v1.0.3", status.ModelVersion)
	assert.Equal(t, 4, status.QueueSize)
	assert.Equal(t, int32(15), featurizer.calls.Load())
	for _, w := range f.store.Current().Params.W {
		assert.Greater(t, w, 0.0)
	}

	page, err := f.svc.ListFeedback(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(19), page.Total)
}

func TestSubmitFeedbackConcurrent(t *testing.T) {
	f := newService(t, nil)
	f.strategy.delay = 0

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := fl.Correct
			if i%4 == 0 {
				kind = fl.Incorrect
			}
			_, err := f.svc.SubmitFeedback(context.Background(), feedback(kind))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	status, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.strategy.max.Load())
	assert.Equal(t, 6, status.UpdateCount)
	assert.Equal(t, 0, status.QueueSize)
}

func TestSubmitFeedbackPublishesRound(t *testing.T) {
	pubsub := new(mocks.MockPubSub)
	pubsub.On("Publish", mock.Anything, mqtt.RoundsTopic, mock.Anything).Return(nil).Once()
	f := newService(t, pubsub)

	for i := 0; i < 5; i++ {
		_, err := f.svc.SubmitFeedback(context.Background(), feedback(fl.Correct))
		require.NoError(t, err)
	}

	pubsub.AssertExpectations(t)
}

func TestStartAggregationListener(t *testing.T) {
	pubsub := new(mocks.MockPubSub)
	pubsub.On("Subscribe", mock.Anything, mqtt.UpdatesTopic, mock.Anything).Return(nil).Once()
	f := newService(t, pubsub)
	ctx := context.Background()

	info, err := f.svc.StartAggregationListener(ctx)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8083", info.Address)

	info, err = f.svc.StartAggregationListener(ctx)
	require.NoError(t, err)
	assert.Contains(t, info.Message, "already running")

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.ListenerRunning)
	assert.Equal(t, int32(1), f.launcher.calls.Load())
	pubsub.AssertExpectations(t)
}

func TestStartAggregationListenerFailure(t *testing.T) {
	f := newService(t, nil)
	f.launcher.err = errBind

	_, err := f.svc.StartAggregationListener(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrListenerStart)

	status, err := f.svc.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, status.ListenerRunning)
	assert.Equal(t, "healthy", status.Status)
}

func update(round, participant string, w ...float64) fl.Update {
	weights := make([]any, len(w))
	for i, v := range w {
		weights[i] = v
	}

	return fl.Update{
		RoundID:       round,
		ParticipantID: participant,
		NumSamples:    1,
		Update:        map[string]any{"w": weights, "b": 0.0},
	}
}

func TestSubmitUpdate(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	status, err := f.svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2))
	require.NoError(t, err)
	assert.False(t, status.Completed)
	assert.Equal(t, 1, status.Received)
	assert.Equal(t, 2, status.KOfN)

	status, err = f.svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, "v1.0.1", status.ModelVersion)
	assert.Equal(t, []float64{2, 3}, f.store.Current().Params.W)

	_, err = f.svc.SubmitUpdate(ctx, update("r1", "p3", 5, 6))
	assert.ErrorIs(t, err, pkgerrors.ErrEntityExists)

	round, err := f.svc.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, round.Completed)
	assert.Len(t, round.Updates, 2)

	saved, err := f.store.LoadRound("r1")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.1", saved.ModelVersion)

	rounds, err := f.svc.ListRounds(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, rounds.Rounds, 1)
	assert.Equal(t, fl.SourceListener, rounds.Rounds[0].Source)
	assert.Equal(t, []string{"p1", "p2"}, rounds.Rounds[0].RecordIDs)
	assert.Equal(t, "r1", rounds.Rounds[0].RoundID)
}

func TestSubmitUpdateWeightShape(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2))
	require.NoError(t, err)

	cases := []struct {
		desc   string
		update fl.Update
	}{
		{desc: "shorter vector", update: update("r1", "p2", 3)},
		{desc: "longer vector", update: update("r1", "p2", 3, 4, 5)},
		{
			desc: "non-numeric weights",
			update: fl.Update{
				RoundID:       "r1",
				ParticipantID: "p2",
				NumSamples:    1,
				Update:        map[string]any{"w": "garbage"},
			},
		},
		{desc: "invalid round id", update: update("r1.b", "p2", 3, 4)},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := f.svc.SubmitUpdate(ctx, tc.update)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
		})
	}

	round, err := f.svc.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, round.Completed)
	assert.Len(t, round.Updates, 1)

	status, err := f.svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, []float64{2, 3}, f.store.Current().Params.W)
}

func TestSubmitUpdateShapeFromFirstUpdate(t *testing.T) {
	dir := t.TempDir()
	store, err := fl.NewFileStore(fl.StoreConfig{
		ModelsDir:      filepath.Join(dir, "models"),
		RoundsDir:      filepath.Join(dir, "rounds"),
		BootstrapEmpty: true,
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := coordinator.NewService(coordinator.Config{KOfN: 2}, store, nil, nil, nil, nil, &fakeLauncher{}, logger)
	ctx := context.Background()

	_, err = svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2, 3))
	require.NoError(t, err)

	_, err = svc.SubmitUpdate(ctx, update("r1", "p2", 1, 2))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)

	status, err := svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4, 5))
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, []float64{2, 3, 4}, store.Current().Params.W)
}

func TestSubmitUpdateFailedRoundReopens(t *testing.T) {
	agg := &switchAggregator{}
	f := newServiceWith(t, nil, nil, agg)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2))
	require.NoError(t, err)

	agg.fail.Store(true)
	_, err = f.svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	assert.ErrorIs(t, err, fl.ErrAggregation)

	round, err := f.svc.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, round.Completed)
	assert.NotEmpty(t, round.Error)
	require.Len(t, round.Updates, 1)
	assert.Equal(t, "p1", round.Updates[0].ParticipantID)
	assert.Equal(t, fl.InitialVersion, f.store.Current().Version)

	agg.fail.Store(false)
	status, err := f.svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Empty(t, status.Error)
	assert.Equal(t, "v1.0.1", status.ModelVersion)
	assert.Equal(t, []float64{2, 3}, f.store.Current().Params.W)

	rounds, err := f.svc.ListRounds(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, rounds.Rounds, 2)
	assert.False(t, rounds.Rounds[0].Success)
	assert.True(t, rounds.Rounds[1].Success)
	assert.Equal(t, "r1", rounds.Rounds[0].RoundID)
	assert.Equal(t, "r1", rounds.Rounds[1].RoundID)
	assert.NotEqual(t, rounds.Rounds[0].ID, rounds.Rounds[1].ID)
}

func TestSubmitUpdateCompletedRoundsLeaveMemory(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2))
	require.NoError(t, err)
	_, err = f.svc.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	require.NoError(t, err)

	_, err = f.svc.SubmitUpdate(ctx, update("r1", "p3", 5, 6))
	assert.ErrorIs(t, err, pkgerrors.ErrEntityExists)

	require.NoError(t, os.Remove(filepath.Join(f.roundsDir, "round_r1.json")))
	_, err = f.svc.GetRound(ctx, "r1")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestSubmitUpdateResumesPersistedRound(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, update("r1", "p1", 1, 2))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	restarted := coordinator.NewService(coordinator.Config{KOfN: 2}, f.store, nil, nil, nil, nil, &fakeLauncher{}, logger)

	status, err := restarted.SubmitUpdate(ctx, update("r1", "p2", 3, 4))
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, 2, status.Received)
	assert.Equal(t, []float64{2, 3}, f.store.Current().Params.W)
}

func TestSubmitUpdateDefaults(t *testing.T) {
	f := newService(t, nil)
	ctx := context.Background()

	first, err := f.svc.SubmitUpdate(ctx, update("", "", 1, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, first.RoundID)

	second, err := f.svc.SubmitUpdate(ctx, update("", "", 1, 1))
	require.NoError(t, err)
	assert.Equal(t, first.RoundID, second.RoundID)
	assert.True(t, second.Completed)

	round, err := f.svc.GetRound(ctx, first.RoundID)
	require.NoError(t, err)
	for _, u := range round.Updates {
		assert.NotEmpty(t, u.ParticipantID)
	}

	third, err := f.svc.SubmitUpdate(ctx, update("", "", 1, 1))
	require.NoError(t, err)
	assert.NotEqual(t, first.RoundID, third.RoundID)
}

func TestSubmitUpdateInvalid(t *testing.T) {
	f := newService(t, nil)

	cases := []struct {
		desc   string
		update fl.Update
	}{
		{desc: "no samples", update: fl.Update{RoundID: "r", Update: map[string]any{"w": []any{1.0}}}},
		{desc: "no weights", update: fl.Update{RoundID: "r", NumSamples: 1, Update: map[string]any{"b": 1.0}}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := f.svc.SubmitUpdate(context.Background(), tc.update)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
		})
	}
}

func TestGetRoundNotFound(t *testing.T) {
	f := newService(t, nil)

	_, err := f.svc.GetRound(context.Background(), "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestDecodeUpdate(t *testing.T) {
	u := update("r9", "p9", 1, 2)
	cborData, err := cbor.Marshal(u)
	require.NoError(t, err)

	cases := []struct {
		desc    string
		payload []byte
		err     error
	}{
		{desc: "json payload", payload: []byte(`{"round_id":"r9","participant_id":"p9","num_samples":1,"update":{"w":[1,2]}}`)},
		{desc: "cbor payload", payload: cborData},
		{desc: "garbage", payload: []byte{0xff, 0x00, 0x13}, err: pkgerrors.ErrInvalidData},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := coordinator.DecodeUpdate(tc.payload)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, "r9", got.RoundID)
			assert.Equal(t, "p9", got.ParticipantID)
			assert.Equal(t, 1, got.NumSamples)
			assert.Contains(t, got.Update, "w", fmt.Sprintf("payload %q", tc.desc))
		})
	}
}
