package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/absmach/voicefed/pkg/mqtt"
	"github.com/absmach/voicefed/pkg/storage"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const (
	healthy     = "healthy"
	defaultKOfN = 1

	msgQueued    = "Correct prediction added to federated learning queue"
	msgUpdated   = "Correct prediction aggregated, federated model updated to %s"
	msgRetry     = "Correct prediction queued, aggregation round failed and will be retried"
	msgRejected  = "Incorrect prediction feedback recorded - model protected"
	msgListening = "Federated learning server started on %s"
	msgRunning   = "Federated learning server already running on %s"

	impactEligible = "Real federated averaging will improve your CNN model"
	impactRejected = "Negative feedback stored for analysis, federated model preserved"
)

// ArtifactStore is the model store plus persistence for listener rounds.
type ArtifactStore interface {
	fl.ArtifactStore
	SaveRound(state fl.RoundState) error
	LoadRound(roundID string) (fl.RoundState, error)
}

type Config struct {
	ModelType       string
	ServerType      string
	ListenerAddress string
	BatchSize       int
	// KOfN is the number of participant updates that completes a listener
	// round.
	KOfN       int
	BaseTopic  string
	Vocabulary []string
}

type service struct {
	cfg        Config
	store      ArtifactStore
	runner     *fl.RoundRunner
	aggregator fl.Aggregator
	queue      *Queue
	trigger    *Trigger
	listener   *Listener
	repos      *storage.Repositories
	pubsub     mqtt.PubSub
	names      namegenerator.NameGenerator
	logger     *slog.Logger

	mu     sync.Mutex
	rounds map[string]*fl.RoundState
	open   string
}

func NewService(
	cfg Config,
	store ArtifactStore,
	strategy fl.AggregationStrategy,
	aggregator fl.Aggregator,
	repos *storage.Repositories,
	pubsub mqtt.PubSub,
	launcher Launcher,
	logger *slog.Logger,
) Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.KOfN <= 0 {
		cfg.KOfN = defaultKOfN
	}
	if aggregator == nil {
		aggregator = fl.NewFedAvgAggregator()
	}
	if repos == nil {
		repos = storage.NewMemoryRepositories()
	}

	runner := fl.NewRoundRunner(store, strategy)
	queue := NewQueue()

	return &service{
		cfg:        cfg,
		store:      store,
		runner:     runner,
		aggregator: aggregator,
		queue:      queue,
		trigger:    NewTrigger(queue, runner, cfg.BatchSize),
		listener:   NewListener(cfg.ListenerAddress, launcher),
		repos:      repos,
		pubsub:     pubsub,
		names:      namegenerator.NewGenerator(),
		logger:     logger,
		rounds:     make(map[string]*fl.RoundState),
	}
}

func (svc *service) Health(ctx context.Context) (ServiceStatus, error) {
	return svc.Status(ctx)
}

func (svc *service) Status(_ context.Context) (ServiceStatus, error) {
	current := svc.store.Current()

	return ServiceStatus{
		Status:          healthy,
		ModelVersion:    current.Version,
		UpdateCount:     current.UpdateCount,
		QueueSize:       svc.queue.Len(),
		ModelLoaded:     svc.store.Loaded(),
		ListenerRunning: svc.listener.State() == ListenerRunning,
		ListenerAddress: svc.listener.Address(),
		ServerType:      svc.cfg.ServerType,
		ModelType:       svc.cfg.ModelType,
	}, nil
}

func (svc *service) SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (UpdateAck, error) {
	if err := svc.validate(rec); err != nil {
		return UpdateAck{}, err
	}
	rec.ID = uuid.NewString()
	rec.ReceivedAt = time.Now().UTC()

	decision := Admit(rec)
	if decision.Eligible && len(rec.RawSample) == 0 {
		return UpdateAck{}, pkgerrors.ErrMissingAudio
	}
	entry := fl.FeedbackEntry{Record: rec, Eligible: decision.Eligible, Reason: decision.Reason}
	if err := svc.repos.Feedback.Create(ctx, entry); err != nil {
		svc.logger.Warn("failed to log feedback", slog.String("id", rec.ID), slog.Any("error", err))
	}

	if !decision.Eligible {
		return UpdateAck{
			Success:              true,
			UpdateID:             rec.ID,
			ModelVersion:         svc.store.Current().Version,
			ContributionAccepted: true,
			Message:              msgRejected,
			Impact:               impactRejected,
			ModelType:            svc.cfg.ModelType,
		}, nil
	}

	svc.queue.Append(rec)
	rounds := svc.trigger.MaybeRun(ctx)

	ack := UpdateAck{
		Success:              true,
		UpdateID:             rec.ID,
		ContributionAccepted: true,
		Message:              msgQueued,
		Impact:               impactEligible,
		ModelType:            svc.cfg.ModelType,
		Eligible:             true,
	}
	for _, round := range rounds {
		svc.recordRound(ctx, round.Summary(fl.SourceFeedback))
		if !round.Success {
			svc.logger.Warn("aggregation round failed", slog.String("round_id", round.ID), slog.Any("error", round.Err))
			ack.Message = msgRetry

			continue
		}
		ack.ModelUpdated = true
		ack.Message = fmt.Sprintf(msgUpdated, round.Result.Version)
	}

	current := svc.store.Current()
	ack.ModelVersion = current.Version
	ack.QueueSize = svc.queue.Len()
	ack.FederatedRounds = current.UpdateCount

	return ack, nil
}

func (svc *service) StartAggregationListener(ctx context.Context) (ListenerInfo, error) {
	addr, launched, err := svc.listener.Start()
	if err != nil {
		return ListenerInfo{}, err
	}
	if !launched {
		return ListenerInfo{Address: addr, Message: fmt.Sprintf(msgRunning, addr)}, nil
	}

	if svc.pubsub != nil {
		topic := mqtt.Topic(svc.cfg.BaseTopic, mqtt.UpdatesTopic)
		if err := svc.pubsub.Subscribe(ctx, topic, svc.handleUpdate); err != nil {
			svc.logger.Warn("failed to subscribe to participant updates", slog.String("topic", topic), slog.Any("error", err))
		}
	}

	return ListenerInfo{Address: addr, Message: fmt.Sprintf(msgListening, addr)}, nil
}

func (svc *service) SubmitUpdate(ctx context.Context, update fl.Update) (RoundStatus, error) {
	if update.NumSamples <= 0 {
		return RoundStatus{}, fmt.Errorf("%w: num_samples must be positive", pkgerrors.ErrInvalidData)
	}
	weights, ok := update.Weights()
	if !ok {
		return RoundStatus{}, fmt.Errorf("%w: update weights must be a numeric array", pkgerrors.ErrInvalidData)
	}
	if update.RoundID != "" && !fl.ValidRoundID(update.RoundID) {
		return RoundStatus{}, fmt.Errorf("%w: invalid round id %q", pkgerrors.ErrInvalidData, update.RoundID)
	}
	if update.ParticipantID == "" {
		update.ParticipantID = svc.names.Generate()
	}
	update.ReceivedAt = time.Now().UTC()
	modelSize := len(svc.store.Current().Params.W)

	svc.mu.Lock()
	if update.RoundID == "" {
		if svc.open == "" {
			svc.open = "round-" + uuid.NewString()
		}
		update.RoundID = svc.open
	}
	state, err := svc.roundFor(update.RoundID)
	if err != nil {
		svc.mu.Unlock()

		return RoundStatus{}, err
	}

	expected := modelSize
	if expected == 0 && len(state.Updates) > 0 {
		first, _ := state.Updates[0].Weights()
		expected = len(first)
	}
	if expected > 0 && len(weights) != expected {
		svc.mu.Unlock()

		return RoundStatus{}, fmt.Errorf("%w: expected %d weights, got %d", pkgerrors.ErrInvalidData, expected, len(weights))
	}

	state.Updates = append(state.Updates, update)
	ready := len(state.Updates) >= state.KOfN
	wasOpen := svc.open == state.RoundID
	if ready {
		// Later updates for this round are refused while it aggregates.
		state.Completed = true
		if wasOpen {
			svc.open = ""
		}
	}
	snapshot := cloneRound(state)
	svc.mu.Unlock()

	if !ready {
		svc.saveRound(snapshot)

		return statusOf(snapshot), nil
	}

	var round fl.AggregationRound
	svc.trigger.Exclusive(func() {
		round = svc.runner.RunUpdates(ctx, snapshot.RoundID, snapshot.Updates, svc.aggregator)
	})

	svc.mu.Lock()
	if round.Success {
		state.ModelVersion = round.Result.Version
		state.Error = ""
	} else {
		// The round reopens without the triggering update, which the
		// participant is expected to resubmit.
		state.Completed = false
		state.Error = round.Err.Error()
		state.Updates = state.Updates[:len(state.Updates)-1]
		if wasOpen && svc.open == "" {
			svc.open = state.RoundID
		}
	}
	snapshot = cloneRound(state)
	svc.mu.Unlock()

	persisted := svc.saveRound(snapshot)
	if round.Success && persisted {
		svc.mu.Lock()
		delete(svc.rounds, snapshot.RoundID)
		svc.mu.Unlock()
	}

	summary := round.Summary(fl.SourceListener)
	summary.RecordIDs = make([]string, 0, len(snapshot.Updates)+1)
	for _, u := range snapshot.Updates {
		summary.RecordIDs = append(summary.RecordIDs, u.ParticipantID)
	}
	if !round.Success {
		summary.RecordIDs = append(summary.RecordIDs, update.ParticipantID)
	}
	svc.recordRound(ctx, summary)

	if !round.Success {
		svc.logger.Warn("listener round failed", slog.String("round_id", round.RoundID), slog.String("attempt_id", round.ID), slog.Any("error", round.Err))

		return RoundStatus{}, round.Err
	}

	return statusOf(snapshot), nil
}

// roundFor returns the open round state for roundID, resuming a persisted
// round when it is no longer held in memory. Callers hold svc.mu.
func (svc *service) roundFor(roundID string) (*fl.RoundState, error) {
	if state, ok := svc.rounds[roundID]; ok {
		if state.Completed {
			return nil, fmt.Errorf("%w: round %s already completed", pkgerrors.ErrEntityExists, roundID)
		}

		return state, nil
	}

	state := &fl.RoundState{
		RoundID:   roundID,
		KOfN:      svc.cfg.KOfN,
		StartTime: time.Now().UTC(),
	}
	if saved, err := svc.store.LoadRound(roundID); err == nil {
		if saved.Completed {
			return nil, fmt.Errorf("%w: round %s already completed", pkgerrors.ErrEntityExists, roundID)
		}
		state = &saved
	}
	svc.rounds[roundID] = state

	return state, nil
}

func (svc *service) saveRound(state fl.RoundState) bool {
	if err := svc.store.SaveRound(state); err != nil {
		svc.logger.Warn("failed to persist round", slog.String("round_id", state.RoundID), slog.Any("error", err))

		return false
	}

	return true
}

func (svc *service) GetRound(_ context.Context, roundID string) (fl.RoundState, error) {
	svc.mu.Lock()
	state, ok := svc.rounds[roundID]
	if ok {
		snapshot := cloneRound(state)
		svc.mu.Unlock()

		return snapshot, nil
	}
	svc.mu.Unlock()

	saved, err := svc.store.LoadRound(roundID)
	if err != nil {
		return fl.RoundState{}, errors.Join(pkgerrors.ErrNotFound, err)
	}

	return saved, nil
}

func (svc *service) ListFeedback(ctx context.Context, offset, limit uint64) (FeedbackPage, error) {
	entries, total, err := svc.repos.Feedback.List(ctx, offset, limit)
	if err != nil {
		return FeedbackPage{}, err
	}

	return FeedbackPage{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Feedback: entries,
	}, nil
}

func (svc *service) ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error) {
	rounds, total, err := svc.repos.Rounds.List(ctx, offset, limit)
	if err != nil {
		return RoundPage{}, err
	}

	return RoundPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Rounds: rounds,
	}, nil
}

func (svc *service) validate(rec fl.FeedbackRecord) error {
	if rec.UserID == "" {
		return pkgerrors.ErrMissingUserID
	}
	if !rec.FeedbackType.Valid() {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidType, rec.FeedbackType)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		return pkgerrors.ErrConfidence
	}
	for _, label := range []fl.Emotion{rec.ConfirmedLabel, rec.OriginalLabel} {
		if label != "" && !svc.supports(label) {
			return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidEmotion, label)
		}
	}

	return nil
}

func (svc *service) supports(label fl.Emotion) bool {
	if len(svc.cfg.Vocabulary) == 0 {
		return true
	}
	for _, v := range svc.cfg.Vocabulary {
		if v == string(label) {
			return true
		}
	}

	return false
}

func (svc *service) recordRound(ctx context.Context, summary fl.RoundSummary) {
	if err := svc.repos.Rounds.Create(ctx, summary); err != nil {
		svc.logger.Warn("failed to record round", slog.String("round_id", summary.ID), slog.Any("error", err))
	}
	if !summary.Success || svc.pubsub == nil {
		return
	}

	msg := map[string]any{
		"round_id":      summary.ID,
		"source":        summary.Source,
		"model_version": summary.ModelVersion,
		"update_count":  summary.UpdateCount,
		"timestamp":     summary.CompletedAt,
	}
	topic := mqtt.Topic(svc.cfg.BaseTopic, mqtt.RoundsTopic)
	if err := svc.pubsub.Publish(ctx, topic, msg); err != nil {
		svc.logger.Warn("failed to publish round notification", slog.String("topic", topic), slog.Any("error", err))
	}
}

// handleUpdate accepts participant updates published over MQTT, encoded as
// JSON or CBOR.
func (svc *service) handleUpdate(topic string, payload []byte) error {
	update, err := DecodeUpdate(payload)
	if err != nil {
		return fmt.Errorf("invalid update on %s: %w", topic, err)
	}
	if _, err := svc.SubmitUpdate(context.Background(), update); err != nil {
		return err
	}

	return nil
}

// DecodeUpdate parses a participant update, trying JSON first and CBOR second.
func DecodeUpdate(payload []byte) (fl.Update, error) {
	var update fl.Update
	jsonErr := json.Unmarshal(payload, &update)
	if jsonErr == nil {
		return update, nil
	}

	update = fl.Update{}
	if err := cbor.Unmarshal(payload, &update); err != nil {
		return fl.Update{}, errors.Join(pkgerrors.ErrInvalidData, jsonErr, err)
	}

	return update, nil
}

func cloneRound(state *fl.RoundState) fl.RoundState {
	c := *state
	c.Updates = make([]fl.Update, len(state.Updates))
	copy(c.Updates, state.Updates)

	return c
}

func statusOf(state fl.RoundState) RoundStatus {
	return RoundStatus{
		RoundID:      state.RoundID,
		Received:     len(state.Updates),
		KOfN:         state.KOfN,
		Completed:    state.Completed,
		ModelVersion: state.ModelVersion,
		Error:        state.Error,
	}
}
