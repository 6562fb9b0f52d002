package fl

import (
	"context"
	"fmt"
	"time"
)

const (
	VersionPrefix  = "v1.0."
	InitialVersion = VersionPrefix + "0"
)

type FeedbackType string

const (
	Correct   FeedbackType = "CORRECT"
	Incorrect FeedbackType = "INCORRECT"
	Unknown   FeedbackType = "UNKNOWN"
)

func (ft FeedbackType) Valid() bool {
	switch ft {
	case Correct, Incorrect, Unknown:
		return true
	default:
		return false
	}
}

type Emotion string

// FeedbackRecord is a user's confirmation or correction of a prior prediction.
// Records are immutable once ingested.
type FeedbackRecord struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	OriginalLabel  Emotion      `json:"original_label"`
	ConfirmedLabel Emotion      `json:"confirmed_label"`
	Confidence     float64      `json:"confidence"`
	FeedbackType   FeedbackType `json:"feedback_type"`
	RawSample      []byte       `json:"raw_sample,omitempty"`
	ReceivedAt     time.Time    `json:"received_at"`
}

// Params holds the model weights. W and B follow the layout used by
// participant updates: {"w": [...], "b": x}.
type Params struct {
	W        []float64      `json:"w"`
	B        float64        `json:"b"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p Params) Clone() Params {
	c := Params{B: p.B}
	if p.W != nil {
		c.W = make([]float64, len(p.W))
		copy(c.W, p.W)
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}

	return c
}

type ModelArtifact struct {
	Params      Params    `json:"params"`
	Version     string    `json:"version"`
	UpdateCount int       `json:"update_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func VersionFor(updateCount int) string {
	return fmt.Sprintf("%s%d", VersionPrefix, updateCount)
}

// Update is a participant contribution to a round.
type Update struct {
	RoundID       string         `json:"round_id"       cbor:"round_id"`
	ParticipantID string         `json:"participant_id" cbor:"participant_id"`
	NumSamples    int            `json:"num_samples"    cbor:"num_samples"`
	Metrics       map[string]any `json:"metrics"        cbor:"metrics"`
	Update        map[string]any `json:"update"         cbor:"update"`
	ReceivedAt    time.Time      `json:"received_at"    cbor:"received_at"`
}

// Weights returns the numeric weight vector carried under "w".
func (u Update) Weights() ([]float64, bool) {
	raw, ok := u.Update["w"]
	if !ok {
		return nil, false
	}

	return floats(raw)
}

type AggregationRound struct {
	ID string
	// RoundID names the listener round the attempt aggregated, if any.
	RoundID string
	Batch   []FeedbackRecord
	Result  ModelArtifact
	Success bool
	Err     error
}

// AggregationStrategy derives new parameters from the current artifact and a
// batch. Implementations must be deterministic for a given input.
type AggregationStrategy interface {
	Aggregate(ctx context.Context, current ModelArtifact, batch []FeedbackRecord) (Params, error)
}

// Aggregator combines participant updates into a single set of parameters.
type Aggregator interface {
	Aggregate(updates []Update) (Params, error)
}

type ArtifactStore interface {
	Current() ModelArtifact
	Replace(params Params) (ModelArtifact, error)
	Loaded() bool
}

// RoundState tracks participant updates collected for one listener round.
type RoundState struct {
	RoundID      string    `json:"round_id"`
	KOfN         int       `json:"k_of_n"`
	StartTime    time.Time `json:"start_time"`
	Updates      []Update  `json:"updates"`
	Completed    bool      `json:"completed"`
	ModelVersion string    `json:"model_version,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// FeedbackEntry is a submitted record together with the gate's verdict. Every
// submission is logged, eligible or not.
type FeedbackEntry struct {
	Record   FeedbackRecord `json:"record"`
	Eligible bool           `json:"eligible"`
	Reason   string         `json:"reason,omitempty"`
}

const (
	SourceFeedback = "feedback"
	SourceListener = "listener"
)

// RoundSummary is the persisted outcome of an aggregation round.
type RoundSummary struct {
	ID           string    `json:"id"`
	RoundID      string    `json:"round_id,omitempty"`
	Source       string    `json:"source"`
	RecordIDs    []string  `json:"record_ids"`
	Success      bool      `json:"success"`
	ModelVersion string    `json:"model_version,omitempty"`
	UpdateCount  int       `json:"update_count"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (r AggregationRound) Summary(source string) RoundSummary {
	ids := make([]string, len(r.Batch))
	for i, rec := range r.Batch {
		ids[i] = rec.ID
	}

	s := RoundSummary{
		ID:          r.ID,
		RoundID:     r.RoundID,
		Source:      source,
		RecordIDs:   ids,
		Success:     r.Success,
		CompletedAt: time.Now().UTC(),
	}
	if r.Success {
		s.ModelVersion = r.Result.Version
		s.UpdateCount = r.Result.UpdateCount
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}

	return s
}
