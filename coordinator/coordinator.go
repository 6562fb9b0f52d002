package coordinator

import (
	"context"

	"github.com/absmach/voicefed/pkg/fl"
)

type Service interface {
	// Health always succeeds; it reports the same snapshot as Status.
	Health(ctx context.Context) (ServiceStatus, error)
	Status(ctx context.Context) (ServiceStatus, error)

	// SubmitFeedback validates, gates and logs a feedback record. Eligible
	// records are queued and may trigger an aggregation round.
	SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (UpdateAck, error)

	// StartAggregationListener is idempotent: once running, further calls
	// succeed without starting another listener.
	StartAggregationListener(ctx context.Context) (ListenerInfo, error)

	// SubmitUpdate adds a participant update to its listener round and
	// aggregates the round once enough updates have arrived.
	SubmitUpdate(ctx context.Context, update fl.Update) (RoundStatus, error)
	GetRound(ctx context.Context, roundID string) (fl.RoundState, error)

	ListFeedback(ctx context.Context, offset, limit uint64) (FeedbackPage, error)
	ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error)
}

type ServiceStatus struct {
	Status          string `json:"status"`
	ModelVersion    string `json:"model_version"`
	UpdateCount     int    `json:"update_count"`
	QueueSize       int    `json:"queue_size"`
	ModelLoaded     bool   `json:"model_loaded"`
	ListenerRunning bool   `json:"listener_running"`
	ListenerAddress string `json:"listener_address,omitempty"`
	ServerType      string `json:"server_type"`
	ModelType       string `json:"model_type"`
}

// UpdateAck acknowledges a feedback submission. QueueSize and
// FederatedRounds are only reported for eligible records.
type UpdateAck struct {
	Success              bool
	UpdateID             string
	ModelVersion         string
	ContributionAccepted bool
	ModelUpdated         bool
	Message              string
	Impact               string
	ModelType            string
	Eligible             bool
	QueueSize            int
	FederatedRounds      int
}

type ListenerInfo struct {
	Address string
	Message string
}

type RoundStatus struct {
	RoundID      string `json:"round_id"`
	Received     int    `json:"received"`
	KOfN         int    `json:"k_of_n"`
	Completed    bool   `json:"completed"`
	ModelVersion string `json:"model_version,omitempty"`
	Error        string `json:"error,omitempty"`
}

type FeedbackPage struct {
	Offset   uint64             `json:"offset"`
	Limit    uint64             `json:"limit"`
	Total    uint64             `json:"total"`
	Feedback []fl.FeedbackEntry `json:"feedback"`
}

type RoundPage struct {
	Offset uint64            `json:"offset"`
	Limit  uint64            `json:"limit"`
	Total  uint64            `json:"total"`
	Rounds []fl.RoundSummary `json:"rounds"`
}
