package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	healthEndpoint   = "/health"
	modelEndpoint    = "/model-info"
	listenerEndpoint = "/start-federated-server"
	feedbackEndpoint = "/federated-update"
	logEndpoint      = "/feedback"
	roundsEndpoint   = "/rounds"
)

type Health struct {
	Status            string `json:"status"`
	FederatedServer   bool   `json:"federated_server"`
	GlobalModelLoaded bool   `json:"global_model_loaded"`
	ModelVersion      string `json:"model_version"`
	UpdatesCount      int    `json:"updates_count"`
	ServerType        string `json:"server_type"`
}

type ModelInfo struct {
	ModelVersion           string `json:"model_version"`
	UpdateCount            int    `json:"update_count"`
	QueueSize              int    `json:"queue_size"`
	ModelLoaded            bool   `json:"model_loaded"`
	FederatedServerRunning bool   `json:"federated_server_running"`
}

type ListenerInfo struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ServerAddress string `json:"server_address"`
}

type Feedback struct {
	UserID           string  `json:"userId"`
	VoiceData        string  `json:"voiceData,omitempty"`
	ConfirmedEmotion string  `json:"confirmedEmotion"`
	OriginalEmotion  string  `json:"originalEmotion,omitempty"`
	Confidence       float64 `json:"confidence"`
	FeedbackType     string  `json:"feedbackType,omitempty"`
}

type UpdateAck struct {
	Success              bool   `json:"success"`
	UpdateID             string `json:"updateId"`
	ModelVersion         string `json:"modelVersion"`
	ContributionAccepted bool   `json:"contributionAccepted"`
	ModelUpdated         bool   `json:"modelUpdated"`
	Message              string `json:"message"`
	Impact               string `json:"impact"`
	ModelType            string `json:"modelType"`
	QueueSize            *int   `json:"queueSize,omitempty"`
	FederatedRounds      *int   `json:"federatedRounds,omitempty"`
}

type FeedbackEntry struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	OriginalEmotion  string    `json:"original_label"`
	ConfirmedEmotion string    `json:"confirmed_label"`
	Confidence       float64   `json:"confidence"`
	FeedbackType     string    `json:"feedback_type"`
	Eligible         bool      `json:"eligible"`
	Reason           string    `json:"reason,omitempty"`
	ReceivedAt       time.Time `json:"received_at"`
}

type FeedbackPage struct {
	Offset   uint64          `json:"offset"`
	Limit    uint64          `json:"limit"`
	Total    uint64          `json:"total"`
	Feedback []FeedbackEntry `json:"feedback"`
}

type Round struct {
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

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

func (sdk *coordSDK) Health(ctx context.Context) (Health, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.coordinatorURL+healthEndpoint, nil, http.StatusOK)
	if err != nil {
		return Health{}, err
	}

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return Health{}, err
	}

	return h, nil
}

func (sdk *coordSDK) ModelInfo(ctx context.Context) (ModelInfo, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.coordinatorURL+modelEndpoint, nil, http.StatusOK)
	if err != nil {
		return ModelInfo{}, err
	}

	var info ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return ModelInfo{}, err
	}

	return info, nil
}

func (sdk *coordSDK) StartAggregationListener(ctx context.Context) (ListenerInfo, error) {
	body, err := sdk.processRequest(ctx, http.MethodPost, sdk.coordinatorURL+listenerEndpoint, nil, http.StatusOK)
	if err != nil {
		return ListenerInfo{}, err
	}

	var l ListenerInfo
	if err := json.Unmarshal(body, &l); err != nil {
		return ListenerInfo{}, err
	}

	return l, nil
}

func (sdk *coordSDK) SubmitFeedback(ctx context.Context, fb Feedback) (UpdateAck, error) {
	data, err := json.Marshal(fb)
	if err != nil {
		return UpdateAck{}, err
	}

	body, err := sdk.processRequest(ctx, http.MethodPost, sdk.coordinatorURL+feedbackEndpoint, data, http.StatusOK)
	if err != nil {
		return UpdateAck{}, err
	}

	var ack UpdateAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return UpdateAck{}, err
	}

	return ack, nil
}

func (sdk *coordSDK) ForwardFeedback(ctx context.Context, body []byte) (Relay, error) {
	return sdk.do(ctx, http.MethodPost, sdk.coordinatorURL+feedbackEndpoint, body)
}

func (sdk *coordSDK) ListFeedback(ctx context.Context, offset, limit uint64) (FeedbackPage, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.coordinatorURL+logEndpoint+pageQuery(offset, limit), nil, http.StatusOK)
	if err != nil {
		return FeedbackPage{}, err
	}

	var page FeedbackPage
	if err := json.Unmarshal(body, &page); err != nil {
		return FeedbackPage{}, err
	}

	return page, nil
}

func (sdk *coordSDK) ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.coordinatorURL+roundsEndpoint+pageQuery(offset, limit), nil, http.StatusOK)
	if err != nil {
		return RoundPage{}, err
	}

	var page RoundPage
	if err := json.Unmarshal(body, &page); err != nil {
		return RoundPage{}, err
	}

	return page, nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
