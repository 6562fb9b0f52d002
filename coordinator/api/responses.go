package api

import (
	"net/http"
	"time"

	"github.com/absmach/supermq"
	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
)

var (
	_ supermq.Response = (*healthRes)(nil)
	_ supermq.Response = (*modelInfoRes)(nil)
	_ supermq.Response = (*listenerRes)(nil)
	_ supermq.Response = (*ackRes)(nil)
	_ supermq.Response = (*feedbackPageRes)(nil)
	_ supermq.Response = (*roundPageRes)(nil)
	_ supermq.Response = (*roundStatusRes)(nil)
	_ supermq.Response = (*roundRes)(nil)
)

type healthRes struct {
	Status            string `json:"status"`
	FederatedServer   bool   `json:"federated_server"`
	GlobalModelLoaded bool   `json:"global_model_loaded"`
	ModelVersion      string `json:"model_version"`
	UpdatesCount      int    `json:"updates_count"`
	ServerType        string `json:"server_type"`
}

func (res healthRes) Code() int {
	return http.StatusOK
}

func (res healthRes) Headers() map[string]string {
	return map[string]string{}
}

func (res healthRes) Empty() bool {
	return false
}

type modelInfoRes struct {
	ModelVersion           string `json:"model_version"`
	UpdateCount            int    `json:"update_count"`
	QueueSize              int    `json:"queue_size"`
	ModelLoaded            bool   `json:"model_loaded"`
	FederatedServerRunning bool   `json:"federated_server_running"`
}

func (res modelInfoRes) Code() int {
	return http.StatusOK
}

func (res modelInfoRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelInfoRes) Empty() bool {
	return false
}

type listenerRes struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ServerAddress string `json:"server_address"`
}

func (res listenerRes) Code() int {
	return http.StatusOK
}

func (res listenerRes) Headers() map[string]string {
	return map[string]string{}
}

func (res listenerRes) Empty() bool {
	return false
}

type ackRes struct {
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

func newAckRes(ack coordinator.UpdateAck) ackRes {
	res := ackRes{
		Success:              ack.Success,
		UpdateID:             ack.UpdateID,
		ModelVersion:         ack.ModelVersion,
		ContributionAccepted: ack.ContributionAccepted,
		ModelUpdated:         ack.ModelUpdated,
		Message:              ack.Message,
		Impact:               ack.Impact,
		ModelType:            ack.ModelType,
	}
	if ack.Eligible {
		queueSize, rounds := ack.QueueSize, ack.FederatedRounds
		res.QueueSize = &queueSize
		res.FederatedRounds = &rounds
	}

	return res
}

func (res ackRes) Code() int {
	return http.StatusOK
}

func (res ackRes) Headers() map[string]string {
	return map[string]string{}
}

func (res ackRes) Empty() bool {
	return false
}

type feedbackEntryRes struct {
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

type feedbackPageRes struct {
	Offset   uint64             `json:"offset"`
	Limit    uint64             `json:"limit"`
	Total    uint64             `json:"total"`
	Feedback []feedbackEntryRes `json:"feedback"`
}

func newFeedbackPageRes(page coordinator.FeedbackPage) feedbackPageRes {
	res := feedbackPageRes{
		Offset:   page.Offset,
		Limit:    page.Limit,
		Total:    page.Total,
		Feedback: make([]feedbackEntryRes, len(page.Feedback)),
	}
	for i, e := range page.Feedback {
		res.Feedback[i] = feedbackEntryRes{
			ID:               e.Record.ID,
			UserID:           e.Record.UserID,
			OriginalEmotion:  string(e.Record.OriginalLabel),
			ConfirmedEmotion: string(e.Record.ConfirmedLabel),
			Confidence:       e.Record.Confidence,
			FeedbackType:     string(e.Record.FeedbackType),
			Eligible:         e.Eligible,
			Reason:           e.Reason,
			ReceivedAt:       e.Record.ReceivedAt,
		}
	}

	return res
}

func (res feedbackPageRes) Code() int {
	return http.StatusOK
}

func (res feedbackPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res feedbackPageRes) Empty() bool {
	return false
}

type roundPageRes struct {
	coordinator.RoundPage
}

func (res roundPageRes) Code() int {
	return http.StatusOK
}

func (res roundPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res roundPageRes) Empty() bool {
	return false
}

type roundStatusRes struct {
	coordinator.RoundStatus
	created bool
}

func (res roundStatusRes) Code() int {
	if res.created {
		return http.StatusAccepted
	}

	return http.StatusOK
}

func (res roundStatusRes) Headers() map[string]string {
	return map[string]string{}
}

func (res roundStatusRes) Empty() bool {
	return false
}

type roundRes struct {
	RoundID      string    `json:"round_id"`
	KOfN         int       `json:"k_of_n"`
	Received     int       `json:"received"`
	Participants []string  `json:"participants"`
	StartTime    time.Time `json:"start_time"`
	Completed    bool      `json:"completed"`
	ModelVersion string    `json:"model_version,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func newRoundRes(state fl.RoundState) roundRes {
	res := roundRes{
		RoundID:      state.RoundID,
		KOfN:         state.KOfN,
		Received:     len(state.Updates),
		Participants: make([]string, len(state.Updates)),
		StartTime:    state.StartTime,
		Completed:    state.Completed,
		ModelVersion: state.ModelVersion,
		Error:        state.Error,
	}
	for i, u := range state.Updates {
		res.Participants[i] = u.ParticipantID
	}

	return res
}

func (res roundRes) Code() int {
	return http.StatusOK
}

func (res roundRes) Headers() map[string]string {
	return map[string]string{}
}

func (res roundRes) Empty() bool {
	return false
}
