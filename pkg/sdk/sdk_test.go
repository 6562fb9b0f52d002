package sdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sdk.Health{Status: "healthy", ModelVersion: "v1.0.2", UpdatesCount: 2})
	})
	mux.HandleFunc("/model-info", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sdk.ModelInfo{ModelVersion: "v1.0.2", UpdateCount: 2, QueueSize: 3, ModelLoaded: true})
	})
	mux.HandleFunc("/start-federated-server", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)

			return
		}
		_ = json.NewEncoder(w).Encode(sdk.ListenerInfo{Success: true, ServerAddress: "localhost:8083"})
	})
	mux.HandleFunc("/federated-update", func(w http.ResponseWriter, r *http.Request) {
		var fb sdk.Feedback
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil || fb.UserID == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"missing user id"}`)

			return
		}
		_ = json.NewEncoder(w).Encode(sdk.UpdateAck{
			Success:              true,
			ContributionAccepted: true,
			ModelUpdated:         fb.FeedbackType == "CORRECT",
			ModelVersion:         "v1.0.2",
		})
	})
	mux.HandleFunc("/rounds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "offset=1&limit=5", r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(sdk.RoundPage{Offset: 1, Limit: 5, Total: 1, Rounds: []sdk.Round{{ID: "r1", Success: true}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestHealthAndModelInfo(t *testing.T) {
	srv := newCoordinator(t)
	s := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	h, err := s.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 2, h.UpdatesCount)

	info, err := s.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, info.QueueSize)

	l, err := s.StartAggregationListener(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "localhost:8083", l.ServerAddress)

	rounds, err := s.ListRounds(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rounds.Total)
}

func TestSubmitFeedback(t *testing.T) {
	srv := newCoordinator(t)
	s := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	cases := []struct {
		desc    string
		fb      sdk.Feedback
		updated bool
		err     bool
	}{
		{
			desc:    "correct feedback",
			fb:      sdk.Feedback{UserID: "u1", ConfirmedEmotion: "Happy", Confidence: 0.9, FeedbackType: "CORRECT"},
			updated: true,
		},
		{
			desc: "incorrect feedback",
			fb:   sdk.Feedback{UserID: "u1", ConfirmedEmotion: "Sad", Confidence: 0.4, FeedbackType: "INCORRECT"},
		},
		{
			desc: "rejected by coordinator",
			fb:   sdk.Feedback{ConfirmedEmotion: "Sad"},
			err:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ack, err := s.SubmitFeedback(context.Background(), tc.fb)
			if tc.err {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, sdk.ErrUnavailable)

				return
			}
			require.NoError(t, err)
			assert.True(t, ack.ContributionAccepted)
			assert.Equal(t, tc.updated, ack.ModelUpdated)
		})
	}
}

func TestForwardFeedbackRelaysStatus(t *testing.T) {
	srv := newCoordinator(t)
	s := sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})

	res, err := s.ForwardFeedback(context.Background(), []byte(`{"confirmedEmotion":"Sad"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"error":"missing user id"}`, string(res.Body))

	res, err = s.ForwardFeedback(context.Background(), []byte(`{"userId":"u1","feedbackType":"CORRECT"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestForwardFeedbackUnavailable(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		slow.Close()
	})

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	cases := []struct {
		desc string
		url  string
	}{
		{
			desc: "coordinator does not answer within timeout",
			url:  slow.URL,
		},
		{
			desc: "coordinator refuses connections",
			url:  closedURL,
		},
	}

	timeout := 200 * time.Millisecond
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			s := sdk.NewSDK(sdk.Config{CoordinatorURL: tc.url, Timeout: timeout})

			start := time.Now()
			_, err := s.ForwardFeedback(context.Background(), []byte(`{"userId":"u1"}`))
			assert.ErrorIs(t, err, sdk.ErrUnavailable)
			assert.Less(t, time.Since(start), timeout+2*time.Second)
		})
	}
}
