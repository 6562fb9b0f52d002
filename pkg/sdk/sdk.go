package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/absmach/voicefed/pkg/errors"
)

const (
	CTJSON string = "application/json"

	DefaultTimeout = 30 * time.Second
)

// ErrUnavailable is returned when the coordinator cannot be reached within
// the configured timeout.
var ErrUnavailable = pkgerrors.ErrUnavailable

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// Health returns the coordinator health report.
	//
	// example:
	//  h, _ := sdk.Health(ctx)
	//  fmt.Println(h.ModelVersion)
	Health(ctx context.Context) (Health, error)

	// ModelInfo returns the current model version, update count and queue size.
	//
	// example:
	//  info, _ := sdk.ModelInfo(ctx)
	//  fmt.Println(info.QueueSize)
	ModelInfo(ctx context.Context) (ModelInfo, error)

	// StartAggregationListener starts the participant update listener. Calling
	// it on a running listener succeeds without starting another.
	//
	// example:
	//  l, _ := sdk.StartAggregationListener(ctx)
	//  fmt.Println(l.ServerAddress)
	StartAggregationListener(ctx context.Context) (ListenerInfo, error)

	// SubmitFeedback sends a confirmed or corrected prediction.
	//
	// example:
	//  fb := sdk.Feedback{
	//    UserID:           "user-1",
	//    ConfirmedEmotion: "Happy",
	//    Confidence:       0.9,
	//    FeedbackType:     "CORRECT",
	//  }
	//  ack, _ := sdk.SubmitFeedback(ctx, fb)
	//  fmt.Println(ack.ModelUpdated)
	SubmitFeedback(ctx context.Context, fb Feedback) (UpdateAck, error)

	// ForwardFeedback relays a raw feedback body and returns the
	// coordinator's answer verbatim, whatever its status code.
	//
	// example:
	//  res, err := sdk.ForwardFeedback(ctx, body)
	//  if errors.Is(err, sdk.ErrUnavailable) { ... }
	ForwardFeedback(ctx context.Context, body []byte) (Relay, error)

	// ListFeedback lists the feedback log.
	//
	// example:
	//  page, _ := sdk.ListFeedback(ctx, 0, 10)
	ListFeedback(ctx context.Context, offset, limit uint64) (FeedbackPage, error)

	// ListRounds lists completed aggregation rounds.
	//
	// example:
	//  page, _ := sdk.ListRounds(ctx, 0, 10)
	ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error)
}

type coordSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &coordSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

// Relay is a coordinator response passed through unchanged.
type Relay struct {
	StatusCode int
	Body       []byte
}

// do sends the request and returns the response regardless of status code.
// Transport failures, timeouts included, are reported as ErrUnavailable.
func (sdk *coordSDK) do(ctx context.Context, method, reqURL string, data []byte) (Relay, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(data))
	if err != nil {
		return Relay{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return Relay{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Relay{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return Relay{StatusCode: resp.StatusCode, Body: body}, nil
}

func (sdk *coordSDK) processRequest(ctx context.Context, method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	res, err := sdk.do(ctx, method, reqURL, data)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != expectedRespCode {
		return nil, fmt.Errorf("unexpected response code: %d: %s", res.StatusCode, bytes.TrimSpace(res.Body))
	}

	return res.Body, nil
}
