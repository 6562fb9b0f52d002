// Package inference talks to the external model server that owns feature
// extraction and the emotion classifier.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	featurizeEndpoint = "/featurize"
	predictEndpoint   = "/classify"
	contentType       = "application/json"
)

var (
	ErrEngine       = errors.New("inference engine error")
	ErrEmptyFeature = errors.New("inference engine returned no features")
)

type Prediction struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

type Engine interface {
	// Featurize extracts the MFCC feature vector of a raw audio sample.
	Featurize(ctx context.Context, audio []byte) ([]float64, error)

	// Predict classifies a feature vector.
	Predict(ctx context.Context, features []float64) (Prediction, error)
}

type Config struct {
	URL string
	// Timeout of zero leaves calls bounded only by the request context.
	Timeout time.Duration
}

type client struct {
	url  string
	http *http.Client
}

func NewClient(cfg Config) Engine {
	return &client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type featurizeReq struct {
	AudioData string `json:"audioData"`
}

type featurizeRes struct {
	Features []float64 `json:"features"`
}

type classifyReq struct {
	Features []float64 `json:"features"`
}

func (c *client) Featurize(ctx context.Context, audio []byte) ([]float64, error) {
	var res featurizeRes
	req := featurizeReq{AudioData: base64.StdEncoding.EncodeToString(audio)}
	if err := c.post(ctx, featurizeEndpoint, req, &res); err != nil {
		return nil, err
	}
	if len(res.Features) == 0 {
		return nil, ErrEmptyFeature
	}

	return res.Features, nil
}

func (c *client) Predict(ctx context.Context, features []float64) (Prediction, error) {
	var res Prediction
	if err := c.post(ctx, predictEndpoint, classifyReq{Features: features}, &res); err != nil {
		return Prediction{}, err
	}
	if res.Emotion == "" {
		return Prediction{}, fmt.Errorf("%w: empty emotion label", ErrEngine)
	}

	return res, nil
}

func (c *client) post(ctx context.Context, endpoint string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("%w: %s %s: %s", ErrEngine, endpoint, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrEngine, endpoint, err)
	}

	return nil
}
