package predictor

import (
	"context"
	"time"

	"github.com/absmach/voicefed"
	"github.com/absmach/voicefed/pkg/sdk"
)

const (
	DefaultModelVersion = "VoiceBasedEmotionClassifier_v1.0"
	DefaultModelType    = "CNN"
	AnonymousUser       = "anonymous"
)

type Service interface {
	Health(ctx context.Context) (Health, error)

	// Predict featurizes a voice sample, classifies it and attaches the
	// mental-health guidance for the predicted emotion.
	Predict(ctx context.Context, audio []byte, userID string) (Prediction, error)

	// ForwardFeedback relays a feedback body to the coordinator unchanged.
	ForwardFeedback(ctx context.Context, body []byte) (sdk.Relay, error)
}

type Prediction struct {
	Emotion              string            `json:"emotion"`
	Confidence           float64           `json:"confidence"`
	MentalHealth         voicefed.Guidance `json:"mentalHealth"`
	RequiresConfirmation bool              `json:"requiresConfirmation"`
	ModelVersion         string            `json:"modelVersion"`
	ModelType            string            `json:"modelType"`
	FeaturesUsed         string            `json:"featuresUsed"`
	UserID               string            `json:"userId"`
	Timestamp            time.Time         `json:"timestamp"`
}

type Health struct {
	Status            string   `json:"status"`
	ModelLoaded       bool     `json:"model_loaded"`
	SupportedEmotions []string `json:"supported_emotions"`
	ModelType         string   `json:"model_type"`
	CoordinatorURL    string   `json:"coordinator_url"`
}
