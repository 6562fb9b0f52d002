package predictor

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/voicefed"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/pkg/inference"
	"github.com/absmach/voicefed/pkg/sdk"
)

type service struct {
	profile        voicefed.Profile
	engine         inference.Engine
	coordinator    sdk.SDK
	coordinatorURL string
}

func NewService(profile voicefed.Profile, engine inference.Engine, coordinator sdk.SDK, coordinatorURL string) Service {
	return &service{
		profile:        profile,
		engine:         engine,
		coordinator:    coordinator,
		coordinatorURL: coordinatorURL,
	}
}

func (svc *service) Health(_ context.Context) (Health, error) {
	return Health{
		Status:            "healthy",
		ModelLoaded:       svc.engine != nil,
		SupportedEmotions: svc.profile.Vocabulary(),
		ModelType:         svc.profile.Model.Type,
		CoordinatorURL:    svc.coordinatorURL,
	}, nil
}

func (svc *service) Predict(ctx context.Context, audio []byte, userID string) (Prediction, error) {
	if len(audio) == 0 {
		return Prediction{}, pkgerrors.ErrMissingAudio
	}
	if userID == "" {
		userID = AnonymousUser
	}

	features, err := svc.engine.Featurize(ctx, audio)
	if err != nil {
		return Prediction{}, err
	}
	p, err := svc.engine.Predict(ctx, features)
	if err != nil {
		return Prediction{}, err
	}
	if p.Emotion == "" {
		return Prediction{}, errors.Join(inference.ErrEngine, errors.New("empty emotion label"))
	}

	return Prediction{
		Emotion:              p.Emotion,
		Confidence:           p.Confidence,
		MentalHealth:         svc.profile.GuidanceFor(p.Emotion),
		RequiresConfirmation: true,
		ModelVersion:         DefaultModelVersion,
		ModelType:            DefaultModelType,
		FeaturesUsed:         svc.profile.Model.Features,
		UserID:               userID,
		Timestamp:            time.Now().UTC(),
	}, nil
}

func (svc *service) ForwardFeedback(ctx context.Context, body []byte) (sdk.Relay, error) {
	return svc.coordinator.ForwardFeedback(ctx, body)
}
