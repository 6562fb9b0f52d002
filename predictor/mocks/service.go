package mocks

import (
	"context"

	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/absmach/voicefed/predictor"
	"github.com/stretchr/testify/mock"
)

var _ predictor.Service = (*MockService)(nil)

type MockService struct {
	mock.Mock
}

func (m *MockService) Health(ctx context.Context) (predictor.Health, error) {
	args := m.Called(ctx)

	return args.Get(0).(predictor.Health), args.Error(1)
}

func (m *MockService) Predict(ctx context.Context, audio []byte, userID string) (predictor.Prediction, error) {
	args := m.Called(ctx, audio, userID)

	return args.Get(0).(predictor.Prediction), args.Error(1)
}

func (m *MockService) ForwardFeedback(ctx context.Context, body []byte) (sdk.Relay, error) {
	args := m.Called(ctx, body)

	return args.Get(0).(sdk.Relay), args.Error(1)
}
