package mocks

import (
	"context"

	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Service = (*MockService)(nil)

// MockService is a mock implementation of the coordinator.Service interface.
type MockService struct {
	mock.Mock
}

func (m *MockService) Health(ctx context.Context) (coordinator.ServiceStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.ServiceStatus), args.Error(1)
}

func (m *MockService) Status(ctx context.Context) (coordinator.ServiceStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.ServiceStatus), args.Error(1)
}

func (m *MockService) SubmitFeedback(ctx context.Context, rec fl.FeedbackRecord) (coordinator.UpdateAck, error) {
	args := m.Called(ctx, rec)

	return args.Get(0).(coordinator.UpdateAck), args.Error(1)
}

func (m *MockService) StartAggregationListener(ctx context.Context) (coordinator.ListenerInfo, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.ListenerInfo), args.Error(1)
}

func (m *MockService) SubmitUpdate(ctx context.Context, update fl.Update) (coordinator.RoundStatus, error) {
	args := m.Called(ctx, update)

	return args.Get(0).(coordinator.RoundStatus), args.Error(1)
}

func (m *MockService) GetRound(ctx context.Context, roundID string) (fl.RoundState, error) {
	args := m.Called(ctx, roundID)

	return args.Get(0).(fl.RoundState), args.Error(1)
}

func (m *MockService) ListFeedback(ctx context.Context, offset, limit uint64) (coordinator.FeedbackPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(coordinator.FeedbackPage), args.Error(1)
}

func (m *MockService) ListRounds(ctx context.Context, offset, limit uint64) (coordinator.RoundPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(coordinator.RoundPage), args.Error(1)
}
