package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/pylearn/internal/models"
)

// MockStatsRepository is a mock implementation of repository.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Generation(ctx context.Context, learnerID int64) (int64, error) {
	args := m.Called(ctx, learnerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) SaveMetrics(ctx context.Context, snapshot models.MetricsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockStatsRepository) LoadMetrics(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error) {
	args := m.Called(ctx, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MetricsSnapshot), args.Error(1)
}

func (m *MockStatsRepository) InvalidateMetrics(ctx context.Context, learnerID int64) error {
	args := m.Called(ctx, learnerID)
	return args.Error(0)
}
