package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/pylearn/internal/models"
)

// MockReviewItemRepository is a mock implementation of repository.ReviewItemRepository
type MockReviewItemRepository struct {
	mock.Mock
}

func (m *MockReviewItemRepository) Get(ctx context.Context, learnerID int64, id string) (*models.ReviewItem, error) {
	args := m.Called(ctx, learnerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewItem), args.Error(1)
}

func (m *MockReviewItemRepository) List(ctx context.Context, filter models.ReviewItemFilter) ([]models.ReviewItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewItem), args.Error(1)
}

func (m *MockReviewItemRepository) Count(ctx context.Context, filter models.ReviewItemFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewItemRepository) Insert(ctx context.Context, item models.ReviewItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockReviewItemRepository) Update(ctx context.Context, item models.ReviewItem, prevTotalReviews int) error {
	args := m.Called(ctx, item, prevTotalReviews)
	return args.Error(0)
}

func (m *MockReviewItemRepository) ReplaceAll(ctx context.Context, learnerID int64, items []models.ReviewItem) error {
	args := m.Called(ctx, learnerID, items)
	return args.Error(0)
}

func (m *MockReviewItemRepository) InsertEvent(ctx context.Context, event models.ReviewEvent) (int64, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewItemRepository) Events(ctx context.Context, learnerID int64, itemID string, limit int) ([]models.ReviewEvent, error) {
	args := m.Called(ctx, learnerID, itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewEvent), args.Error(1)
}
