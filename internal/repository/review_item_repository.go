package repository

import (
	"context"
	"errors"

	"github.com/vytor/pylearn/internal/models"
)

// ErrStaleItem is returned by Update when no stored item matched: it was
// deleted or another review was recorded since it was read.
var ErrStaleItem = errors.New("review item changed since it was read")

// ReviewItemRepository handles review item and review history data access.
type ReviewItemRepository interface {
	Get(ctx context.Context, learnerID int64, id string) (*models.ReviewItem, error)
	List(ctx context.Context, filter models.ReviewItemFilter) ([]models.ReviewItem, error)
	Count(ctx context.Context, filter models.ReviewItemFilter) (int, error)
	Insert(ctx context.Context, item models.ReviewItem) error
	// Update stores item only if its stored total_reviews still equals
	// prevTotalReviews, otherwise it returns ErrStaleItem.
	Update(ctx context.Context, item models.ReviewItem, prevTotalReviews int) error
	ReplaceAll(ctx context.Context, learnerID int64, items []models.ReviewItem) error
	InsertEvent(ctx context.Context, event models.ReviewEvent) (int64, error)
	Events(ctx context.Context, learnerID int64, itemID string, limit int) ([]models.ReviewEvent, error)
}
