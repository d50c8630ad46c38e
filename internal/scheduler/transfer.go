package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vytor/pylearn/internal/models"
)

// ErrParse marks review data that could not be decoded.
var ErrParse = errors.New("parse error")

// Export serialises items as indented JSON with RFC 3339 timestamps.
func Export(items []models.ReviewItem) (string, error) {
	if items == nil {
		items = []models.ReviewItem{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export review data: %w", err)
	}
	return string(b), nil
}

// Import decodes items produced by Export. On malformed input it returns an
// empty slice together with an error wrapping ErrParse.
func Import(data string) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []models.ReviewItem{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if items == nil {
		return []models.ReviewItem{}, nil
	}
	for i := range items {
		items[i] = normalize(items[i])
	}
	return items, nil
}

// normalize pulls an externally supplied record back inside the item
// invariants and recomputes its mastery.
func normalize(item models.ReviewItem) models.ReviewItem {
	item.LastReviewed = item.LastReviewed.UTC()
	item.NextReview = item.NextReview.UTC()
	item.Interval = max(InitialInterval, item.Interval)
	item.Repetition = max(0, item.Repetition)
	item.EaseFactor = clamp(finite(item.EaseFactor), MinEaseFactor, MaxEaseFactor)
	item.Quality = clamp(finite(item.Quality), minQuality, maxQuality)
	item.TotalReviews = max(0, item.TotalReviews)
	item.SuccessfulReviews = max(0, min(item.SuccessfulReviews, item.TotalReviews))
	item.AverageResponseTime = max(0, finite(item.AverageResponseTime))
	item.ConceptMastery = Mastery(item)
	return item
}
