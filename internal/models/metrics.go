package models

import "time"

// LearningMetrics is an aggregate computed on demand from a learner's items.
type LearningMetrics struct {
	RetentionRate       int          `json:"retentionRate"`
	AverageInterval     float64      `json:"averageInterval"`
	ConceptsMastered    int          `json:"conceptsMastered"`
	TotalConcepts       int          `json:"totalConcepts"`
	StreakDays          int          `json:"streakDays"`
	WeakConcepts        []ReviewItem `json:"weakConcepts"`
	StrongConcepts      []ReviewItem `json:"strongConcepts"`
	SuggestedReviewTime int          `json:"suggestedReviewTime"` // minutes per day
}

// MetricsSnapshot is a cached LearningMetrics value.
type MetricsSnapshot struct {
	LearnerID   int64           `json:"learner_id"`
	Metrics     LearningMetrics `json:"metrics"`
	RefreshedAt time.Time       `json:"refreshed_at"`
	// Generation is the invalidation count the snapshot was computed under.
	Generation  int64           `json:"-"`
}
