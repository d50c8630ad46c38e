package models

import "time"

// ReviewItem is the scheduling record for one concept of one learner.
// JSON names match the browser client's export format.
type ReviewItem struct {
	ID                  string    `json:"id"`
	LearnerID           int64     `json:"-"`
	LessonID            int64     `json:"lessonId"`
	ConceptName         string    `json:"conceptName"`
	Difficulty          float64   `json:"difficulty"` // 0.1 (easy) to 1.0 (hard)
	Interval            int       `json:"interval"`   // days until next review
	Repetition          int       `json:"repetition"` // consecutive successful reviews
	EaseFactor          float64   `json:"easeFactor"` // 1.3 - 2.5
	LastReviewed        time.Time `json:"lastReviewed"`
	NextReview          time.Time `json:"nextReview"`
	Quality             float64   `json:"quality"` // last raw response quality (0-5)
	TotalReviews        int       `json:"totalReviews"`
	SuccessfulReviews   int       `json:"successfulReviews"`
	AverageResponseTime float64   `json:"averageResponseTime"` // milliseconds
	ConceptMastery      float64   `json:"conceptMastery"`      // 0-100
}

// ReviewContext describes the circumstances of a single review.
type ReviewContext struct {
	TimeOfDay           int     `json:"timeOfDay"`           // 0-23
	StudySessionLength  float64 `json:"studySessionLength"`  // minutes
	PreviousPerformance float64 `json:"previousPerformance"` // 0-1 recent success ratio
}

// SessionPreferences tune how a review session is assembled.
type SessionPreferences struct {
	MaxNewConcepts      int      `json:"maxNewConcepts"`
	FocusOnWeakAreas    bool     `json:"focusOnWeakAreas"`
	PreferredDifficulty *float64 `json:"preferredDifficulty,omitempty"`
}

// ReviewSubmission is one answered review prompt as reported by the client.
type ReviewSubmission struct {
	Quality        float64       `json:"quality"`        // 0-5, clamped
	ResponseTimeMs float64       `json:"responseTimeMs"` // measured latency
	Context        ReviewContext `json:"context"`
}

// ReviewEvent is one row of review history.
type ReviewEvent struct {
	ID              int64     `json:"id"`
	LearnerID       int64     `json:"learner_id"`
	ItemID          string    `json:"item_id"`
	Quality         float64   `json:"quality"`
	AdjustedQuality float64   `json:"adjusted_quality"`
	ResponseTimeMs  float64   `json:"response_time_ms"`
	ReviewedAt      time.Time `json:"reviewed_at"`
}

// ReviewItemFilter narrows item listings. Zero values are ignored.
type ReviewItemFilter struct {
	LearnerID  int64
	LessonID   int64
	DueBefore  *time.Time
	MinMastery *float64
	MaxMastery *float64
	Limit      int
	Offset     int
}
