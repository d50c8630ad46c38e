// Package scheduler implements concept review scheduling: a SuperMemo-2
// variant with contextual adjustments, due-item ranking, session building,
// learner metrics and recommendations. Everything here is pure computation
// over values; persistence lives elsewhere.
package scheduler

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/pylearn/internal/models"
)

const (
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	InitialInterval   = 1
	DefaultDifficulty = 0.5
	MasteryThreshold  = 85.0 // mastery at which a concept counts as learned

	minQuality     = 0.0
	maxQuality     = 5.0
	passingQuality = 3.0
)

// Clock returns the current time.
type Clock func() time.Time

// Scheduler holds no mutable state; the clock is its only dependency.
type Scheduler struct {
	now Clock
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.now = c
		}
	}
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current time in UTC.
func (s *Scheduler) Now() time.Time {
	return s.now().UTC()
}

// InitializeConcept creates the review record for a newly introduced concept.
// A non-positive difficulty falls back to DefaultDifficulty.
func (s *Scheduler) InitializeConcept(lessonID int64, conceptName string, difficulty float64) models.ReviewItem {
	if difficulty <= 0 || math.IsNaN(difficulty) {
		difficulty = DefaultDifficulty
	}
	now := s.Now()
	return models.ReviewItem{
		ID:           uuid.NewString(),
		LessonID:     lessonID,
		ConceptName:  conceptName,
		Difficulty:   difficulty,
		Interval:     InitialInterval,
		Repetition:   0,
		EaseFactor:   MaxEaseFactor,
		LastReviewed: now,
		NextReview:   AddDays(now, InitialInterval),
	}
}

// ExpectedResponseTime is the response latency, in ms, considered normal for
// a concept of the given difficulty: 5s for trivial up to 30s for hard.
func ExpectedResponseTime(difficulty float64) float64 {
	return 5000 + difficulty*25000
}

// ContextualMultiplier scales response quality by time of day, session length
// and recent momentum. The result is clamped to [0.7, 1.3].
func ContextualMultiplier(c models.ReviewContext) float64 {
	multiplier := 1.0

	switch {
	case c.TimeOfDay >= 9 && c.TimeOfDay <= 11:
		multiplier += 0.1
	case c.TimeOfDay >= 14 && c.TimeOfDay <= 16:
		multiplier += 0.05
	case c.TimeOfDay >= 22 || c.TimeOfDay <= 6:
		multiplier -= 0.15
	}

	switch {
	case c.StudySessionLength >= 25 && c.StudySessionLength <= 45:
		multiplier += 0.1
	case c.StudySessionLength > 60:
		multiplier -= 0.2
	}

	multiplier += (finite(c.PreviousPerformance) - 0.5) * 0.2

	return clamp(multiplier, 0.7, 1.3)
}

// AdjustQuality applies the response-time and contextual adjustments to a raw
// quality score. The result is always in [0, 5].
func AdjustQuality(quality, responseTimeMs, difficulty float64, c models.ReviewContext) float64 {
	q := clamp(finite(quality), minQuality, maxQuality)
	responseTimeMs = finite(responseTimeMs)

	expected := ExpectedResponseTime(difficulty)
	if responseTimeMs > expected*2 {
		q = math.Max(minQuality, q-1)
	} else if responseTimeMs < expected*0.5 {
		q = math.Min(maxQuality, q+0.5)
	}

	return clamp(q*ContextualMultiplier(c), minQuality, maxQuality)
}

// UpdateAfterReview returns the item as it stands after one review. The
// caller's value is left untouched.
func (s *Scheduler) UpdateAfterReview(item models.ReviewItem, quality, responseTimeMs float64, c models.ReviewContext) models.ReviewItem {
	updated := item
	quality = clamp(finite(quality), minQuality, maxQuality)
	responseTimeMs = math.Max(0, finite(responseTimeMs))

	adjusted := AdjustQuality(quality, responseTimeMs, item.Difficulty, c)

	if adjusted >= passingQuality {
		updated.SuccessfulReviews++
		updated.Repetition++
		updated.EaseFactor = nextEase(updated.EaseFactor, adjusted)

		switch updated.Repetition {
		case 1:
			updated.Interval = 1
		case 2:
			updated.Interval = 6
		default:
			updated.Interval = int(math.Round(float64(updated.Interval) * updated.EaseFactor))
		}
		discount := 1 - updated.Difficulty*0.3
		updated.Interval = max(1, int(math.Round(float64(updated.Interval)*discount)))
	} else {
		updated.Repetition = 0
		updated.Interval = InitialInterval
		updated.EaseFactor = clamp(updated.EaseFactor-0.2, MinEaseFactor, MaxEaseFactor)
	}

	if updated.TotalReviews == 0 {
		updated.AverageResponseTime = responseTimeMs
	} else {
		n := float64(updated.TotalReviews)
		updated.AverageResponseTime = (updated.AverageResponseTime*n + responseTimeMs) / (n + 1)
	}
	updated.TotalReviews++
	updated.Quality = quality
	updated.LastReviewed = s.Now()
	updated.ConceptMastery = Mastery(updated)
	updated.NextReview = AddDays(updated.LastReviewed, updated.Interval)

	return updated
}

// nextEase is the SM-2 ease update, kept inside [MinEaseFactor, MaxEaseFactor].
func nextEase(ease, q float64) float64 {
	ease = ease + 0.1 - (5-q)*(0.08+(5-q)*0.02)
	return clamp(ease, MinEaseFactor, MaxEaseFactor)
}

// Mastery scores an item from 0 to 100, rounded to two decimals. Weights:
// success rate 40, interval length 25, ease 20, repetitions 15.
func Mastery(item models.ReviewItem) float64 {
	if item.TotalReviews <= 0 {
		return 0
	}

	successRate := clamp(float64(item.SuccessfulReviews)/float64(item.TotalReviews), 0, 1)
	intervalStrength := math.Min(1, float64(item.Interval)/30)
	easeStrength := clamp((item.EaseFactor-MinEaseFactor)/(MaxEaseFactor-MinEaseFactor), 0, 1)
	repetitionStrength := math.Min(1, float64(item.Repetition)/5)

	score := successRate*40 + intervalStrength*25 + easeStrength*20 + repetitionStrength*15
	return clamp(math.Round(score*100)/100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
