package scheduler

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vytor/pylearn/internal/models"
)

const (
	weakConceptMastery    = 60.0
	conceptListLimit      = 5
	streakWindowDays      = 7.0
	minSuggestedMinutes   = 10
	maxSuggestedMinutes   = 45
	emptySuggestedMinutes = 15
)

// ComputeMetrics aggregates a learner's items.
func (s *Scheduler) ComputeMetrics(items []models.ReviewItem) models.LearningMetrics {
	if len(items) == 0 {
		return models.LearningMetrics{
			WeakConcepts:        []models.ReviewItem{},
			StrongConcepts:      []models.ReviewItem{},
			SuggestedReviewTime: emptySuggestedMinutes,
		}
	}

	var total, successful, intervalSum, mastered int
	var weak, strong []models.ReviewItem
	for _, item := range items {
		total += item.TotalReviews
		successful += item.SuccessfulReviews
		intervalSum += item.Interval
		if item.ConceptMastery >= MasteryThreshold {
			mastered++
			strong = append(strong, item)
		}
		if item.ConceptMastery < weakConceptMastery && item.TotalReviews > 0 {
			weak = append(weak, item)
		}
	}

	retention := 0
	if total > 0 {
		retention = int(math.Round(float64(successful) / float64(total) * 100))
	}

	sort.SliceStable(weak, func(i, j int) bool { return weak[i].ConceptMastery < weak[j].ConceptMastery })
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].ConceptMastery > strong[j].ConceptMastery })

	suggested := len(s.DueItems(items)) * MinutesPerItem
	suggested = max(minSuggestedMinutes, min(maxSuggestedMinutes, suggested))

	return models.LearningMetrics{
		RetentionRate:       retention,
		AverageInterval:     math.Round(float64(intervalSum)/float64(len(items))*10) / 10,
		ConceptsMastered:    mastered,
		TotalConcepts:       len(items),
		StreakDays:          s.streakDays(items),
		WeakConcepts:        append([]models.ReviewItem{}, weak[:min(len(weak), conceptListLimit)]...),
		StrongConcepts:      append([]models.ReviewItem{}, strong[:min(len(strong), conceptListLimit)]...),
		SuggestedReviewTime: suggested,
	}
}

// streakDays approximates a streak by counting items reviewed in the trailing
// week, capped at seven. It is not a calendar streak: per-day review history
// is not part of the item record.
func (s *Scheduler) streakDays(items []models.ReviewItem) int {
	now := s.Now()
	recent := 0
	for _, item := range items {
		if daysBetween(item.LastReviewed, now) <= streakWindowDays {
			recent++
		}
	}
	return min(int(streakWindowDays), recent)
}

// Recommendations returns advisory text derived from metrics, in rule order.
func (s *Scheduler) Recommendations(metrics models.LearningMetrics, items []models.ReviewItem) []string {
	recs := []string{}

	if metrics.RetentionRate < 70 {
		recs = append(recs,
			"Focus on understanding over speed: take time to really grasp each concept",
			"Consider reviewing fundamentals before advancing to new topics",
		)
	}

	if len(metrics.WeakConcepts) > 3 {
		names := make([]string, 0, 3)
		for _, c := range metrics.WeakConcepts[:3] {
			names = append(names, c.ConceptName)
		}
		recs = append(recs, fmt.Sprintf("Spend extra time on: %s", strings.Join(names, ", ")))
	}

	if metrics.AverageInterval < 3 {
		recs = append(recs, "Great job! Your concepts are being reinforced frequently")
	} else if metrics.AverageInterval > 14 {
		recs = append(recs, "Some concepts need more frequent review to strengthen memory")
	}

	if metrics.StreakDays >= 5 {
		recs = append(recs, "Amazing streak! Consistency is the key to mastery")
	} else if metrics.StreakDays < 2 {
		recs = append(recs, "Try to review a little bit every day for better retention")
	}

	if len(s.DueItems(items)) > 10 {
		recs = append(recs, "You have many concepts due for review: consider shorter, more frequent sessions")
	}

	return recs
}
