package scheduler_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pylearn/internal/models"
)

const day = 24 * time.Hour

func metricItem(name string, total, successful, interval int, mastery float64, lastReviewedAgo, nextReviewIn time.Duration) models.ReviewItem {
	return models.ReviewItem{
		ID:                name,
		ConceptName:       name,
		Difficulty:        0.5,
		Interval:          interval,
		EaseFactor:        2.5,
		TotalReviews:      total,
		SuccessfulReviews: successful,
		ConceptMastery:    mastery,
		LastReviewed:      testNow.Add(-lastReviewedAgo),
		NextReview:        testNow.Add(nextReviewIn),
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	s := newTestScheduler()

	m := s.ComputeMetrics(nil)

	assert.Equal(t, 0, m.RetentionRate)
	assert.Equal(t, 0.0, m.AverageInterval)
	assert.Equal(t, 0, m.TotalConcepts)
	assert.Equal(t, 15, m.SuggestedReviewTime)
	assert.NotNil(t, m.WeakConcepts)
	assert.NotNil(t, m.StrongConcepts)
}

func TestComputeMetrics(t *testing.T) {
	s := newTestScheduler()
	items := []models.ReviewItem{
		metricItem("a", 10, 9, 30, 95, 1*day, 29*day),
		metricItem("b", 4, 1, 1, 20, 2*day, -1*day),
		metricItem("c", 0, 0, 1, 0, 10*day, -9*day),
		metricItem("d", 6, 3, 5, 50, 8*day, -3*day),
		metricItem("e", 5, 5, 20, 88, 3*day, 17*day),
	}

	m := s.ComputeMetrics(items)

	assert.Equal(t, 72, m.RetentionRate)
	assert.InDelta(t, 11.4, m.AverageInterval, 1e-9)
	assert.Equal(t, 2, m.ConceptsMastered)
	assert.Equal(t, 5, m.TotalConcepts)
	assert.Equal(t, 3, m.StreakDays)
	assert.Equal(t, 10, m.SuggestedReviewTime, "three due items should clamp up to the 10 minute floor")
	assert.Equal(t, []string{"b", "d"}, ids(m.WeakConcepts))
	assert.Equal(t, []string{"a", "e"}, ids(m.StrongConcepts))
}

func TestComputeMetrics_ListsAndStreakAreCapped(t *testing.T) {
	s := newTestScheduler()
	var items []models.ReviewItem
	for i := 0; i < 8; i++ {
		items = append(items, metricItem(fmt.Sprintf("weak%d", i), 4, 1, 1, float64(10+i), time.Hour, -day))
	}
	for i := 0; i < 8; i++ {
		items = append(items, metricItem(fmt.Sprintf("strong%d", i), 10, 10, 30, float64(85+i), time.Hour, -day))
	}
	// 24 due items push the suggestion past the ceiling.
	for i := 0; i < 8; i++ {
		items = append(items, metricItem(fmt.Sprintf("mid%d", i), 4, 3, 3, 70, time.Hour, -day))
	}

	m := s.ComputeMetrics(items)

	require.Len(t, m.WeakConcepts, 5)
	require.Len(t, m.StrongConcepts, 5)
	assert.Equal(t, "weak0", m.WeakConcepts[0].ID)
	assert.Equal(t, "strong7", m.StrongConcepts[0].ID)
	assert.Equal(t, 7, m.StreakDays)
	assert.Equal(t, 45, m.SuggestedReviewTime)
	assert.Equal(t, 8, m.ConceptsMastered)
}

func TestRecommendations_NoneTriggered(t *testing.T) {
	s := newTestScheduler()
	m := models.LearningMetrics{RetentionRate: 80, AverageInterval: 7, StreakDays: 3}

	assert.Empty(t, s.Recommendations(m, nil))
}

func TestRecommendations_RuleOrder(t *testing.T) {
	s := newTestScheduler()
	weak := []models.ReviewItem{
		{ConceptName: "Loops"},
		{ConceptName: "Functions"},
		{ConceptName: "Classes"},
		{ConceptName: "Decorators"},
	}
	m := models.LearningMetrics{
		RetentionRate:   50,
		WeakConcepts:    weak,
		AverageInterval: 2,
		StreakDays:      6,
	}
	due := overdueSet("due", 11, 50, 30)

	recs := s.Recommendations(m, due)

	require.Len(t, recs, 6)
	assert.Contains(t, recs[0], "understanding over speed")
	assert.Contains(t, recs[1], "fundamentals")
	assert.Equal(t, "Spend extra time on: Loops, Functions, Classes", recs[2])
	assert.Contains(t, recs[3], "reinforced frequently")
	assert.Contains(t, recs[4], "streak")
	assert.Contains(t, recs[5], "many concepts due")
}

func TestRecommendations_LongIntervalsAndNoStreak(t *testing.T) {
	s := newTestScheduler()
	m := models.LearningMetrics{RetentionRate: 90, AverageInterval: 20, StreakDays: 1}

	recs := s.Recommendations(m, nil)

	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "more frequent review")
	assert.Contains(t, recs[1], "every day")
}
