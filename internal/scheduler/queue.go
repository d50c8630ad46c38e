package scheduler

import (
	"math"
	"sort"

	"github.com/vytor/pylearn/internal/models"
)

const (
	// MinutesPerItem is the time budgeted for one review in a session.
	MinutesPerItem = 2
	weakMastery    = 70.0
	weakShare      = 0.7
)

// DueItems returns the items whose next review is not in the future, most
// urgent first. Urgency is days overdue plus difficulty; ties keep input order.
func (s *Scheduler) DueItems(items []models.ReviewItem) []models.ReviewItem {
	now := s.Now()

	type ranked struct {
		item     models.ReviewItem
		priority float64
	}
	due := make([]ranked, 0, len(items))
	for _, item := range items {
		if item.NextReview.After(now) {
			continue
		}
		overdue := daysBetween(item.NextReview, now)
		due = append(due, ranked{item: item, priority: overdue + item.Difficulty})
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].priority > due[j].priority
	})

	out := make([]models.ReviewItem, len(due))
	for i, r := range due {
		out[i] = r.item
	}
	return out
}

// BuildSession picks the items to review in availableMinutes. The result
// never holds more than availableMinutes/MinutesPerItem items.
func (s *Scheduler) BuildSession(items []models.ReviewItem, availableMinutes int, prefs models.SessionPreferences) []models.ReviewItem {
	maxItems := availableMinutes / MinutesPerItem
	if maxItems <= 0 {
		return []models.ReviewItem{}
	}

	due := s.DueItems(items)
	session := due[:min(len(due), maxItems)]

	if prefs.FocusOnWeakAreas {
		var weak, strong []models.ReviewItem
		for _, item := range due {
			if item.ConceptMastery < weakMastery {
				weak = append(weak, item)
			} else {
				strong = append(strong, item)
			}
		}
		weakSlots := int(math.Floor(float64(maxItems) * weakShare))
		weak = weak[:min(len(weak), weakSlots)]
		strong = strong[:min(len(strong), maxItems-len(weak))]

		session = make([]models.ReviewItem, 0, len(weak)+len(strong))
		session = append(session, weak...)
		session = append(session, strong...)
	}

	out := make([]models.ReviewItem, len(session))
	copy(out, session)

	if prefs.PreferredDifficulty != nil {
		target := *prefs.PreferredDifficulty
		sort.SliceStable(out, func(i, j int) bool {
			return math.Abs(out[i].Difficulty-target) < math.Abs(out[j].Difficulty-target)
		})
	}
	return out
}
