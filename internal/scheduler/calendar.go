package scheduler

import "time"

const dayMs = float64(24 * time.Hour / time.Millisecond)

// AddDays advances t by n calendar days in UTC. Working in UTC keeps the
// wall-clock time stable across DST transitions in the learner's zone.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// daysBetween returns (to - from) in fractional days.
func daysBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / dayMs
}
