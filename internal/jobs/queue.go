package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueStatsRefresh schedules recomputation of a learner's cached metrics.
	EnqueueStatsRefresh(learnerID int64) error
}
