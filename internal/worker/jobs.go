package worker

import (
	"context"
	"fmt"
)

// StatsRefresher recomputes and caches a learner's metrics. Declared here
// so this package does not import services.
type StatsRefresher interface {
	RefreshMetrics(ctx context.Context, learnerID int64) error
}

// RefreshStatsJob recomputes one learner's cached metrics.
type RefreshStatsJob struct {
	Refresher StatsRefresher
	LearnerID int64
}

func (j *RefreshStatsJob) Name() string { return fmt.Sprintf("refresh_stats:%d", j.LearnerID) }

func (j *RefreshStatsJob) Run(ctx context.Context) error {
	return j.Refresher.RefreshMetrics(ctx, j.LearnerID)
}

// Queue implements jobs.JobQueue on top of a Pool.
type Queue struct {
	Pool      *Pool
	Refresher StatsRefresher
}

func (q *Queue) EnqueueStatsRefresh(learnerID int64) error {
	return q.Pool.TrySubmit(&RefreshStatsJob{Refresher: q.Refresher, LearnerID: learnerID})
}
