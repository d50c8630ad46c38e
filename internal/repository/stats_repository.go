package repository

import (
	"context"
	"errors"

	"github.com/vytor/pylearn/internal/models"
)

// ErrStaleMetrics is returned by SaveMetrics when the learner's metrics were
// invalidated after the snapshot's generation was read.
var ErrStaleMetrics = errors.New("metrics snapshot is stale")

// StatsRepository stores cached learner metrics. Every invalidation bumps a
// per-learner generation; a snapshot computed under an older generation is
// never written.
type StatsRepository interface {
	Generation(ctx context.Context, learnerID int64) (int64, error)
	SaveMetrics(ctx context.Context, snapshot models.MetricsSnapshot) error
	LoadMetrics(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error)
	InvalidateMetrics(ctx context.Context, learnerID int64) error
}
