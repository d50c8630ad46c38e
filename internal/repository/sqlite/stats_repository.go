package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Generation(ctx context.Context, learnerID int64) (int64, error) {
	var gen int64
	err := r.db.QueryRowContext(ctx, `
SELECT generation FROM learner_stats_generation WHERE learner_id = ?
`, learnerID).Scan(&gen)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("stats_repo").Error("failed to read metrics generation: %v", err)
		return 0, err
	}
	return gen, nil
}

func (r *statsRepository) SaveMetrics(ctx context.Context, snap models.MetricsSnapshot) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("saving cached metrics: learner_id=%d, generation=%d", snap.LearnerID, snap.Generation)

	payload, err := json.Marshal(snap.Metrics)
	if err != nil {
		return err
	}

	// The WHERE clause also keeps sqlite from reading ON CONFLICT as a join.
	res, err := r.db.ExecContext(ctx, `
INSERT INTO learner_stats_cache (learner_id, metrics_json, refreshed_at)
SELECT ?, ?, ?
WHERE COALESCE((SELECT generation FROM learner_stats_generation WHERE learner_id = ?), 0) = ?
ON CONFLICT(learner_id) DO UPDATE SET metrics_json = excluded.metrics_json, refreshed_at = excluded.refreshed_at
`, snap.LearnerID, string(payload), snap.RefreshedAt.UTC(), snap.LearnerID, snap.Generation)
	if err != nil {
		log.Error("failed to save cached metrics: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Debug("discarding stale metrics: learner_id=%d, generation=%d", snap.LearnerID, snap.Generation)
		return repository.ErrStaleMetrics
	}
	return nil
}

func (r *statsRepository) LoadMetrics(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("loading cached metrics: learner_id=%d", learnerID)

	var payload string
	snap := models.MetricsSnapshot{LearnerID: learnerID}
	err := r.db.QueryRowContext(ctx, `
SELECT metrics_json, refreshed_at FROM learner_stats_cache WHERE learner_id = ?
`, learnerID).Scan(&payload, &snap.RefreshedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no cached metrics: learner_id=%d", learnerID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load cached metrics: %v", err)
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &snap.Metrics); err != nil {
		log.Warn("discarding unreadable cached metrics: %v", err)
		return nil, nil
	}
	snap.RefreshedAt = snap.RefreshedAt.UTC()
	return &snap, nil
}

func (r *statsRepository) InvalidateMetrics(ctx context.Context, learnerID int64) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("invalidating cached metrics: learner_id=%d", learnerID)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO learner_stats_generation (learner_id, generation) VALUES (?, 1)
ON CONFLICT(learner_id) DO UPDATE SET generation = generation + 1
`, learnerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM learner_stats_cache WHERE learner_id = ?`, learnerID)
		return err
	})
	if err != nil {
		log.Error("failed to invalidate cached metrics: %v", err)
	}
	return err
}
