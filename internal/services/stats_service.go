package services

import (
	"context"
	"strconv"
	"time"

	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
	"github.com/vytor/pylearn/internal/scheduler"
	"golang.org/x/sync/singleflight"
)

// MetricsMaxAge bounds how long a cached snapshot is served. Due counts and
// streaks depend on the current time, so snapshots go stale on their own.
const MetricsMaxAge = time.Hour

// StatsService handles learner metrics and recommendations
type StatsService interface {
	GetMetrics(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error)
	RefreshMetrics(ctx context.Context, learnerID int64) error
	GetRecommendations(ctx context.Context, learnerID int64) ([]string, error)
}

type statsService struct {
	learnerRepo repository.LearnerRepository
	itemRepo    repository.ReviewItemRepository
	statsRepo   repository.StatsRepository
	sched       *scheduler.Scheduler

	// rebuilds collapses concurrent recomputations for the same learner.
	rebuilds singleflight.Group
}

// NewStatsService creates a new StatsService
func NewStatsService(
	learnerRepo repository.LearnerRepository,
	itemRepo repository.ReviewItemRepository,
	statsRepo repository.StatsRepository,
	sched *scheduler.Scheduler,
) StatsService {
	return &statsService{
		learnerRepo: learnerRepo,
		itemRepo:    itemRepo,
		statsRepo:   statsRepo,
		sched:       sched,
	}
}

func (s *statsService) compute(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, []models.ReviewItem, error) {
	items, err := s.itemRepo.List(ctx, models.ReviewItemFilter{LearnerID: learnerID})
	if err != nil {
		return nil, nil, err
	}
	return &models.MetricsSnapshot{
		LearnerID:   learnerID,
		Metrics:     s.sched.ComputeMetrics(items),
		RefreshedAt: s.sched.Now(),
	}, items, nil
}

// rebuild recomputes and caches a learner's snapshot. Callers asking for the
// same learner under the same generation share one computation, which runs
// detached from any single caller's cancellation.
func (s *statsService) rebuild(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error) {
	gen, err := s.statsRepo.Generation(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	key := strconv.FormatInt(learnerID, 10) + ":" + strconv.FormatInt(gen, 10)
	v, err, _ := s.rebuilds.Do(key, func() (any, error) {
		return s.store(context.WithoutCancel(ctx), learnerID, gen)
	})
	snapshot, _ := v.(*models.MetricsSnapshot)
	return snapshot, err
}

// store computes the learner's metrics and caches them unless the learner
// was invalidated after gen was read.
func (s *statsService) store(ctx context.Context, learnerID, gen int64) (*models.MetricsSnapshot, error) {
	snapshot, _, err := s.compute(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	snapshot.Generation = gen
	err = s.statsRepo.SaveMetrics(ctx, *snapshot)
	if err != nil && !errors.Is(err, repository.ErrStaleMetrics) {
		return snapshot, &saveError{err: err}
	}
	return snapshot, nil
}

type saveError struct{ err error }

func (e *saveError) Error() string { return "save metrics: " + e.err.Error() }
func (e *saveError) Unwrap() error { return e.err }

func (s *statsService) ensureLearner(ctx context.Context, learnerID int64) error {
	learner, err := s.learnerRepo.Get(ctx, learnerID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get learner: %v", err)
		return errors.NewInternalError(err)
	}
	if learner == nil {
		return errors.NewNotFoundError("learner", learnerID)
	}
	return nil
}

func (s *statsService) GetMetrics(ctx context.Context, learnerID int64) (*models.MetricsSnapshot, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting metrics: learner_id=%d", learnerID)

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	cached, err := s.statsRepo.LoadMetrics(ctx, learnerID)
	if err != nil {
		log.Warn("failed to load cached metrics, recomputing: %v", err)
	} else if cached != nil && s.sched.Now().Sub(cached.RefreshedAt) < MetricsMaxAge {
		log.Debug("serving cached metrics: learner_id=%d, refreshed_at=%s", learnerID, cached.RefreshedAt.Format(time.RFC3339))
		return cached, nil
	}

	snapshot, err := s.rebuild(ctx, learnerID)
	var saveErr *saveError
	if errors.As(err, &saveErr) {
		log.Warn("failed to cache metrics: %v", saveErr.err)
		return snapshot, nil
	}
	if err != nil {
		log.Error("failed to compute metrics: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return snapshot, nil
}

// RefreshMetrics recomputes and stores a learner's metrics. It is the body
// of the background refresh job and never joins a rebuild already in flight,
// which may have read items from before the change that queued this job.
func (s *statsService) RefreshMetrics(ctx context.Context, learnerID int64) error {
	log := logger.FromContext(ctx).WithPrefix("stats")
	log.Debug("refreshing metrics: learner_id=%d", learnerID)

	gen, err := s.statsRepo.Generation(ctx, learnerID)
	if err != nil {
		log.Error("failed to read metrics generation: %v", err)
		return errors.NewInternalError(err)
	}
	snapshot, err := s.store(ctx, learnerID, gen)
	if err != nil {
		log.Error("failed to refresh metrics: %v", err)
		return errors.NewInternalError(err)
	}

	log.Debug("metrics refreshed: learner_id=%d, total=%d, retention=%d", learnerID, snapshot.Metrics.TotalConcepts, snapshot.Metrics.RetentionRate)
	return nil
}

// GetRecommendations always works from fresh metrics; the advice depends on
// the current due count.
func (s *statsService) GetRecommendations(ctx context.Context, learnerID int64) ([]string, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting recommendations: learner_id=%d", learnerID)

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	snapshot, items, err := s.compute(ctx, learnerID)
	if err != nil {
		log.Error("failed to compute metrics: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return s.sched.Recommendations(snapshot.Metrics, items), nil
}
