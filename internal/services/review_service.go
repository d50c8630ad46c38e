package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/jobs"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
	"github.com/vytor/pylearn/internal/scheduler"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	maxReviewAttempts   = 3
)

// ReviewService handles concept scheduling for a learner
type ReviewService interface {
	ListItems(ctx context.Context, filter models.ReviewItemFilter) ([]models.ReviewItem, int, error)
	AddConcept(ctx context.Context, learnerID, lessonID int64, conceptName string, difficulty float64) (*models.ReviewItem, error)
	RecordReview(ctx context.Context, learnerID int64, itemID string, submission models.ReviewSubmission) (*models.ReviewItem, error)
	History(ctx context.Context, learnerID int64, itemID string, limit int) ([]models.ReviewEvent, error)
	DueItems(ctx context.Context, learnerID int64) ([]models.ReviewItem, error)
	BuildSession(ctx context.Context, learnerID int64, availableMinutes int, prefs models.SessionPreferences) ([]models.ReviewItem, error)
	Export(ctx context.Context, learnerID int64) (string, error)
	Import(ctx context.Context, learnerID int64, data string) (int, error)
}

type reviewService struct {
	learnerRepo repository.LearnerRepository
	itemRepo    repository.ReviewItemRepository
	statsRepo   repository.StatsRepository
	queue       jobs.JobQueue
	sched       *scheduler.Scheduler
}

// NewReviewService creates a new ReviewService. queue may be nil, in which
// case cached metrics are only invalidated.
func NewReviewService(
	learnerRepo repository.LearnerRepository,
	itemRepo repository.ReviewItemRepository,
	statsRepo repository.StatsRepository,
	queue jobs.JobQueue,
	sched *scheduler.Scheduler,
) ReviewService {
	return &reviewService{
		learnerRepo: learnerRepo,
		itemRepo:    itemRepo,
		statsRepo:   statsRepo,
		queue:       queue,
		sched:       sched,
	}
}

func (s *reviewService) ensureLearner(ctx context.Context, learnerID int64) error {
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

func (s *reviewService) allItems(ctx context.Context, learnerID int64) ([]models.ReviewItem, error) {
	items, err := s.itemRepo.List(ctx, models.ReviewItemFilter{LearnerID: learnerID})
	if err != nil {
		logger.FromContext(ctx).Error("failed to list review items: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return items, nil
}

// itemsChanged drops the cached metrics and asks the worker pool to rebuild
// them. Failures here never fail the caller.
func (s *reviewService) itemsChanged(ctx context.Context, learnerID int64) {
	log := logger.FromContext(ctx)
	if err := s.statsRepo.InvalidateMetrics(ctx, learnerID); err != nil {
		log.Warn("failed to invalidate metrics: learner_id=%d, error=%v", learnerID, err)
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.EnqueueStatsRefresh(learnerID); err != nil {
		log.Warn("failed to enqueue stats refresh: learner_id=%d, error=%v", learnerID, err)
	}
}

func (s *reviewService) ListItems(ctx context.Context, filter models.ReviewItemFilter) ([]models.ReviewItem, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing review items: learner_id=%d, limit=%d, offset=%d", filter.LearnerID, filter.Limit, filter.Offset)

	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, errors.NewValidationError("pagination", "limit and offset must be non-negative")
	}
	if err := s.ensureLearner(ctx, filter.LearnerID); err != nil {
		return nil, 0, err
	}

	items, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list review items: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count review items: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	return items, total, nil
}

func (s *reviewService) AddConcept(ctx context.Context, learnerID, lessonID int64, conceptName string, difficulty float64) (*models.ReviewItem, error) {
	log := logger.FromContext(ctx)
	conceptName = strings.TrimSpace(conceptName)
	log.Debug("adding concept: learner_id=%d, lesson_id=%d, concept=%s, difficulty=%.2f", learnerID, lessonID, conceptName, difficulty)

	if conceptName == "" {
		return nil, errors.NewValidationError("conceptName", "cannot be empty")
	}
	if math.IsNaN(difficulty) || difficulty < 0 || difficulty > 1 {
		return nil, errors.NewValidationError("difficulty", "must be between 0.1 and 1.0")
	}
	if difficulty > 0 && difficulty < 0.1 {
		return nil, errors.NewValidationError("difficulty", "must be between 0.1 and 1.0")
	}
	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	item := s.sched.InitializeConcept(lessonID, conceptName, difficulty)
	item.LearnerID = learnerID

	if err := s.itemRepo.Insert(ctx, item); err != nil {
		log.Error("failed to insert review item: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("concept added: learner_id=%d, item_id=%s", learnerID, item.ID)
	s.itemsChanged(ctx, learnerID)
	return &item, nil
}

func (s *reviewService) RecordReview(ctx context.Context, learnerID int64, itemID string, submission models.ReviewSubmission) (*models.ReviewItem, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"learner_id": learnerID, "item_id": itemID})
	log.Debug("recording review: quality=%.1f, response_time=%.0fms", submission.Quality, submission.ResponseTimeMs)

	if submission.ResponseTimeMs < 0 {
		return nil, errors.NewValidationError("responseTimeMs", "must be non-negative")
	}

	var item, updated models.ReviewItem
	for attempt := 1; ; attempt++ {
		stored, err := s.itemRepo.Get(ctx, learnerID, itemID)
		if err != nil {
			log.Error("failed to get review item: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if stored == nil {
			return nil, errors.NewNotFoundError("review item", itemID)
		}
		item = *stored

		updated = s.sched.UpdateAfterReview(item, submission.Quality, submission.ResponseTimeMs, submission.Context)
		err = s.itemRepo.Update(ctx, updated, item.TotalReviews)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrStaleItem) {
			log.Error("failed to update review item: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if attempt == maxReviewAttempts {
			log.Warn("giving up on review after %d concurrent updates", attempt)
			return nil, errors.NewConflictError("review item is being updated concurrently, retry")
		}
		log.Debug("review item changed concurrently, retrying: attempt=%d", attempt)
	}

	event := models.ReviewEvent{
		LearnerID:       learnerID,
		ItemID:          itemID,
		Quality:         updated.Quality,
		AdjustedQuality: scheduler.AdjustQuality(submission.Quality, submission.ResponseTimeMs, item.Difficulty, submission.Context),
		ResponseTimeMs:  submission.ResponseTimeMs,
		ReviewedAt:      updated.LastReviewed,
	}
	if _, err := s.itemRepo.InsertEvent(ctx, event); err != nil {
		log.Warn("failed to record review event: %v", err)
	}

	log.Info("review recorded: interval=%d, ease=%.2f, mastery=%.2f", updated.Interval, updated.EaseFactor, updated.ConceptMastery)
	s.itemsChanged(ctx, learnerID)
	return &updated, nil
}

func (s *reviewService) History(ctx context.Context, learnerID int64, itemID string, limit int) ([]models.ReviewEvent, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting review history: learner_id=%d, item_id=%s, limit=%d", learnerID, itemID, limit)

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	item, err := s.itemRepo.Get(ctx, learnerID, itemID)
	if err != nil {
		log.Error("failed to get review item: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if item == nil {
		return nil, errors.NewNotFoundError("review item", itemID)
	}

	events, err := s.itemRepo.Events(ctx, learnerID, itemID, limit)
	if err != nil {
		log.Error("failed to list review events: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return events, nil
}

func (s *reviewService) DueItems(ctx context.Context, learnerID int64) ([]models.ReviewItem, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting due items: learner_id=%d", learnerID)

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}
	items, err := s.allItems(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	return s.sched.DueItems(items), nil
}

func (s *reviewService) BuildSession(ctx context.Context, learnerID int64, availableMinutes int, prefs models.SessionPreferences) ([]models.ReviewItem, error) {
	log := logger.FromContext(ctx)
	log.Debug("building session: learner_id=%d, minutes=%d, weak_focus=%t", learnerID, availableMinutes, prefs.FocusOnWeakAreas)

	if availableMinutes < 0 {
		return nil, errors.NewValidationError("availableMinutes", "must be non-negative")
	}
	if prefs.PreferredDifficulty != nil && (math.IsNaN(*prefs.PreferredDifficulty) || *prefs.PreferredDifficulty < 0 || *prefs.PreferredDifficulty > 1) {
		return nil, errors.NewValidationError("preferredDifficulty", "must be between 0 and 1")
	}
	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}
	items, err := s.allItems(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	session := s.sched.BuildSession(items, availableMinutes, prefs)
	log.Debug("session built: learner_id=%d, items=%d", learnerID, len(session))
	return session, nil
}

func (s *reviewService) Export(ctx context.Context, learnerID int64) (string, error) {
	log := logger.FromContext(ctx)
	log.Debug("exporting review data: learner_id=%d", learnerID)

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return "", err
	}
	items, err := s.allItems(ctx, learnerID)
	if err != nil {
		return "", err
	}

	data, err := scheduler.Export(items)
	if err != nil {
		log.Error("failed to export review data: %v", err)
		return "", errors.NewInternalError(err)
	}
	return data, nil
}

// Import replaces every item of the learner with the decoded data and
// returns the number of stored items.
func (s *reviewService) Import(ctx context.Context, learnerID int64, data string) (int, error) {
	log := logger.FromContext(ctx)
	log.Debug("importing review data: learner_id=%d, bytes=%d", learnerID, len(data))

	items, err := scheduler.Import(data)
	if err != nil {
		log.Warn("rejected review data: learner_id=%d, error=%v", learnerID, err)
		return 0, errors.NewParseError(err)
	}
	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if _, dup := seen[items[i].ID]; dup {
			return 0, errors.NewValidationError("id", "duplicate item id "+items[i].ID)
		}
		seen[items[i].ID] = struct{}{}
		items[i].LearnerID = learnerID
	}

	if err := s.itemRepo.ReplaceAll(ctx, learnerID, items); err != nil {
		log.Error("failed to replace review items: %v", err)
		return 0, errors.NewInternalError(err)
	}

	log.Info("review data imported: learner_id=%d, items=%d", learnerID, len(items))
	s.itemsChanged(ctx, learnerID)
	return len(items), nil
}
