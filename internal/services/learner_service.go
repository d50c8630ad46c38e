package services

import (
	"context"
	"strings"

	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
)

const maxUsernameLength = 64

// LearnerService handles learner-related business logic
type LearnerService interface {
	ListLearners(ctx context.Context) ([]models.Learner, error)
	CreateLearner(ctx context.Context, username string) (*models.Learner, error)
	GetLearner(ctx context.Context, id int64) (*models.Learner, error)
	GetLearnerByUsername(ctx context.Context, username string) (*models.Learner, error)
	DeleteLearner(ctx context.Context, id int64) error
}

type learnerService struct {
	learnerRepo repository.LearnerRepository
}

// NewLearnerService creates a new LearnerService
func NewLearnerService(learnerRepo repository.LearnerRepository) LearnerService {
	return &learnerService{learnerRepo: learnerRepo}
}

func (s *learnerService) ListLearners(ctx context.Context) ([]models.Learner, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing learners")

	learners, err := s.learnerRepo.List(ctx)
	if err != nil {
		log.Error("failed to list learners: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return learners, nil
}

func (s *learnerService) CreateLearner(ctx context.Context, username string) (*models.Learner, error) {
	log := logger.FromContext(ctx)
	username = strings.TrimSpace(username)
	log.Debug("creating learner: username=%s", username)

	if username == "" {
		return nil, errors.NewValidationError("username", "cannot be empty")
	}
	if len(username) > maxUsernameLength {
		return nil, errors.NewValidationError("username", "too long")
	}

	learner, err := s.learnerRepo.Upsert(ctx, username)
	if err != nil {
		log.Error("failed to create learner: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return learner, nil
}

func (s *learnerService) GetLearner(ctx context.Context, id int64) (*models.Learner, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting learner: id=%d", id)

	learner, err := s.learnerRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get learner: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if learner == nil {
		return nil, errors.NewNotFoundError("learner", id)
	}

	return learner, nil
}

func (s *learnerService) GetLearnerByUsername(ctx context.Context, username string) (*models.Learner, error) {
	log := logger.FromContext(ctx)
	username = strings.TrimSpace(username)
	log.Debug("getting learner: username=%s", username)

	if username == "" {
		return nil, errors.NewValidationError("username", "cannot be empty")
	}

	learner, err := s.learnerRepo.GetByUsername(ctx, username)
	if err != nil {
		log.Error("failed to get learner: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if learner == nil {
		return nil, errors.NewNotFoundError("learner", username)
	}

	return learner, nil
}

func (s *learnerService) DeleteLearner(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting learner: id=%d", id)

	if err := s.learnerRepo.Delete(ctx, id); err != nil {
		log.Error("failed to delete learner: %v", err)
		return errors.NewInternalError(err)
	}

	return nil
}
