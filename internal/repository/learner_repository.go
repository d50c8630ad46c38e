package repository

import (
	"context"

	"github.com/vytor/pylearn/internal/models"
)

// LearnerRepository handles learner data access. Lookups return nil, nil
// when nothing matches.
type LearnerRepository interface {
	Get(ctx context.Context, id int64) (*models.Learner, error)
	GetByUsername(ctx context.Context, username string) (*models.Learner, error)
	List(ctx context.Context) ([]models.Learner, error)
	Upsert(ctx context.Context, username string) (*models.Learner, error)
	Delete(ctx context.Context, id int64) error
}
