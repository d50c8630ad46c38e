package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
)

type learnerRepository struct {
	db *sql.DB
}

// NewLearnerRepository creates a new LearnerRepository implementation
func NewLearnerRepository(db *sql.DB) repository.LearnerRepository {
	return &learnerRepository{db: db}
}

func (r *learnerRepository) Upsert(ctx context.Context, username string) (*models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("upserting learner for username: %s", username)

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO learners (username)
VALUES (?)
ON CONFLICT(username) DO NOTHING
`, username); err != nil {
		log.Error("failed to upsert learner: %v", err)
		return nil, err
	}

	l, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, sql.ErrNoRows
	}
	log.Debug("learner upserted: id=%d", l.ID)
	return l, nil
}

func (r *learnerRepository) Get(ctx context.Context, id int64) (*models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("getting learner: id=%d", id)

	return r.getOne(ctx, `SELECT id, username, created_at FROM learners WHERE id = ?`, id)
}

func (r *learnerRepository) GetByUsername(ctx context.Context, username string) (*models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("getting learner: username=%s", username)

	return r.getOne(ctx, `SELECT id, username, created_at FROM learners WHERE username = ?`, username)
}

func (r *learnerRepository) getOne(ctx context.Context, query string, arg any) (*models.Learner, error) {
	var l models.Learner
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&l.ID, &l.Username, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("learner_repo").Error("failed to get learner: %v", err)
		return nil, err
	}
	return &l, nil
}

func (r *learnerRepository) List(ctx context.Context) ([]models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("listing learners")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, created_at
FROM learners
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		log.Error("failed to list learners: %v", err)
		return nil, err
	}
	defer rows.Close()

	learners := []models.Learner{}
	for rows.Next() {
		var l models.Learner
		if err := rows.Scan(&l.ID, &l.Username, &l.CreatedAt); err != nil {
			log.Error("failed to scan learner row: %v", err)
			return nil, err
		}
		learners = append(learners, l)
	}

	log.Debug("found %d learners", len(learners))
	return learners, rows.Err()
}

func (r *learnerRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("deleting learner: id=%d", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM learners WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete learner: %v", err)
	}
	return err
}
