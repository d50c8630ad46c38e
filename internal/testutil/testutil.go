package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pylearn/internal/db"
	"github.com/vytor/pylearn/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied
// and foreign keys enforced.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// Each connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.ApplyMigrations(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// MustCreateLearner inserts a learner row and returns its id.
func MustCreateLearner(t *testing.T, sqlDB *sql.DB, username string) int64 {
	var id int64
	err := sqlDB.QueryRowContext(context.Background(),
		`INSERT INTO learners (username) VALUES (?) RETURNING id`, username).Scan(&id)
	require.NoError(t, err)
	return id
}

// ReviewItem builds a valid item for learnerID, due at nextReview.
func ReviewItem(id string, learnerID int64, nextReview time.Time) models.ReviewItem {
	return models.ReviewItem{
		ID:           id,
		LearnerID:    learnerID,
		LessonID:     1,
		ConceptName:  "concept " + id,
		Difficulty:   0.5,
		Interval:     1,
		EaseFactor:   2.5,
		LastReviewed: nextReview.AddDate(0, 0, -1).UTC(),
		NextReview:   nextReview.UTC(),
	}
}
