package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pylearn/internal/db"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pylearn.db")

	database, err := db.Open("file:" + path)
	require.NoError(t, err)

	for _, table := range []string{"learners", "review_items", "review_events", "learner_stats_cache", "learner_stats_generation"} {
		var name string
		err := database.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
	require.NoError(t, database.Close())

	// Reopening must not re-run applied migrations.
	database, err = db.Open("file:" + path)
	require.NoError(t, err)
	defer database.Close()

	var count int
	require.NoError(t, database.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 4, count)
}
