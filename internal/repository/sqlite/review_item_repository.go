package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
)

var reviewItemColumns = []string{
	"id", "learner_id", "lesson_id", "concept_name", "difficulty", "interval_days", "repetition",
	"ease_factor", "last_reviewed", "next_review", "quality", "total_reviews", "successful_reviews",
	"average_response_time", "concept_mastery",
}

const insertReviewItemSQL = `
INSERT INTO review_items (id, learner_id, lesson_id, concept_name, difficulty, interval_days, repetition,
    ease_factor, last_reviewed, next_review, quality, total_reviews, successful_reviews,
    average_response_time, concept_mastery)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertReviewItemSQL = insertReviewItemSQL + `ON CONFLICT(learner_id, id) DO UPDATE SET
    lesson_id = excluded.lesson_id, concept_name = excluded.concept_name, difficulty = excluded.difficulty,
    interval_days = excluded.interval_days, repetition = excluded.repetition, ease_factor = excluded.ease_factor,
    last_reviewed = excluded.last_reviewed, next_review = excluded.next_review, quality = excluded.quality,
    total_reviews = excluded.total_reviews, successful_reviews = excluded.successful_reviews,
    average_response_time = excluded.average_response_time, concept_mastery = excluded.concept_mastery
`

type reviewItemRepository struct {
	db *sql.DB
}

// NewReviewItemRepository creates a new ReviewItemRepository implementation
func NewReviewItemRepository(db *sql.DB) repository.ReviewItemRepository {
	return &reviewItemRepository{db: db}
}

func scanReviewItem(row rowScanner) (models.ReviewItem, error) {
	var it models.ReviewItem
	err := row.Scan(&it.ID, &it.LearnerID, &it.LessonID, &it.ConceptName, &it.Difficulty, &it.Interval, &it.Repetition,
		&it.EaseFactor, &it.LastReviewed, &it.NextReview, &it.Quality, &it.TotalReviews, &it.SuccessfulReviews,
		&it.AverageResponseTime, &it.ConceptMastery)
	it.LastReviewed = it.LastReviewed.UTC()
	it.NextReview = it.NextReview.UTC()
	return it, err
}

func insertArgs(it models.ReviewItem) []any {
	return []any{it.ID, it.LearnerID, it.LessonID, it.ConceptName, it.Difficulty, it.Interval, it.Repetition,
		it.EaseFactor, it.LastReviewed.UTC(), it.NextReview.UTC(), it.Quality, it.TotalReviews, it.SuccessfulReviews,
		it.AverageResponseTime, it.ConceptMastery}
}

func applyItemFilter(query squirrel.SelectBuilder, f models.ReviewItemFilter) squirrel.SelectBuilder {
	if f.LearnerID != 0 {
		query = query.Where(squirrel.Eq{"learner_id": f.LearnerID})
	}
	if f.LessonID != 0 {
		query = query.Where(squirrel.Eq{"lesson_id": f.LessonID})
	}
	if f.DueBefore != nil {
		query = query.Where(squirrel.LtOrEq{"next_review": f.DueBefore.UTC()})
	}
	if f.MinMastery != nil {
		query = query.Where(squirrel.GtOrEq{"concept_mastery": *f.MinMastery})
	}
	if f.MaxMastery != nil {
		query = query.Where(squirrel.Lt{"concept_mastery": *f.MaxMastery})
	}
	return query
}

func (r *reviewItemRepository) Get(ctx context.Context, learnerID int64, id string) (*models.ReviewItem, error) {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("getting review item: learner_id=%d, id=%s", learnerID, id)

	query, args, err := sqlBuilder.Select(reviewItemColumns...).
		From("review_items").
		Where(squirrel.Eq{"id": id, "learner_id": learnerID}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	item, err := scanReviewItem(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("review item not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get review item: %v", err)
		return nil, err
	}
	return &item, nil
}

func (r *reviewItemRepository) List(ctx context.Context, filter models.ReviewItemFilter) ([]models.ReviewItem, error) {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("listing review items: learner_id=%d, lesson_id=%d, limit=%d, offset=%d",
		filter.LearnerID, filter.LessonID, filter.Limit, filter.Offset)

	query := applyItemFilter(sqlBuilder.Select(reviewItemColumns...).From("review_items"), filter).
		OrderBy("created_at ASC", "rowid ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
		if filter.Offset > 0 {
			query = query.Offset(uint64(filter.Offset))
		}
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list review items: %v", err)
		return nil, err
	}
	defer rows.Close()

	items := []models.ReviewItem{}
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			log.Error("failed to scan review item row: %v", err)
			return nil, err
		}
		items = append(items, item)
	}
	log.Debug("found %d review items", len(items))
	return items, rows.Err()
}

func (r *reviewItemRepository) Count(ctx context.Context, filter models.ReviewItemFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")

	sqlStr, args, err := applyItemFilter(sqlBuilder.Select("COUNT(*)").From("review_items"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count review items: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *reviewItemRepository) Insert(ctx context.Context, item models.ReviewItem) error {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("inserting review item: learner_id=%d, concept=%s", item.LearnerID, item.ConceptName)

	if _, err := r.db.ExecContext(ctx, insertReviewItemSQL, insertArgs(item)...); err != nil {
		log.Error("failed to insert review item: %v", err)
		return err
	}
	return nil
}

func (r *reviewItemRepository) Update(ctx context.Context, item models.ReviewItem, prevTotalReviews int) error {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("updating review item: id=%s, interval=%d, ease=%.2f", item.ID, item.Interval, item.EaseFactor)

	sqlStr, args, err := sqlBuilder.Update("review_items").
		SetMap(map[string]any{
			"interval_days":         item.Interval,
			"repetition":            item.Repetition,
			"ease_factor":           item.EaseFactor,
			"last_reviewed":         item.LastReviewed.UTC(),
			"next_review":           item.NextReview.UTC(),
			"quality":               item.Quality,
			"total_reviews":         item.TotalReviews,
			"successful_reviews":    item.SuccessfulReviews,
			"average_response_time": item.AverageResponseTime,
			"concept_mastery":       item.ConceptMastery,
		}).
		Where(squirrel.Eq{"id": item.ID, "learner_id": item.LearnerID, "total_reviews": prevTotalReviews}).
		ToSql()
	if err != nil {
		log.Error("failed to build update: %v", err)
		return err
	}

	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to update review item: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Debug("review item not updated, stale or missing: id=%s", item.ID)
		return repository.ErrStaleItem
	}
	return nil
}

// ReplaceAll makes items the learner's complete item set. Items whose id is
// already stored are updated in place, so their review history survives;
// stored items missing from the set are deleted together with their history.
func (r *reviewItemRepository) ReplaceAll(ctx context.Context, learnerID int64, items []models.ReviewItem) error {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("replacing review items: learner_id=%d, count=%d", learnerID, len(items))

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	deleteSQL, deleteArgs, err := sqlBuilder.Delete("review_items").
		Where(squirrel.Eq{"learner_id": learnerID}).
		Where(squirrel.NotEq{"id": ids}).
		ToSql()
	if err != nil {
		log.Error("failed to build delete: %v", err)
		return err
	}

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteSQL, deleteArgs...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			log.Debug("removed %d review items absent from the new set", n)
		}

		stmt, err := tx.PrepareContext(ctx, upsertReviewItemSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, item := range items {
			item.LearnerID = learnerID
			if _, err := stmt.ExecContext(ctx, insertArgs(item)...); err != nil {
				log.Error("failed to upsert review item %s: %v", item.ID, err)
				return err
			}
		}
		return nil
	})
}

func (r *reviewItemRepository) InsertEvent(ctx context.Context, e models.ReviewEvent) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("inserting review event: item_id=%s, quality=%.1f, response_time=%.0fms", e.ItemID, e.Quality, e.ResponseTimeMs)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO review_events (learner_id, item_id, quality, adjusted_quality, response_time_ms, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?)
`, e.LearnerID, e.ItemID, e.Quality, e.AdjustedQuality, e.ResponseTimeMs, e.ReviewedAt.UTC())
	if err != nil {
		log.Error("failed to insert review event: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *reviewItemRepository) Events(ctx context.Context, learnerID int64, itemID string, limit int) ([]models.ReviewEvent, error) {
	log := logger.FromContext(ctx).WithPrefix("review_item_repo")
	log.Debug("listing review events: learner_id=%d, item_id=%s, limit=%d", learnerID, itemID, limit)

	query := sqlBuilder.Select("id", "learner_id", "item_id", "quality", "adjusted_quality", "response_time_ms", "reviewed_at").
		From("review_events").
		Where(squirrel.Eq{"learner_id": learnerID, "item_id": itemID}).
		OrderBy("reviewed_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list review events: %v", err)
		return nil, err
	}
	defer rows.Close()

	events := []models.ReviewEvent{}
	for rows.Next() {
		var e models.ReviewEvent
		if err := rows.Scan(&e.ID, &e.LearnerID, &e.ItemID, &e.Quality, &e.AdjustedQuality, &e.ResponseTimeMs, &e.ReviewedAt); err != nil {
			log.Error("failed to scan review event row: %v", err)
			return nil, err
		}
		e.ReviewedAt = e.ReviewedAt.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
