package scheduler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/scheduler"
)

func TestExportImport_RoundTrip(t *testing.T) {
	s := newTestScheduler()
	ctx := models.ReviewContext{TimeOfDay: 10, StudySessionLength: 30, PreviousPerformance: 0.7}
	items := []models.ReviewItem{
		s.InitializeConcept(1, "Variables", 0.2),
		s.UpdateAfterReview(s.InitializeConcept(2, "Functions", 0.4), 4, 9000, ctx),
	}
	items = append(items, s.UpdateAfterReview(items[1], 2, 40000, ctx))

	data, err := scheduler.Export(items)
	require.NoError(t, err)
	assert.Contains(t, data, `"lastReviewed": "2025-03-10T12:00:00Z"`)

	imported, err := scheduler.Import(data)
	require.NoError(t, err)
	require.Len(t, imported, len(items))
	for i := range items {
		assert.True(t, items[i].LastReviewed.Equal(imported[i].LastReviewed))
		assert.True(t, items[i].NextReview.Equal(imported[i].NextReview))
		assert.Equal(t, items[i], imported[i])
	}
}

func TestExport_Empty(t *testing.T) {
	data, err := scheduler.Export(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", data)
}

func TestImport_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json at all"},
		{name: "truncated", data: `[{"id": "x"`},
		{name: "wrong shape", data: `{"id": "x"}`},
		{name: "bad date", data: `[{"id": "x", "lastReviewed": "yesterday"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := scheduler.Import(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, scheduler.ErrParse))
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestImport_Null(t *testing.T) {
	items, err := scheduler.Import("null")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestImport_NormalizesOutOfRangeRecords(t *testing.T) {
	data := `[{"id":"x","lessonId":1,"conceptName":"Loops","difficulty":0.5,"interval":0,"repetition":-2,
"easeFactor":4.1,"lastReviewed":"2025-03-01T08:00:00+02:00","nextReview":"2025-03-02T08:00:00+02:00",
"quality":9,"totalReviews":2,"successfulReviews":5,"averageResponseTime":-4,"conceptMastery":250}]`

	items, err := scheduler.Import(data)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, 1, item.Interval)
	assert.Equal(t, 0, item.Repetition)
	assert.Equal(t, scheduler.MaxEaseFactor, item.EaseFactor)
	assert.Equal(t, 5.0, item.Quality)
	assert.Equal(t, 2, item.SuccessfulReviews)
	assert.Equal(t, 0.0, item.AverageResponseTime)
	assert.Equal(t, scheduler.Mastery(item), item.ConceptMastery)
	assert.Equal(t, 6, item.LastReviewed.Hour(), "timestamps should be converted to UTC")
}
