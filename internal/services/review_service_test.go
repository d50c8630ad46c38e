package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository"
	"github.com/vytor/pylearn/internal/scheduler"
	"github.com/vytor/pylearn/internal/services"
	"github.com/vytor/pylearn/internal/testutil"
	"github.com/vytor/pylearn/internal/testutil/mocks"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestScheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.WithClock(func() time.Time { return testNow }))
}

type ReviewServiceSuite struct {
	suite.Suite
	ctx      context.Context
	learners *mocks.MockLearnerRepository
	items    *mocks.MockReviewItemRepository
	stats    *mocks.MockStatsRepository
	queue    *mocks.MockJobQueue
	svc      services.ReviewService
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.learners = new(mocks.MockLearnerRepository)
	s.items = new(mocks.MockReviewItemRepository)
	s.stats = new(mocks.MockStatsRepository)
	s.queue = new(mocks.MockJobQueue)
	s.svc = services.NewReviewService(s.learners, s.items, s.stats, s.queue, newTestScheduler())
}

func (s *ReviewServiceSuite) learnerExists(id int64) {
	s.learners.On("Get", s.ctx, id).Return(&models.Learner{ID: id, Username: "ada"}, nil)
}

func (s *ReviewServiceSuite) expectRefresh(id int64) {
	s.stats.On("InvalidateMetrics", s.ctx, id).Return(nil).Once()
	s.queue.On("EnqueueStatsRefresh", id).Return(nil).Once()
}

func (s *ReviewServiceSuite) TestAddConcept() {
	s.learnerExists(1)
	s.items.On("Insert", s.ctx, mock.MatchedBy(func(it models.ReviewItem) bool {
		return it.LearnerID == 1 && it.ConceptName == "Loops" && it.Interval == 1 && it.EaseFactor == 2.5
	})).Return(nil)
	s.expectRefresh(1)

	item, err := s.svc.AddConcept(s.ctx, 1, 7, " Loops ", 0.3)
	s.Require().NoError(err)
	s.NotEmpty(item.ID)
	s.Equal(int64(7), item.LessonID)
	s.Equal(testNow.AddDate(0, 0, 1), item.NextReview)

	s.items.AssertExpectations(s.T())
	s.queue.AssertExpectations(s.T())
}

func (s *ReviewServiceSuite) TestAddConcept_Validation() {
	cases := []struct {
		name       string
		concept    string
		difficulty float64
	}{
		{"empty name", "  ", 0.5},
		{"difficulty too high", "Loops", 1.5},
		{"difficulty negative", "Loops", -0.2},
		{"difficulty below floor", "Loops", 0.05},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.AddConcept(s.ctx, 1, 1, tc.concept, tc.difficulty)
			s.Require().Error(err)
			s.Equal(errors.ErrCodeValidation, errors.CodeOf(err))
		})
	}
	s.items.AssertNotCalled(s.T(), "Insert", mock.Anything, mock.Anything)
}

func (s *ReviewServiceSuite) TestAddConcept_UnknownLearner() {
	s.learners.On("Get", s.ctx, int64(9)).Return(nil, nil)

	_, err := s.svc.AddConcept(s.ctx, 9, 1, "Loops", 0.5)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeNotFound, errors.CodeOf(err))
}

func (s *ReviewServiceSuite) TestRecordReview() {
	item := testutil.ReviewItem("a", 1, testNow)
	s.items.On("Get", s.ctx, int64(1), "a").Return(&item, nil)
	s.items.On("Update", s.ctx, mock.MatchedBy(func(it models.ReviewItem) bool {
		return it.ID == "a" && it.TotalReviews == 1 && it.SuccessfulReviews == 1 && it.Repetition == 1
	}), 0).Return(nil)
	s.items.On("InsertEvent", s.ctx, mock.MatchedBy(func(e models.ReviewEvent) bool {
		return e.ItemID == "a" && e.LearnerID == 1 && e.Quality == 5 && e.ReviewedAt.Equal(testNow)
	})).Return(int64(1), nil)
	s.expectRefresh(1)

	updated, err := s.svc.RecordReview(s.ctx, 1, "a", models.ReviewSubmission{
		Quality:        5,
		ResponseTimeMs: 10000,
		Context:        models.ReviewContext{TimeOfDay: 12, StudySessionLength: 10, PreviousPerformance: 0.5},
	})
	s.Require().NoError(err)
	s.Equal(1, updated.Interval)
	s.Equal(testNow, updated.LastReviewed)
	s.Equal(testNow.AddDate(0, 0, 1), updated.NextReview)
	s.Equal(0, item.TotalReviews, "input item must not be mutated")

	s.items.AssertExpectations(s.T())
	s.stats.AssertExpectations(s.T())
	s.queue.AssertExpectations(s.T())
}

func (s *ReviewServiceSuite) TestRecordReview_EventAndQueueFailuresAreNotFatal() {
	item := testutil.ReviewItem("a", 1, testNow)
	s.items.On("Get", s.ctx, int64(1), "a").Return(&item, nil)
	s.items.On("Update", s.ctx, mock.Anything, 0).Return(nil)
	s.items.On("InsertEvent", s.ctx, mock.Anything).Return(int64(0), stderrors.New("locked"))
	s.stats.On("InvalidateMetrics", s.ctx, int64(1)).Return(stderrors.New("locked"))
	s.queue.On("EnqueueStatsRefresh", int64(1)).Return(stderrors.New("queue full"))

	_, err := s.svc.RecordReview(s.ctx, 1, "a", models.ReviewSubmission{Quality: 1, ResponseTimeMs: 1000})
	s.Require().NoError(err)
}

func (s *ReviewServiceSuite) TestRecordReview_RetriesAfterConcurrentUpdate() {
	before := testutil.ReviewItem("a", 1, testNow)
	after := before
	after.TotalReviews = 1
	after.SuccessfulReviews = 1
	after.Repetition = 1

	s.items.On("Get", s.ctx, int64(1), "a").Return(&before, nil).Once()
	s.items.On("Update", s.ctx, mock.Anything, 0).Return(repository.ErrStaleItem).Once()
	s.items.On("Get", s.ctx, int64(1), "a").Return(&after, nil).Once()
	s.items.On("Update", s.ctx, mock.MatchedBy(func(it models.ReviewItem) bool {
		return it.TotalReviews == 2 && it.SuccessfulReviews == 2
	}), 1).Return(nil).Once()
	s.items.On("InsertEvent", s.ctx, mock.Anything).Return(int64(1), nil)
	s.expectRefresh(1)

	updated, err := s.svc.RecordReview(s.ctx, 1, "a", models.ReviewSubmission{Quality: 5, ResponseTimeMs: 5000})
	s.Require().NoError(err)
	s.Equal(2, updated.TotalReviews, "no review is lost")
	s.items.AssertExpectations(s.T())
}

func (s *ReviewServiceSuite) TestRecordReview_ConflictAfterRepeatedUpdates() {
	item := testutil.ReviewItem("a", 1, testNow)
	s.items.On("Get", s.ctx, int64(1), "a").Return(&item, nil)
	s.items.On("Update", s.ctx, mock.Anything, 0).Return(repository.ErrStaleItem)

	_, err := s.svc.RecordReview(s.ctx, 1, "a", models.ReviewSubmission{Quality: 4, ResponseTimeMs: 1000})
	s.Require().Error(err)
	s.Equal(errors.ErrCodeConflict, errors.CodeOf(err))
	s.items.AssertNumberOfCalls(s.T(), "Update", 3)
	s.items.AssertNotCalled(s.T(), "InsertEvent", mock.Anything, mock.Anything)
}

func (s *ReviewServiceSuite) TestRecordReview_MissingItem() {
	s.items.On("Get", s.ctx, int64(1), "nope").Return(nil, nil)

	_, err := s.svc.RecordReview(s.ctx, 1, "nope", models.ReviewSubmission{Quality: 4, ResponseTimeMs: 1000})
	s.Require().Error(err)
	s.Equal(errors.ErrCodeNotFound, errors.CodeOf(err))
}

func (s *ReviewServiceSuite) TestRecordReview_NegativeResponseTime() {
	_, err := s.svc.RecordReview(s.ctx, 1, "a", models.ReviewSubmission{Quality: 4, ResponseTimeMs: -1})
	s.Require().Error(err)
	s.Equal(errors.ErrCodeValidation, errors.CodeOf(err))
}

func (s *ReviewServiceSuite) TestHistory() {
	item := testutil.ReviewItem("a", 1, testNow)
	s.items.On("Get", s.ctx, int64(1), "a").Return(&item, nil)
	s.items.On("Events", s.ctx, int64(1), "a", 20).Return([]models.ReviewEvent{{ID: 2}, {ID: 1}}, nil).Once()
	s.items.On("Events", s.ctx, int64(1), "a", 200).Return([]models.ReviewEvent{}, nil).Once()

	events, err := s.svc.History(s.ctx, 1, "a", 0)
	s.Require().NoError(err)
	s.Len(events, 2)

	_, err = s.svc.History(s.ctx, 1, "a", 5000)
	s.Require().NoError(err)
	s.items.AssertExpectations(s.T())
}

func (s *ReviewServiceSuite) TestHistory_MissingItem() {
	s.items.On("Get", s.ctx, int64(1), "nope").Return(nil, nil)

	_, err := s.svc.History(s.ctx, 1, "nope", 10)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeNotFound, errors.CodeOf(err))
	s.items.AssertNotCalled(s.T(), "Events", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReviewServiceSuite) TestListItems() {
	filter := models.ReviewItemFilter{LearnerID: 1, Limit: 10}
	s.learnerExists(1)
	s.items.On("List", s.ctx, filter).Return([]models.ReviewItem{testutil.ReviewItem("a", 1, testNow)}, nil)
	s.items.On("Count", s.ctx, filter).Return(12, nil)

	items, total, err := s.svc.ListItems(s.ctx, filter)
	s.Require().NoError(err)
	s.Len(items, 1)
	s.Equal(12, total)
}

func (s *ReviewServiceSuite) TestDueItems() {
	s.learnerExists(1)
	s.items.On("List", s.ctx, models.ReviewItemFilter{LearnerID: 1}).Return([]models.ReviewItem{
		testutil.ReviewItem("later", 1, testNow.AddDate(0, 0, 2)),
		testutil.ReviewItem("today", 1, testNow),
		testutil.ReviewItem("overdue", 1, testNow.AddDate(0, 0, -3)),
	}, nil)

	due, err := s.svc.DueItems(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal("overdue", due[0].ID)
	s.Equal("today", due[1].ID)
}

func (s *ReviewServiceSuite) TestBuildSession() {
	s.learnerExists(1)
	var items []models.ReviewItem
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		items = append(items, testutil.ReviewItem(id, 1, testNow.AddDate(0, 0, -1)))
	}
	s.items.On("List", s.ctx, models.ReviewItemFilter{LearnerID: 1}).Return(items, nil)

	session, err := s.svc.BuildSession(s.ctx, 1, 6, models.SessionPreferences{})
	s.Require().NoError(err)
	s.Len(session, 3)
}

func (s *ReviewServiceSuite) TestBuildSession_Validation() {
	_, err := s.svc.BuildSession(s.ctx, 1, -5, models.SessionPreferences{})
	s.Require().Error(err)
	s.Equal(errors.ErrCodeValidation, errors.CodeOf(err))

	bad := 3.0
	_, err = s.svc.BuildSession(s.ctx, 1, 10, models.SessionPreferences{PreferredDifficulty: &bad})
	s.Require().Error(err)
	s.Equal(errors.ErrCodeValidation, errors.CodeOf(err))
}

func (s *ReviewServiceSuite) TestExportImportRoundTrip() {
	s.learnerExists(1)
	original := []models.ReviewItem{
		testutil.ReviewItem("a", 1, testNow),
		testutil.ReviewItem("b", 1, testNow.AddDate(0, 0, 3)),
	}
	s.items.On("List", s.ctx, models.ReviewItemFilter{LearnerID: 1}).Return(original, nil)

	data, err := s.svc.Export(s.ctx, 1)
	s.Require().NoError(err)

	var stored []models.ReviewItem
	s.items.On("ReplaceAll", s.ctx, int64(1), mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]models.ReviewItem) }).
		Return(nil)
	s.expectRefresh(1)

	n, err := s.svc.Import(s.ctx, 1, data)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Require().Len(stored, 2)
	for i := range original {
		s.Equal(original[i].ID, stored[i].ID)
		s.Equal(int64(1), stored[i].LearnerID)
		s.True(original[i].NextReview.Equal(stored[i].NextReview))
		s.Equal(original[i].EaseFactor, stored[i].EaseFactor)
	}
}

func (s *ReviewServiceSuite) TestImport_Malformed() {
	n, err := s.svc.Import(s.ctx, 1, "{not json")
	s.Require().Error(err)
	s.Equal(0, n)
	s.Equal(errors.ErrCodeParse, errors.CodeOf(err))
	s.True(errors.Is(err, scheduler.ErrParse))
	s.items.AssertNotCalled(s.T(), "ReplaceAll", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReviewServiceSuite) TestImport_DuplicateIDs() {
	s.learnerExists(1)
	data := `[{"id":"x","conceptName":"A"},{"id":"x","conceptName":"B"}]`

	_, err := s.svc.Import(s.ctx, 1, data)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeValidation, errors.CodeOf(err))
}

func (s *ReviewServiceSuite) TestImport_AssignsMissingIDs() {
	s.learnerExists(1)
	var stored []models.ReviewItem
	s.items.On("ReplaceAll", s.ctx, int64(1), mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]models.ReviewItem) }).
		Return(nil)
	s.expectRefresh(1)

	_, err := s.svc.Import(s.ctx, 1, `[{"conceptName":"A"},{"conceptName":"B"}]`)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.NotEmpty(stored[0].ID)
	s.NotEqual(stored[0].ID, stored[1].ID)
}

func TestReviewService_NilQueueOnlyInvalidates(t *testing.T) {
	ctx := context.Background()
	learners := new(mocks.MockLearnerRepository)
	items := new(mocks.MockReviewItemRepository)
	stats := new(mocks.MockStatsRepository)
	learners.On("Get", ctx, int64(1)).Return(&models.Learner{ID: 1}, nil)
	items.On("Insert", ctx, mock.Anything).Return(nil)
	stats.On("InvalidateMetrics", ctx, int64(1)).Return(nil)

	svc := services.NewReviewService(learners, items, stats, nil, newTestScheduler())
	_, err := svc.AddConcept(ctx, 1, 1, "Functions", 0)
	require.NoError(t, err)
	stats.AssertExpectations(t)
	items.AssertExpectations(t)
	assert.Len(t, stats.Calls, 1)
}
