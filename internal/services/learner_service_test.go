package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/services"
	"github.com/vytor/pylearn/internal/testutil/mocks"
)

func TestLearnerService_CreateLearner(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and stores username", func(t *testing.T) {
		repo := new(mocks.MockLearnerRepository)
		repo.On("Upsert", ctx, "ada").Return(&models.Learner{ID: 1, Username: "ada"}, nil)

		learner, err := services.NewLearnerService(repo).CreateLearner(ctx, "  ada ")
		require.NoError(t, err)
		assert.Equal(t, int64(1), learner.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty username", func(t *testing.T) {
		repo := new(mocks.MockLearnerRepository)

		_, err := services.NewLearnerService(repo).CreateLearner(ctx, "   ")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		repo := new(mocks.MockLearnerRepository)
		repo.On("Upsert", ctx, "ada").Return(nil, stderrors.New("disk full"))

		_, err := services.NewLearnerService(repo).CreateLearner(ctx, "ada")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(err))
	})
}

func TestLearnerService_GetLearner(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(mocks.MockLearnerRepository)
		repo.On("Get", ctx, int64(4)).Return(&models.Learner{ID: 4, Username: "grace"}, nil)

		learner, err := services.NewLearnerService(repo).GetLearner(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "grace", learner.Username)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(mocks.MockLearnerRepository)
		repo.On("Get", ctx, int64(4)).Return(nil, nil)

		_, err := services.NewLearnerService(repo).GetLearner(ctx, 4)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
	})
}

func TestLearnerService_GetLearnerByUsername(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLearnerRepository)
	repo.On("GetByUsername", ctx, "grace").Return(nil, nil)

	_, err := services.NewLearnerService(repo).GetLearnerByUsername(ctx, "grace")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestLearnerService_DeleteLearner(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLearnerRepository)
	repo.On("Delete", ctx, int64(2)).Return(nil)

	require.NoError(t, services.NewLearnerService(repo).DeleteLearner(ctx, 2))
	repo.AssertExpectations(t)
}
