package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mansionlab/dealscore/internal/logger"
	"github.com/mansionlab/dealscore/internal/models"
	"github.com/mansionlab/dealscore/internal/repository"
	"github.com/mansionlab/dealscore/internal/scoring"
)

// MockListingRepository is a mock implementation of ListingRepository for testing
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Upsert(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) GetBySourceID(ctx context.Context, source, sourceID string) (*models.Listing, error) {
	args := m.Called(ctx, source, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) FindCohort(ctx context.Context, stationName string, excludeID int64) ([]models.Listing, error) {
	args := m.Called(ctx, stationName, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, filter repository.ListingFilter) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockListingRepository) PriceHistory(ctx context.Context, listingID int64) ([]models.PriceHistoryEntry, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceHistoryEntry), args.Error(1)
}

func (m *MockListingRepository) SaveScore(ctx context.Context, record *models.ScoreRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockListingRepository) GetScore(ctx context.Context, listingID int64) (*models.ScoreRecord, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreRecord), args.Error(1)
}

func (m *MockListingRepository) MarkInactive(ctx context.Context, source string, seenSourceIDs []string) (int64, error) {
	args := m.Called(ctx, source, seenSourceIDs)
	return args.Get(0).(int64), args.Error(1)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleListing(id int64) *models.Listing {
	return &models.Listing{
		ID:          id,
		Source:      "suumo",
		SourceID:    "75481234",
		Title:       "サンプルマンション",
		Address:     "東京都目黒区上目黒1-2-3",
		Prefecture:  "東京都",
		City:        "目黒区",
		StationName: "中目黒",
		Price:       intPtr(5980),
		Area:        floatPtr(70.5),
		IsActive:    true,
	}
}

func newTestService(repo repository.ListingRepository) ListingService {
	return NewListingService(repo, logger.New("test"), scoring.DefaultWeights(), 2)
}

func TestGetListing_Success(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := sampleListing(42)
	history := []models.PriceHistoryEntry{{ListingID: 42, Price: 6180}, {ListingID: 42, Price: 5980}}

	mockRepo.On("GetByID", ctx, int64(42)).Return(expected, nil)
	mockRepo.On("PriceHistory", ctx, int64(42)).Return(history, nil)

	listing, gotHistory, err := service.GetListing(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, expected.SourceID, listing.SourceID)
	assert.Len(t, gotHistory, 2)
	mockRepo.AssertExpectations(t)
}

func TestGetListing_NotFound(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	listing, _, err := service.GetListing(ctx, 99)

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, ErrListingNotFound)
	mockRepo.AssertExpectations(t)
}

func TestGetListing_RepositoryError(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	dbErr := errors.New("connection reset")
	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, dbErr)

	_, _, err := service.GetListing(ctx, 42)

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrListingNotFound)
}

func TestScoreListing_Success(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	listing := sampleListing(42)
	cohort := []models.Listing{*sampleListing(43), *sampleListing(44), *sampleListing(45)}

	mockRepo.On("GetByID", ctx, int64(42)).Return(listing, nil)
	mockRepo.On("FindCohort", ctx, "中目黒", int64(42)).Return(cohort, nil)
	mockRepo.On("SaveScore", ctx, mock.MatchedBy(func(r *models.ScoreRecord) bool {
		return r.ListingID == 42 && r.TotalScore > 0 && r.Rank != ""
	})).Return(nil)

	scored, err := service.ScoreListing(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, 3, scored.CohortSize)
	assert.GreaterOrEqual(t, scored.Score.TotalScore, 0.0)
	assert.LessOrEqual(t, scored.Score.TotalScore, 100.0)
	mockRepo.AssertExpectations(t)
}

func TestScoreListing_NotFound(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)

	_, err := service.ScoreListing(ctx, 7)

	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestScoreListing_SaveScoreError(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(42)).Return(sampleListing(42), nil)
	mockRepo.On("FindCohort", ctx, "中目黒", int64(42)).Return([]models.Listing{}, nil)
	mockRepo.On("SaveScore", ctx, mock.Anything).Return(errors.New("disk full"))

	_, err := service.ScoreListing(ctx, 42)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save score")
}

func TestIngestListing_Success(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	listing := sampleListing(0)
	mockRepo.On("Upsert", ctx, listing).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Listing).ID = 101
	}).Return(nil)
	mockRepo.On("FindCohort", ctx, "中目黒", int64(101)).Return([]models.Listing{}, nil)
	mockRepo.On("SaveScore", ctx, mock.Anything).Return(nil)

	scored, err := service.IngestListing(ctx, listing)

	require.NoError(t, err)
	assert.Equal(t, int64(101), scored.Listing.ID)
	mockRepo.AssertExpectations(t)
}

func TestIngestListing_MissingIdentity(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)

	listing := sampleListing(0)
	listing.SourceID = ""

	_, err := service.IngestListing(context.Background(), listing)

	assert.ErrorIs(t, err, ErrInvalidListing)
	mockRepo.AssertNotCalled(t, "Upsert")
}

func TestRecomputeScores(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	ids := []int64{1, 2, 3}
	mockRepo.On("ListActiveIDs", ctx).Return(ids, nil)

	for _, id := range ids {
		l := sampleListing(id)
		if id == 2 {
			// Listing 2 disappears between listing and scoring.
			mockRepo.On("GetByID", ctx, id).Return(nil, nil)
			continue
		}
		mockRepo.On("GetByID", ctx, id).Return(l, nil)
		mockRepo.On("FindCohort", ctx, "中目黒", id).Return([]models.Listing{}, nil)
	}
	mockRepo.On("SaveScore", ctx, mock.Anything).Return(nil)

	summary, err := service.RecomputeScores(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
}

func TestRecomputeScores_ListError(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("ListActiveIDs", ctx).Return(nil, errors.New("timeout"))

	_, err := service.RecomputeScores(ctx)

	require.Error(t, err)
}

func TestRecomputeScores_Cancelled(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := newTestService(mockRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockRepo.On("ListActiveIDs", ctx).Return([]int64{}, nil)

	summary, err := service.RecomputeScores(ctx)

	require.Error(t, err)
	assert.NotNil(t, summary)
}
