package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mansionlab/dealscore/internal/logger"
	"github.com/mansionlab/dealscore/internal/models"
	"github.com/mansionlab/dealscore/internal/repository"
	"github.com/mansionlab/dealscore/internal/scoring"
)

// Service-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidListing  = errors.New("listing is missing its source identity")
)

// ScoredListing bundles a listing with its freshly computed score and the
// cohort size the price comparison was based on.
type ScoredListing struct {
	Listing    models.Listing `json:"listing"`
	Score      scoring.Result `json:"score"`
	CohortSize int            `json:"cohort_size"`
}

// RecomputeSummary reports the outcome of a batch score recompute.
type RecomputeSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ListingService defines the interface for listing business logic operations.
type ListingService interface {
	// GetListing retrieves a listing with its price history.
	// Returns ErrListingNotFound if the listing does not exist.
	GetListing(ctx context.Context, id int64) (*models.Listing, []models.PriceHistoryEntry, error)

	// ListListings returns active listings matching the filter.
	ListListings(ctx context.Context, filter repository.ListingFilter) ([]models.Listing, error)

	// ScoreListing computes the deal score for a listing against its station
	// cohort, persists the snapshot, and returns the full breakdown.
	// Returns ErrListingNotFound if the listing does not exist.
	ScoreListing(ctx context.Context, id int64) (*ScoredListing, error)

	// IngestListing validates and stores a collected listing, then refreshes
	// its score. Returns ErrInvalidListing when the source identity is missing.
	IngestListing(ctx context.Context, listing *models.Listing) (*ScoredListing, error)

	// RecomputeScores re-scores every active listing using a bounded worker
	// pool. Individual failures are counted, not fatal.
	RecomputeScores(ctx context.Context) (*RecomputeSummary, error)
}

type listingService struct {
	repo     repository.ListingRepository
	log      *logger.Logger
	weights  scoring.Weights
	poolSize int
}

// NewListingService creates a new instance of ListingService. poolSize bounds
// the concurrency of batch recomputes; values below 1 are raised to 1.
func NewListingService(repo repository.ListingRepository, log *logger.Logger, weights scoring.Weights, poolSize int) ListingService {
	if poolSize < 1 {
		poolSize = 1
	}
	return &listingService{
		repo:     repo,
		log:      log,
		weights:  weights,
		poolSize: poolSize,
	}
}

func (s *listingService) GetListing(ctx context.Context, id int64) (*models.Listing, []models.PriceHistoryEntry, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to fetch listing", err, map[string]interface{}{"listing_id": id})
		return nil, nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	if listing == nil {
		return nil, nil, ErrListingNotFound
	}

	history, err := s.repo.PriceHistory(ctx, id)
	if err != nil {
		s.log.Error("Failed to fetch price history", err, map[string]interface{}{"listing_id": id})
		return nil, nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	return listing, history, nil
}

func (s *listingService) ListListings(ctx context.Context, filter repository.ListingFilter) ([]models.Listing, error) {
	listings, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list listings", err, nil)
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (s *listingService) ScoreListing(ctx context.Context, id int64) (*ScoredListing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to fetch listing for scoring", err, map[string]interface{}{"listing_id": id})
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	return s.scoreAndPersist(ctx, listing)
}

func (s *listingService) IngestListing(ctx context.Context, listing *models.Listing) (*ScoredListing, error) {
	if listing.Source == "" || listing.SourceID == "" {
		return nil, ErrInvalidListing
	}

	if err := s.repo.Upsert(ctx, listing); err != nil {
		s.log.Error("Failed to upsert listing", err, map[string]interface{}{
			"source":    listing.Source,
			"source_id": listing.SourceID,
		})
		return nil, fmt.Errorf("failed to store listing: %w", err)
	}

	s.log.Info("Listing ingested", map[string]interface{}{
		"listing_id": listing.ID,
		"source":     listing.Source,
		"source_id":  listing.SourceID,
		"station":    listing.StationName,
	})

	return s.scoreAndPersist(ctx, listing)
}

// scoreAndPersist builds the station cohort, runs the scorer, and stores the
// snapshot.
func (s *listingService) scoreAndPersist(ctx context.Context, listing *models.Listing) (*ScoredListing, error) {
	cohort, err := s.repo.FindCohort(ctx, listing.StationName, listing.ID)
	if err != nil {
		s.log.Error("Failed to build cohort", err, map[string]interface{}{
			"listing_id": listing.ID,
			"station":    listing.StationName,
		})
		return nil, fmt.Errorf("failed to build cohort: %w", err)
	}

	comparables := make([]*models.Listing, len(cohort))
	for i := range cohort {
		comparables[i] = &cohort[i]
	}

	result := scoring.Score(listing, comparables, s.weights)

	record := &models.ScoreRecord{
		ListingID:     listing.ID,
		TotalScore:    result.TotalScore,
		PriceScore:    result.CategoryScores.Price,
		LocationScore: result.CategoryScores.Location,
		SpecScore:     result.CategoryScores.Spec,
		CostScore:     result.CategoryScores.Cost,
		FutureScore:   result.CategoryScores.Future,
		Rank:          result.Rank,
	}
	if err := s.repo.SaveScore(ctx, record); err != nil {
		s.log.Error("Failed to save score", err, map[string]interface{}{"listing_id": listing.ID})
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	s.log.Debug("Listing scored", map[string]interface{}{
		"listing_id":  listing.ID,
		"total_score": result.TotalScore,
		"rank":        result.Rank,
		"cohort_size": len(cohort),
	})

	return &ScoredListing{
		Listing:    *listing,
		Score:      result,
		CohortSize: len(cohort),
	}, nil
}

func (s *listingService) RecomputeScores(ctx context.Context) (*RecomputeSummary, error) {
	ids, err := s.repo.ListActiveIDs(ctx)
	if err != nil {
		s.log.Error("Failed to list active listings for recompute", err, nil)
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}

	s.log.Info("Score recompute started", map[string]interface{}{
		"listings": len(ids),
		"workers":  s.poolSize,
	})

	jobs := make(chan int64)
	var wg sync.WaitGroup
	var succeeded, failed int64

	for i := 0; i < s.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if _, err := s.ScoreListing(ctx, id); err != nil {
					atomic.AddInt64(&failed, 1)
					s.log.Warn("Recompute failed for listing", map[string]interface{}{
						"listing_id": id,
						"error":      err.Error(),
					})
					continue
				}
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	summary := &RecomputeSummary{
		Total:     len(ids),
		Succeeded: int(atomic.LoadInt64(&succeeded)),
		Failed:    int(atomic.LoadInt64(&failed)),
	}

	s.log.Info("Score recompute finished", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("recompute interrupted: %w", err)
	}
	return summary, nil
}
