package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mansionlab/dealscore/internal/config"
	"github.com/mansionlab/dealscore/internal/database"
	"github.com/mansionlab/dealscore/internal/logger"
	"github.com/mansionlab/dealscore/internal/repository"
	"github.com/mansionlab/dealscore/internal/scraper"
	"github.com/mansionlab/dealscore/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env).WithComponent("scraper")

	if len(cfg.Scraper.SearchURLs) == 0 {
		log.Fatal("No search URLs configured", nil, map[string]interface{}{
			"hint": "set SCRAPER_SEARCH_URLS to a comma-separated list of search result pages",
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
		})
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", err, nil)
	}

	repo := repository.NewListingRepository(db)
	service := services.NewListingService(repo, log, cfg.Scoring.Weights, cfg.Scraper.RecomputePool)

	client := scraper.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.UserAgent, cfg.Scraper.FetchInterval)
	parser := scraper.NewParser()

	run := &collectRun{
		cfg:     cfg.Scraper,
		log:     log,
		client:  client,
		parser:  parser,
		service: service,
		repo:    repo,
	}

	if err := run.execute(ctx); err != nil {
		log.Fatal("Collection run failed", err, nil)
	}
}

// collectRun holds the dependencies of one collection pass.
type collectRun struct {
	cfg     config.ScraperConfig
	log     *logger.Logger
	client  *scraper.Client
	parser  *scraper.Parser
	service services.ListingService
	repo    repository.ListingRepository
}

// execute walks the configured search pages, ingests every listing found, and
// then deactivates listings that were not seen and refreshes all scores.
func (r *collectRun) execute(ctx context.Context) error {
	urls, err := r.collectListingURLs(ctx)
	if err != nil {
		return err
	}

	r.log.Info("Search walk complete", map[string]interface{}{
		"listings": len(urls),
	})

	seen := make([]string, 0, len(urls))
	ingested, failed := 0, 0
	for _, listingURL := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}

		sourceID, err := r.ingestOne(ctx, listingURL)
		if err != nil {
			failed++
			r.log.Warn("Failed to collect listing", map[string]interface{}{
				"url":   listingURL,
				"error": err.Error(),
			})
			continue
		}
		ingested++
		seen = append(seen, sourceID)
	}

	r.log.Info("Ingest complete", map[string]interface{}{
		"ingested": ingested,
		"failed":   failed,
	})

	if len(seen) > 0 {
		deactivated, err := r.repo.MarkInactive(ctx, "suumo", seen)
		if err != nil {
			return fmt.Errorf("failed to deactivate missing listings: %w", err)
		}
		r.log.Info("Missing listings deactivated", map[string]interface{}{
			"deactivated": deactivated,
		})
	}

	// Fresh listings change every cohort they belong to, so all scores are
	// recomputed at the end of the run.
	summary, err := r.service.RecomputeScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to recompute scores: %w", err)
	}
	r.log.Info("Run finished", map[string]interface{}{
		"scored": summary.Succeeded,
		"failed": summary.Failed,
	})
	return nil
}

// collectListingURLs pages through every configured search URL and returns
// the deduplicated detail-page URLs found.
func (r *collectRun) collectListingURLs(ctx context.Context) ([]string, error) {
	var urls []string
	known := make(map[string]bool)

	for _, searchURL := range r.cfg.SearchURLs {
		for page := 1; page <= r.cfg.MaxSearchPages; page++ {
			pageURL := scraper.SearchPageURL(searchURL, page)

			doc, err := r.client.FetchDocument(ctx, pageURL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.log.Warn("Failed to fetch search page", map[string]interface{}{
					"url":   pageURL,
					"error": err.Error(),
				})
				break
			}

			found := scraper.ListingURLs(doc, r.client.BaseURL())
			if len(found) == 0 {
				break
			}

			added := 0
			for _, u := range found {
				if !known[u] {
					known[u] = true
					urls = append(urls, u)
					added++
				}
			}

			r.log.Debug("Search page walked", map[string]interface{}{
				"url":   pageURL,
				"found": len(found),
				"new":   added,
			})
		}
	}
	return urls, nil
}

// ingestOne fetches, parses, and stores a single listing. It returns the
// listing's source ID on success.
func (r *collectRun) ingestOne(ctx context.Context, listingURL string) (string, error) {
	detailURL := scraper.DetailPageURL(listingURL)

	doc, err := r.client.FetchDocument(ctx, detailURL)
	if err != nil {
		return "", err
	}

	listing := r.parser.ParseDetail(doc, listingURL)
	if listing.SourceID == "" {
		return "", fmt.Errorf("no source ID in URL %s", listingURL)
	}

	scored, err := r.service.IngestListing(ctx, listing)
	if err != nil {
		return "", err
	}

	r.log.WithListing(listing.Source, listing.SourceID).Debug("Listing collected", map[string]interface{}{
		"title": listing.Title,
		"score": scored.Score.TotalScore,
		"rank":  scored.Score.Rank,
	})
	return listing.SourceID, nil
}
