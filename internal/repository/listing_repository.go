package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mansionlab/dealscore/internal/database"
	"github.com/mansionlab/dealscore/internal/models"
)

// ListingFilter narrows the result set of List. Zero values mean "no filter".
type ListingFilter struct {
	Prefecture string
	City       string
	Station    string
	Layout     string
	MinPrice   *int // 万円
	MaxPrice   *int // 万円
	MaxAge     *int // years
	Limit      int
	Offset     int
}

// ListingRepository defines the interface for listing data access operations.
type ListingRepository interface {
	// Upsert inserts a listing or updates the existing row matched by
	// (source, source_id). The listing's ID and timestamps are populated on
	// return. When an existing row's price changes, the new price is appended
	// to the price history.
	Upsert(ctx context.Context, listing *models.Listing) error

	// GetByID fetches a listing by its primary key.
	// Returns nil, nil if no listing is found (not an error).
	GetByID(ctx context.Context, id int64) (*models.Listing, error)

	// GetBySourceID fetches a listing by its source identity.
	// Returns nil, nil if no listing is found (not an error).
	GetBySourceID(ctx context.Context, source, sourceID string) (*models.Listing, error)

	// FindCohort returns the active listings sharing the given nearest
	// station, excluding the listing identified by excludeID. An empty slice
	// is not an error.
	FindCohort(ctx context.Context, stationName string, excludeID int64) ([]models.Listing, error)

	// List returns active listings matching the filter, newest first.
	List(ctx context.Context, filter ListingFilter) ([]models.Listing, error)

	// ListActiveIDs returns the IDs of all active listings.
	ListActiveIDs(ctx context.Context) ([]int64, error)

	// PriceHistory returns the recorded prices for a listing, oldest first.
	PriceHistory(ctx context.Context, listingID int64) ([]models.PriceHistoryEntry, error)

	// SaveScore stores a score snapshot, replacing any previous snapshot for
	// the same listing. The record's ID and CalculatedAt are populated.
	SaveScore(ctx context.Context, record *models.ScoreRecord) error

	// GetScore fetches the stored score snapshot for a listing.
	// Returns nil, nil if no snapshot exists.
	GetScore(ctx context.Context, listingID int64) (*models.ScoreRecord, error)

	// MarkInactive flags all listings from the given source whose source ID
	// is not in the seen set. It returns the number of listings deactivated.
	MarkInactive(ctx context.Context, source string, seenSourceIDs []string) (int64, error)
}

type listingRepository struct {
	db *database.Database
}

// NewListingRepository creates a new instance of ListingRepository.
func NewListingRepository(db *database.Database) ListingRepository {
	return &listingRepository{
		db: db,
	}
}

const listingColumns = `
	id, source, source_id, url, title, address, prefecture, city,
	station_name, access_info, price, area, price_per_sqm, layout,
	building_age, floor, direction, station_distance, management_fee,
	repair_reserve, features, is_active, created_at, updated_at`

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var featuresJSON []byte

	err := row.Scan(
		&l.ID,
		&l.Source,
		&l.SourceID,
		&l.URL,
		&l.Title,
		&l.Address,
		&l.Prefecture,
		&l.City,
		&l.StationName,
		&l.AccessInfo,
		&l.Price,
		&l.Area,
		&l.PricePerSqm,
		&l.Layout,
		&l.BuildingAge,
		&l.Floor,
		&l.Direction,
		&l.StationDistance,
		&l.ManagementFee,
		&l.RepairReserve,
		&featuresJSON,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Features = models.ParseFeatures(string(featuresJSON))
	return &l, nil
}

func (r *listingRepository) Upsert(ctx context.Context, listing *models.Listing) error {
	listing.DerivePricePerSqm()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Look up the current price so a change can be recorded in the history.
	var existingID int64
	var existingPrice *int
	err = tx.QueryRow(ctx,
		`SELECT id, price FROM listings WHERE source = $1 AND source_id = $2`,
		listing.Source, listing.SourceID,
	).Scan(&existingID, &existingPrice)
	isNew := errors.Is(err, pgx.ErrNoRows)
	if err != nil && !isNew {
		return fmt.Errorf("failed to look up listing %s/%s: %w", listing.Source, listing.SourceID, err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO listings (
			source, source_id, url, title, address, prefecture, city,
			station_name, access_info, price, area, price_per_sqm, layout,
			building_age, floor, direction, station_distance, management_fee,
			repair_reserve, features, is_active, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, TRUE, now()
		)
		ON CONFLICT (source, source_id) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			address = EXCLUDED.address,
			prefecture = EXCLUDED.prefecture,
			city = EXCLUDED.city,
			station_name = EXCLUDED.station_name,
			access_info = EXCLUDED.access_info,
			price = EXCLUDED.price,
			area = EXCLUDED.area,
			price_per_sqm = EXCLUDED.price_per_sqm,
			layout = EXCLUDED.layout,
			building_age = EXCLUDED.building_age,
			floor = EXCLUDED.floor,
			direction = EXCLUDED.direction,
			station_distance = EXCLUDED.station_distance,
			management_fee = EXCLUDED.management_fee,
			repair_reserve = EXCLUDED.repair_reserve,
			features = EXCLUDED.features,
			is_active = TRUE,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		listing.Source, listing.SourceID, listing.URL, listing.Title,
		listing.Address, listing.Prefecture, listing.City, listing.StationName,
		listing.AccessInfo, listing.Price, listing.Area, listing.PricePerSqm,
		listing.Layout, listing.BuildingAge, listing.Floor, listing.Direction,
		listing.StationDistance, listing.ManagementFee, listing.RepairReserve,
		listing.Features.Encode(),
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert listing %s/%s: %w", listing.Source, listing.SourceID, err)
	}

	// Record the initial price, and any later change.
	if listing.Price != nil {
		changed := isNew || existingPrice == nil || *existingPrice != *listing.Price
		if changed {
			_, err = tx.Exec(ctx,
				`INSERT INTO price_history (listing_id, price) VALUES ($1, $2)`,
				listing.ID, *listing.Price,
			)
			if err != nil {
				return fmt.Errorf("failed to record price history for listing %d: %w", listing.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT`+listingColumns+` FROM listings WHERE id = $1`, id)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query listing %d: %w", id, err)
	}
	return listing, nil
}

func (r *listingRepository) GetBySourceID(ctx context.Context, source, sourceID string) (*models.Listing, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT`+listingColumns+` FROM listings WHERE source = $1 AND source_id = $2`,
		source, sourceID)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query listing %s/%s: %w", source, sourceID, err)
	}
	return listing, nil
}

func (r *listingRepository) FindCohort(ctx context.Context, stationName string, excludeID int64) ([]models.Listing, error) {
	if stationName == "" {
		return []models.Listing{}, nil
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT`+listingColumns+`
		 FROM listings
		 WHERE station_name = $1 AND id <> $2 AND is_active`,
		stationName, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort for station %s: %w", stationName, err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *listingRepository) List(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "is_active")
	if filter.Prefecture != "" {
		args = append(args, filter.Prefecture)
		conditions = append(conditions, "prefecture = $"+strconv.Itoa(len(args)))
	}
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		conditions = append(conditions, "city LIKE $"+strconv.Itoa(len(args)))
	}
	if filter.Station != "" {
		args = append(args, filter.Station)
		conditions = append(conditions, "station_name = $"+strconv.Itoa(len(args)))
	}
	if filter.Layout != "" {
		args = append(args, filter.Layout)
		conditions = append(conditions, "layout = $"+strconv.Itoa(len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conditions = append(conditions, "price >= $"+strconv.Itoa(len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, "price <= $"+strconv.Itoa(len(args)))
	}
	if filter.MaxAge != nil {
		args = append(args, *filter.MaxAge)
		conditions = append(conditions, "building_age <= $"+strconv.Itoa(len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	limitClause := " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetClause := " OFFSET $" + strconv.Itoa(len(args))

	query := `SELECT` + listingColumns + ` FROM listings WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY updated_at DESC, id DESC` + limitClause + offsetClause

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *listingRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM listings WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active listing IDs: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan listing ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing IDs: %w", err)
	}
	return ids, nil
}

func (r *listingRepository) PriceHistory(ctx context.Context, listingID int64) ([]models.PriceHistoryEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, listing_id, price, recorded_at
		 FROM price_history
		 WHERE listing_id = $1
		 ORDER BY recorded_at, id`,
		listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for listing %d: %w", listingID, err)
	}
	defer rows.Close()

	entries := []models.PriceHistoryEntry{}
	for rows.Next() {
		var e models.PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.ListingID, &e.Price, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}
	return entries, nil
}

func (r *listingRepository) SaveScore(ctx context.Context, record *models.ScoreRecord) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO scores (
			listing_id, total_score, price_score, location_score,
			spec_score, cost_score, future_score, rank, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (listing_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			price_score = EXCLUDED.price_score,
			location_score = EXCLUDED.location_score,
			spec_score = EXCLUDED.spec_score,
			cost_score = EXCLUDED.cost_score,
			future_score = EXCLUDED.future_score,
			rank = EXCLUDED.rank,
			calculated_at = now()
		RETURNING id, calculated_at`,
		record.ListingID, record.TotalScore, record.PriceScore,
		record.LocationScore, record.SpecScore, record.CostScore,
		record.FutureScore, record.Rank,
	).Scan(&record.ID, &record.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to save score for listing %d: %w", record.ListingID, err)
	}
	return nil
}

func (r *listingRepository) GetScore(ctx context.Context, listingID int64) (*models.ScoreRecord, error) {
	var record models.ScoreRecord
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, listing_id, total_score, price_score, location_score,
		        spec_score, cost_score, future_score, rank, calculated_at
		 FROM scores WHERE listing_id = $1`,
		listingID,
	).Scan(
		&record.ID, &record.ListingID, &record.TotalScore, &record.PriceScore,
		&record.LocationScore, &record.SpecScore, &record.CostScore,
		&record.FutureScore, &record.Rank, &record.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query score for listing %d: %w", listingID, err)
	}
	return &record, nil
}

func (r *listingRepository) MarkInactive(ctx context.Context, source string, seenSourceIDs []string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE listings
		 SET is_active = FALSE, updated_at = now()
		 WHERE source = $1 AND is_active AND NOT (source_id = ANY($2))`,
		source, seenSourceIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to mark listings inactive for source %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	listings := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return listings, nil
}
