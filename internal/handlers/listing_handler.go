package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/mansionlab/dealscore/internal/errors"
	"github.com/mansionlab/dealscore/internal/middleware"
	"github.com/mansionlab/dealscore/internal/models"
	"github.com/mansionlab/dealscore/internal/repository"
	"github.com/mansionlab/dealscore/internal/services"
)

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	service services.ListingService
}

// NewListingHandler creates a new ListingHandler instance.
func NewListingHandler(service services.ListingService) *ListingHandler {
	return &ListingHandler{
		service: service,
	}
}

// ListRequest represents the query parameters for the listings index.
type ListRequest struct {
	Prefecture string `form:"prefecture"`
	City       string `form:"city"`
	Station    string `form:"station"`
	Layout     string `form:"layout"`
	MinPrice   *int   `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice   *int   `form:"max_price" binding:"omitempty,gte=0"`
	MaxAge     *int   `form:"max_age" binding:"omitempty,gte=0"`
	Limit      int    `form:"limit" binding:"omitempty,gte=1,lte=200"`
	Offset     int    `form:"offset" binding:"omitempty,gte=0"`
}

// ListResponse represents the response for the listings index.
type ListResponse struct {
	Listings []models.Listing `json:"listings"`
	Count    int              `json:"count"`
}

// ListingResponse represents the response for a single listing.
type ListingResponse struct {
	Listing      *models.Listing            `json:"listing"`
	PriceHistory []models.PriceHistoryEntry `json:"price_history"`
}

// IngestRequest represents a listing submitted for ingestion. The collector
// binary bypasses this endpoint and talks to the service directly; the
// endpoint exists for manual backfills.
type IngestRequest struct {
	Source          string   `json:"source" binding:"required"`
	SourceID        string   `json:"source_id" binding:"required"`
	URL             string   `json:"url" binding:"omitempty,url"`
	Title           string   `json:"title"`
	Address         string   `json:"address"`
	Prefecture      string   `json:"prefecture"`
	City            string   `json:"city"`
	StationName     string   `json:"station_name"`
	AccessInfo      string   `json:"access_info"`
	Layout          *string  `json:"layout"`
	Direction       *string  `json:"direction"`
	Price           *int     `json:"price" binding:"omitempty,gt=0"`
	Area            *float64 `json:"area" binding:"omitempty,gt=0"`
	BuildingAge     *int     `json:"building_age" binding:"omitempty,gte=0"`
	Floor           *int     `json:"floor"`
	StationDistance *int     `json:"station_distance" binding:"omitempty,gte=0"`
	ManagementFee   *int     `json:"management_fee" binding:"omitempty,gte=0"`
	RepairReserve   *int     `json:"repair_reserve" binding:"omitempty,gte=0"`
	Features        models.Features `json:"features"`
}

// List handles GET /api/v1/listings.
func (h *ListingHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	listings, err := h.service.ListListings(c.Request.Context(), repository.ListingFilter{
		Prefecture: req.Prefecture,
		City:       req.City,
		Station:    req.Station,
		Layout:     req.Layout,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		MaxAge:     req.MaxAge,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list listings", err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Listings: listings,
		Count:    len(listings),
	})
}

// Get handles GET /api/v1/listings/:id.
func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, history, err := h.service.GetListing(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			apierrors.NotFound(c, "Listing not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch listing", err)
		return
	}

	c.JSON(http.StatusOK, ListingResponse{
		Listing:      listing,
		PriceHistory: history,
	})
}

// Score handles GET /api/v1/listings/:id/score.
// The score is computed fresh against the current station cohort, so the
// response always reflects the latest comparables.
func (h *ListingHandler) Score(c *gin.Context) {
	id, ok := parseListingID(c)
	if !ok {
		return
	}

	scored, err := h.service.ScoreListing(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			apierrors.NotFound(c, "Listing not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to score listing", err)
		return
	}

	c.JSON(http.StatusOK, scored)
}

// Ingest handles POST /api/v1/listings.
func (h *ListingHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	listing := &models.Listing{
		Source:          req.Source,
		SourceID:        req.SourceID,
		URL:             req.URL,
		Title:           req.Title,
		Address:         req.Address,
		Prefecture:      req.Prefecture,
		City:            req.City,
		StationName:     req.StationName,
		AccessInfo:      req.AccessInfo,
		Layout:          req.Layout,
		Direction:       req.Direction,
		Price:           req.Price,
		Area:            req.Area,
		BuildingAge:     req.BuildingAge,
		Floor:           req.Floor,
		StationDistance: req.StationDistance,
		ManagementFee:   req.ManagementFee,
		RepairReserve:   req.RepairReserve,
		Features:        req.Features,
		IsActive:        true,
	}

	scored, err := h.service.IngestListing(c.Request.Context(), listing)
	if err != nil {
		if errors.Is(err, services.ErrInvalidListing) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to ingest listing", err)
		return
	}

	c.JSON(http.StatusCreated, scored)
}

// Recompute handles POST /api/v1/scores/recompute.
func (h *ListingHandler) Recompute(c *gin.Context) {
	log := middleware.GetLogger(c)
	if log != nil {
		log.Info("Score recompute requested", nil)
	}

	summary, err := h.service.RecomputeScores(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to recompute scores", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// parseListingID extracts and validates the :id path parameter. On failure it
// writes the error response and returns false.
func parseListingID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.BadRequest(c, "Listing ID must be a positive integer", map[string]interface{}{
			"id": raw,
		})
		return 0, false
	}
	return id, true
}
