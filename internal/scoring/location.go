package scoring

import (
	"math"

	"github.com/mansionlab/dealscore/internal/models"
)

// LocationMax is the maximum location category score.
const LocationMax = 25.0

// LocationBreakdown holds the location sub-scores.
type LocationBreakdown struct {
	StationScore  float64 `json:"station_score"`  // max 10
	FacilityScore float64 `json:"facility_score"` // max 8
	AreaScore     float64 `json:"area_score"`     // max 7
	Score         float64 `json:"score"`
}

// ScoreLocation evaluates station access, surrounding amenities, and area
// brand from the listing's address text alone. It needs no cohort.
func ScoreLocation(l *models.Listing) LocationBreakdown {
	b := LocationBreakdown{
		StationScore:  stationScore(l.StationDistance),
		FacilityScore: facilityScore(l.Address, l.City),
		AreaScore:     areaBrandScore(l.Address, l.City),
	}
	b.Score = math.Min(b.StationScore+b.FacilityScore+b.AreaScore, LocationMax)
	return b
}

// stationScore scores walking distance to the nearest station (max 10).
// Listings within 10 minutes get a 1.1x convenience bonus on top of the step
// value, clamped back to 10.
func stationScore(distance *int) float64 {
	if distance == nil {
		return 5.0
	}

	d := *distance
	var base float64
	switch {
	case d <= 5:
		base = 10.0
	case d <= 10:
		base = 7.0
	case d <= 15:
		base = 4.0
	case d <= 20:
		base = 2.0
	default:
		base = math.Max(0.0, 10.0-float64(d-20)*0.5)
	}

	if d <= 10 {
		base = math.Min(10.0, base*1.1)
	}
	return base
}

// facilityScore scores surrounding amenities (max 8) from a base of 4.0,
// with independent bonuses for major-terminal districts and high-amenity
// wards.
func facilityScore(address, city string) float64 {
	score := 4.0

	if containsAny(majorTerminalAreas, address, city) {
		score += 2.0
	}
	if containsAny(highAmenityAreas, address) {
		score += 2.0
	}

	return math.Min(8.0, score)
}

// areaBrandScore scores area prestige (max 7): 7.0 for a tier-1 area, 5.5
// for tier-2, otherwise the 3.5 base. Tier 1 wins on the first match.
func areaBrandScore(address, city string) float64 {
	if containsAny(tier1Areas, address, city) {
		return 7.0
	}
	if containsAny(tier2Areas, address, city) {
		return 5.5
	}
	return 3.5
}
