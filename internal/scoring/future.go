package scoring

import (
	"math"
	"strings"

	"github.com/mansionlab/dealscore/internal/models"
)

// FutureMax is the maximum future-value category score.
const FutureMax = 5.0

// FutureBreakdown holds the future-value and liquidity sub-scores.
type FutureBreakdown struct {
	LocationAssetScore float64 `json:"location_asset_score"` // max 2
	BrandScore         float64 `json:"brand_score"`          // max 1
	ManagementScore    float64 `json:"management_score"`     // max 1
	AreaScore          float64 `json:"area_score"`           // max 1
	Score              float64 `json:"score"`
}

// ScoreFuture evaluates how well a listing is likely to hold its value:
// scarcity of the location, developer brand, health of the building's
// management finances, and redevelopment expectations for the area.
func ScoreFuture(l *models.Listing) FutureBreakdown {
	b := FutureBreakdown{
		LocationAssetScore: locationAssetScore(l.StationDistance, l.Address),
		BrandScore:         brandScore(l.Title),
		ManagementScore:    managementHealthScore(l.ManagementFee, l.RepairReserve),
		AreaScore:          redevelopmentScore(l.Address),
	}
	b.Score = math.Min(b.LocationAssetScore+b.BrandScore+b.ManagementScore+b.AreaScore, FutureMax)
	return b
}

// locationAssetScore scores location scarcity (max 2): very short station
// distances plus a flat bonus for the five central wards.
func locationAssetScore(distance *int, address string) float64 {
	var score float64

	if distance != nil {
		switch d := *distance; {
		case d <= 1:
			score += 1.5
		case d <= 3:
			score += 1.3
		case d <= 5:
			score += 1.0
		case d <= 7:
			score += 0.7
		case d <= 10:
			score += 0.4
		}
	} else {
		score += 0.5
	}

	if containsAny(centralWards, address) {
		score += 0.5
	}

	return math.Min(2.0, score)
}

// brandScore scores developer brand from the listing title (max 1): 1.0 for
// a major-developer series, 0.7 for a known mid-size series, and a 0.3 floor
// for everything else. Never zero.
func brandScore(title string) float64 {
	for _, series := range majorBrandSeries {
		for _, s := range series {
			if strings.Contains(title, s) {
				return 1.0
			}
		}
	}

	for _, s := range subBrandSeries {
		if strings.Contains(title, s) {
			return 0.7
		}
	}

	return 0.3
}

// managementHealthScore scores the balance between the repair reserve and
// the management fee (max 1). A reserve between 0.8x and 1.5x of the
// management fee is considered healthy; a reserve under 0.3x signals
// underfunded future repairs.
func managementHealthScore(managementFee, repairReserve *int) float64 {
	if managementFee == nil || repairReserve == nil {
		return 0.5
	}

	ratio := 0.0
	if *managementFee > 0 {
		ratio = float64(*repairReserve) / float64(*managementFee)
	}

	switch {
	case ratio >= 0.8 && ratio <= 1.5:
		return 1.0
	case ratio >= 0.5 && ratio <= 2.0:
		return 0.8
	case ratio < 0.3:
		return 0.3
	default:
		return 0.6
	}
}

// redevelopmentScore scores redevelopment expectations for the address
// (max 1). The first matching project area wins; any ward address earns a
// 0.5 base, everywhere else 0.3.
func redevelopmentScore(address string) float64 {
	for _, area := range redevelopmentAreas {
		if strings.Contains(address, area.Name) {
			return area.Points
		}
	}

	if strings.Contains(address, "区") {
		return 0.5
	}
	return 0.3
}
