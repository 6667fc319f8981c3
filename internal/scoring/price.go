package scoring

import (
	"math"

	"github.com/mansionlab/dealscore/internal/models"
)

// PriceMax is the maximum price-fairness category score.
const PriceMax = 30.0

// PriceBreakdown holds the price-fairness sub-scores. SqmScore compares the
// unit price against the cohort, TotalScore compares the raw price, and
// DiscountScore is reserved for price-cut scoring from the price history
// table once enough history is collected.
type PriceBreakdown struct {
	SqmScore      float64 `json:"sqm_score"`      // max 15
	TotalScore    float64 `json:"total_score"`    // max 10
	DiscountScore float64 `json:"discount_score"` // max 5, currently always 0
	Score         float64 `json:"score"`
}

// ScorePrice evaluates how fairly a listing is priced relative to its cohort
// of same-station comparables. A cohort smaller than three valid comparables
// degrades both deviation sub-scores to their fixed midpoints.
func ScorePrice(l *models.Listing, cohort []*models.Listing) PriceBreakdown {
	b := PriceBreakdown{
		SqmScore:   sqmPriceScore(l, cohort),
		TotalScore: totalPriceScore(l, cohort),
	}
	b.Score = math.Min(b.SqmScore+b.TotalScore+b.DiscountScore, PriceMax)
	return b
}

// sqmPriceScore scores the area-normalized unit price (max 15). Cheaper than
// the cohort mean scores above the 7.5 midpoint, 3.75 points per standard
// deviation. A listing without a unit price scores 0.
func sqmPriceScore(l *models.Listing, cohort []*models.Listing) float64 {
	if l.PricePerSqm == nil {
		return 0
	}

	if len(cohort) >= 3 {
		var unitPrices []float64
		for _, c := range cohort {
			if c.PricePerSqm != nil {
				unitPrices = append(unitPrices, *c.PricePerSqm)
			}
		}
		if len(unitPrices) >= 3 {
			avg, std := meanStdev(unitPrices)
			return deviationScore(*l.PricePerSqm, avg, std, 7.5, 3.75, 15.0)
		}
	}

	// No statistical comparison possible, fall back to the midpoint.
	return 7.5
}

// totalPriceScore scores the raw asking price (max 10) with the same
// deviation formula centered at 5.0 with a 2.5 slope. An absent price scores
// 0; an insufficient cohort with a present price scores the 5.0 midpoint.
func totalPriceScore(l *models.Listing, cohort []*models.Listing) float64 {
	if l.Price == nil {
		return 0
	}

	if len(cohort) >= 3 {
		var prices []float64
		for _, c := range cohort {
			if c.Price != nil {
				prices = append(prices, float64(*c.Price))
			}
		}
		if len(prices) >= 3 {
			avg, std := meanStdev(prices)
			return deviationScore(float64(*l.Price), avg, std, 5.0, 2.5, 10.0)
		}
	}

	return 5.0
}
