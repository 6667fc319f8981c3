// Package scoring computes the multi-factor deal-quality score for a
// listing. Every function in this package is pure: the same listing, cohort,
// and weights always produce the identical result, and nothing here blocks,
// allocates shared state, or panics on missing business data. Callers may
// score many listings concurrently without coordination.
package scoring

import "github.com/mansionlab/dealscore/internal/models"

// Weights are the per-category multipliers applied before normalization.
// They are an explicit value passed into every Score call; there is no
// package-level weight state for one caller to leak into another.
type Weights struct {
	Price    float64 `json:"price"`
	Location float64 `json:"location"`
	Spec     float64 `json:"spec"`
	Cost     float64 `json:"cost"`
	Future   float64 `json:"future"`
}

// DefaultWeights returns the neutral weight profile.
func DefaultWeights() Weights {
	return Weights{Price: 1.0, Location: 1.0, Spec: 1.0, Cost: 1.0, Future: 1.0}
}

// Rank labels, highest tier first.
const (
	RankInstantBuy = "🌟🌟🌟 超お得！即決レベル"
	RankGreatDeal  = "🌟🌟 かなりお得"
	RankGoodDeal   = "🌟 お得"
	RankAverage    = "⭕ 標準的"
	RankOverpriced = "△ 割高の可能性"
)

// CategoryScores are the weighted, rounded per-category scores.
type CategoryScores struct {
	Price    float64 `json:"price"`
	Location float64 `json:"location"`
	Spec     float64 `json:"spec"`
	Cost     float64 `json:"cost"`
	Future   float64 `json:"future"`
}

// Detail carries the five unweighted category breakdowns.
type Detail struct {
	Price    PriceBreakdown    `json:"price"`
	Location LocationBreakdown `json:"location"`
	Spec     SpecBreakdown     `json:"spec"`
	Cost     CostBreakdown     `json:"cost"`
	Future   FutureBreakdown   `json:"future"`
}

// Result is the full outcome of scoring one listing.
type Result struct {
	Rank           string         `json:"rank"`
	TotalScore     float64        `json:"total_score"`
	CategoryScores CategoryScores `json:"category_scores"`
	Detail         Detail         `json:"detail"`
}

// Score computes the deal-quality score for a listing against an optional
// cohort of comparables. The weighted category scores are normalized to a
// 0-100 scale against the weighted maximum and clamped, so skewed weights
// can never push the total above 100. A degenerate weight configuration
// (weighted maximum <= 0) yields a zero total rather than an error: one bad
// configuration must never abort a batch run.
func Score(l *models.Listing, cohort []*models.Listing, w Weights) Result {
	detail := Detail{
		Price:    ScorePrice(l, cohort),
		Location: ScoreLocation(l),
		Spec:     ScoreSpec(l),
		Cost:     ScoreCost(l, cohort),
		Future:   ScoreFuture(l),
	}

	weighted := CategoryScores{
		Price:    detail.Price.Score * w.Price,
		Location: detail.Location.Score * w.Location,
		Spec:     detail.Spec.Score * w.Spec,
		Cost:     detail.Cost.Score * w.Cost,
		Future:   detail.Future.Score * w.Future,
	}

	totalMax := PriceMax*w.Price +
		LocationMax*w.Location +
		SpecMax*w.Spec +
		CostMax*w.Cost +
		FutureMax*w.Future

	total := weighted.Price + weighted.Location + weighted.Spec + weighted.Cost + weighted.Future

	normalized := 0.0
	if totalMax > 0 {
		normalized = clamp(total/totalMax*100, 0, 100)
	}

	return Result{
		TotalScore: round1(normalized),
		Rank:       rankFor(normalized),
		CategoryScores: CategoryScores{
			Price:    round1(weighted.Price),
			Location: round1(weighted.Location),
			Spec:     round1(weighted.Spec),
			Cost:     round1(weighted.Cost),
			Future:   round1(weighted.Future),
		},
		Detail: detail,
	}
}

// rankFor maps a 0-100 total to its discrete rank label, highest first.
func rankFor(score float64) string {
	switch {
	case score >= 90:
		return RankInstantBuy
	case score >= 80:
		return RankGreatDeal
	case score >= 70:
		return RankGoodDeal
	case score >= 60:
		return RankAverage
	default:
		return RankOverpriced
	}
}
