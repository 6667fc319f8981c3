package scoring

import (
	"math"

	"github.com/mansionlab/dealscore/internal/models"
)

// CostMax is the maximum holding-cost category score.
const CostMax = 15.0

// CostBreakdown holds the holding-cost sub-scores.
type CostBreakdown struct {
	ManagementScore float64 `json:"management_score"` // max 10
	FixedTaxScore   float64 `json:"fixed_tax_score"`  // max 2
	TotalCostScore  float64 `json:"total_cost_score"` // max 3
	Score           float64 `json:"score"`
}

// ScoreCost evaluates recurring holding costs: management fee plus repair
// reserve per square meter (cohort-relative when possible), an estimated
// property-tax burden, and the ratio of annual cost to purchase price.
func ScoreCost(l *models.Listing, cohort []*models.Listing) CostBreakdown {
	b := CostBreakdown{
		ManagementScore: managementCostScore(l, cohort),
		FixedTaxScore:   taxScore(l),
		TotalCostScore:  totalCostScore(l),
	}
	b.Score = math.Min(b.ManagementScore+b.FixedTaxScore+b.TotalCostScore, CostMax)
	return b
}

// managementCostScore scores the per-㎡ monthly cost (max 10). Missing fees
// count as zero in the numerator, but a missing or non-positive area means
// no per-㎡ figure at all and scores the 5.0 midpoint. With three or more
// valid comparables the score comes from ratio bands against the cohort
// mean; otherwise from absolute yen-per-㎡ bands.
func managementCostScore(l *models.Listing, cohort []*models.Listing) float64 {
	if l.Area == nil || *l.Area <= 0 {
		return 5.0
	}
	monthlyCostPerSqm := float64(intValue(l.ManagementFee)+intValue(l.RepairReserve)) / *l.Area

	if len(cohort) >= 3 {
		var costs []float64
		for _, c := range cohort {
			if c.Area != nil && *c.Area > 0 {
				costs = append(costs, float64(intValue(c.ManagementFee)+intValue(c.RepairReserve)) / *c.Area)
			}
		}
		if len(costs) >= 3 {
			avg := mean(costs)
			switch {
			case monthlyCostPerSqm <= avg*0.9:
				return 10.0
			case monthlyCostPerSqm <= avg*1.05:
				return 8.0
			case monthlyCostPerSqm <= avg*1.2:
				return 6.0
			case monthlyCostPerSqm <= avg*1.4:
				return 4.0
			default:
				return 2.0
			}
		}
	}

	// Absolute bands calibrated to the metro market, where 400-500円/㎡ is
	// common in central areas.
	switch {
	case monthlyCostPerSqm <= 350:
		return 10.0
	case monthlyCostPerSqm <= 450:
		return 8.0
	case monthlyCostPerSqm <= 550:
		return 6.0
	case monthlyCostPerSqm <= 650:
		return 4.0
	default:
		return 2.0
	}
}

// taxScore estimates the fixed-asset tax burden from building age (max 2).
// Older buildings carry lower assessed values and therefore lower tax.
// Price is part of the null guard but does not enter the band formula.
func taxScore(l *models.Listing) float64 {
	if l.BuildingAge == nil || l.Price == nil {
		return 1.0
	}

	switch age := *l.BuildingAge; {
	case age >= 20:
		return 2.0
	case age >= 15:
		return 1.5
	case age >= 10:
		return 1.0
	default:
		return 0.5
	}
}

// totalCostScore scores the annual holding cost as a percentage of the
// purchase price (max 3). Around 0.5-1.0% is typical.
func totalCostScore(l *models.Listing) float64 {
	if l.Price == nil || *l.Price <= 0 {
		return 1.5
	}

	monthlyCost := intValue(l.ManagementFee) + intValue(l.RepairReserve)
	annualCostRatio := float64(monthlyCost*12) / (float64(*l.Price) * 10000) * 100

	switch {
	case annualCostRatio <= 0.5:
		return 3.0
	case annualCostRatio <= 0.7:
		return 2.5
	case annualCostRatio <= 1.0:
		return 2.0
	case annualCostRatio <= 1.5:
		return 1.0
	default:
		return 0.5
	}
}
