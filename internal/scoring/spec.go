package scoring

import (
	"math"
	"strings"

	"github.com/mansionlab/dealscore/internal/models"
)

// SpecMax is the maximum building-spec category score.
const SpecMax = 25.0

// SpecBreakdown holds the building-spec sub-scores.
type SpecBreakdown struct {
	AgeScore       float64 `json:"age_score"`       // max 8
	AreaScore      float64 `json:"area_score"`      // max 5
	FloorScore     float64 `json:"floor_score"`     // max 5
	EquipmentScore float64 `json:"equipment_score"` // max 7
	Score          float64 `json:"score"`
}

// ScoreSpec evaluates the physical attributes of the unit itself: building
// age, floor area, floor and facing, and amenity equipment.
func ScoreSpec(l *models.Listing) SpecBreakdown {
	b := SpecBreakdown{
		AgeScore:       ageScore(l.BuildingAge),
		AreaScore:      floorAreaScore(l.Area),
		FloorScore:     floorDirectionScore(l.Floor, l.Direction),
		EquipmentScore: equipmentScore(l.Features),
	}
	b.Score = math.Min(b.AgeScore+b.AreaScore+b.FloorScore+b.EquipmentScore, SpecMax)
	return b
}

// ageScore scores building age (max 8). Beyond 35 years the score decays by
// 0.1 per year down to a floor of 1.0.
func ageScore(age *int) float64 {
	if age == nil {
		return 4.0
	}

	a := *age
	switch {
	case a <= 5:
		return 8.0
	case a <= 15:
		return 7.0
	case a <= 25:
		return 5.0
	case a <= 35:
		return 3.0
	default:
		return math.Max(1.0, 3.0-float64(a-35)*0.1)
	}
}

// floorAreaScore scores the exclusive floor area (max 5). Family-sized units
// between 50 and 100㎡ score full points.
func floorAreaScore(area *float64) float64 {
	if area == nil {
		return 2.5
	}

	a := *area
	switch {
	case a >= 50 && a <= 100:
		return 5.0
	case (a >= 40 && a < 50) || (a > 100 && a <= 120):
		return 4.0
	case a > 120:
		return 3.0
	default:
		return 2.0
	}
}

// floorDirectionScore combines a floor-number component (max 3) and a facing
// component (max 2), capped at 5. South, east, and west facings score alike;
// a north facing still earns a reduced point.
func floorDirectionScore(floor *int, direction *string) float64 {
	var score float64

	if floor != nil {
		switch f := *floor; {
		case f >= 10:
			score += 3.0
		case f >= 3:
			score += 2.5
		case f >= 2:
			score += 2.0
		default:
			score += 1.0
		}
	} else {
		score += 1.5
	}

	if direction != nil && *direction != "" {
		d := *direction
		switch {
		case strings.Contains(d, "南"):
			score += 2.0
		case strings.Contains(d, "東") || strings.Contains(d, "西"):
			score += 2.0
		case strings.Contains(d, "北"):
			score += 1.0
		}
	} else {
		score += 1.0
	}

	return math.Min(5.0, score)
}

// equipmentScore scores amenity equipment (max 7) from a base of 2.0.
// Unknown equipment data is simply the zero Features value, so a listing
// with no parsed flags scores the base.
func equipmentScore(f models.Features) float64 {
	score := 2.0

	if f.AutoLock {
		score += 1.5
	}
	if f.DeliveryBox {
		score += 1.5
	}
	if f.PetOK {
		score += 2.0
	}
	if f.FloorHeating {
		score += 2.0
	}
	if f.Disposer {
		score += 1.0
	}
	if f.Renovated {
		score += 1.0
	}

	return math.Min(7.0, score)
}
