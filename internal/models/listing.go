package models

import (
	"encoding/json"
	"time"
)

// Listing represents a single used-mansion listing collected from a source site.
// All fields that may be missing from the source markup use pointers to
// distinguish between zero values and NULL.
type Listing struct {
	CreatedAt       time.Time  `json:"firstSeen"`
	UpdatedAt       time.Time  `json:"lastUpdated"`
	Title           string     `json:"title"`
	Address         string     `json:"address"`
	Prefecture      string     `json:"prefecture"`
	City            string     `json:"city"`
	StationName     string     `json:"stationName"`
	AccessInfo      string     `json:"accessInfo,omitempty"`
	Source          string     `json:"source"`
	SourceID        string     `json:"sourceId"`
	URL             string     `json:"url"`
	Layout          *string    `json:"layout,omitempty"`
	Direction       *string    `json:"direction,omitempty"`
	Price           *int       `json:"price,omitempty"`           // 万円
	Area            *float64   `json:"area,omitempty"`            // ㎡
	PricePerSqm     *float64   `json:"pricePerSqm,omitempty"`     // 円/㎡, derived
	BuildingAge     *int       `json:"buildingAge,omitempty"`     // years
	Floor           *int       `json:"floor,omitempty"`
	StationDistance *int       `json:"stationDistance,omitempty"` // walking minutes
	ManagementFee   *int       `json:"managementFee,omitempty"`   // 円/month
	RepairReserve   *int       `json:"repairReserve,omitempty"`   // 円/month
	Features        Features   `json:"features"`
	ID              int64      `json:"id"`
	IsActive        bool       `json:"isActive"`
}

// Features is the fixed set of amenity flags a listing can carry.
// The source encodes these as a loose JSON blob; it is decoded once at the
// construction boundary and never re-parsed downstream.
type Features struct {
	AutoLock     bool `json:"auto_lock"`
	DeliveryBox  bool `json:"delivery_box"`
	PetOK        bool `json:"pet_ok"`
	FloorHeating bool `json:"floor_heating"`
	Disposer     bool `json:"disposer"`
	Renovated    bool `json:"renovation"`
}

// ParseFeatures decodes the raw feature blob stored by the collector.
// Malformed or empty input yields the zero value: unknown amenities are
// treated as absent, never as an error.
func ParseFeatures(raw string) Features {
	var f Features
	if raw == "" {
		return f
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Features{}
	}
	return f
}

// Encode serializes the flags back to the storage representation.
func (f Features) Encode() string {
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DerivePricePerSqm recomputes the derived unit price from price and area.
// Price is held in 万円, so the unit price in 円/㎡ is price*10000/area.
// When either input is missing the derived field is cleared; it is never
// mutated independently of its inputs.
func (l *Listing) DerivePricePerSqm() {
	if l.Price == nil || l.Area == nil || *l.Area <= 0 {
		l.PricePerSqm = nil
		return
	}
	v := float64(*l.Price) * 10000 / *l.Area
	l.PricePerSqm = &v
}

// PriceHistoryEntry records a price observed for a listing at a point in time.
// A row is appended whenever a re-collected listing arrives with a changed price.
type PriceHistoryEntry struct {
	RecordedAt time.Time `json:"recordedAt"`
	ID         int64     `json:"id"`
	ListingID  int64     `json:"listingId"`
	Price      int       `json:"price"` // 万円
}

// ScoreRecord is a persisted snapshot of a score computation. It is a cache:
// the authoritative value is always recomputable from the listing and its cohort.
type ScoreRecord struct {
	CalculatedAt  time.Time `json:"calculatedAt"`
	Rank          string    `json:"rank"`
	ID            int64     `json:"id"`
	ListingID     int64     `json:"listingId"`
	TotalScore    float64   `json:"totalScore"`
	PriceScore    float64   `json:"priceScore"`
	LocationScore float64   `json:"locationScore"`
	SpecScore     float64   `json:"specScore"`
	CostScore     float64   `json:"costScore"`
	FutureScore   float64   `json:"futureScore"`
}
