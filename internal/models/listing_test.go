package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFeatures_Valid(t *testing.T) {
	f := ParseFeatures(`{"auto_lock": true, "delivery_box": true, "pet_ok": false}`)

	assert.True(t, f.AutoLock)
	assert.True(t, f.DeliveryBox)
	assert.False(t, f.PetOK)
	assert.False(t, f.FloorHeating)
}

func TestParseFeatures_Empty(t *testing.T) {
	assert.Equal(t, Features{}, ParseFeatures(""))
}

func TestParseFeatures_Malformed(t *testing.T) {
	// Broken blobs degrade to "no features known", never an error.
	assert.Equal(t, Features{}, ParseFeatures(`{"auto_lock": tr`))
	assert.Equal(t, Features{}, ParseFeatures(`not json at all`))
}

func TestFeatures_EncodeRoundTrip(t *testing.T) {
	f := Features{AutoLock: true, PetOK: true, Renovated: true}
	assert.Equal(t, f, ParseFeatures(f.Encode()))
}

func TestDerivePricePerSqm(t *testing.T) {
	price := 5980
	area := 70.5

	l := Listing{Price: &price, Area: &area}
	l.DerivePricePerSqm()

	if assert.NotNil(t, l.PricePerSqm) {
		assert.InDelta(t, 5980.0*10000/70.5, *l.PricePerSqm, 0.001)
	}
}

func TestDerivePricePerSqm_MissingInputs(t *testing.T) {
	price := 5980
	area := 70.5
	stale := 848000.0

	cases := []struct {
		name    string
		listing Listing
	}{
		{"no price", Listing{Area: &area, PricePerSqm: &stale}},
		{"no area", Listing{Price: &price, PricePerSqm: &stale}},
		{"zero area", Listing{Price: &price, Area: new(float64), PricePerSqm: &stale}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.listing.DerivePricePerSqm()
			assert.Nil(t, tc.listing.PricePerSqm)
		})
	}
}
