package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/mansionlab/dealscore/internal/models"
)

func TestLocationAssetScore(t *testing.T) {
	cases := []struct {
		name     string
		distance *int
		address  string
		want     float64
	}{
		{"station front in central ward", intPtr(1), "東京都港区虎ノ門1-1", 2.0},
		{"three minutes suburb", intPtr(3), "千葉県市川市八幡", 1.3},
		{"five minutes", intPtr(5), "埼玉県川口市芝", 1.0},
		{"seven minutes", intPtr(7), "埼玉県川口市芝", 0.7},
		{"ten minutes", intPtr(10), "埼玉県川口市芝", 0.4},
		{"beyond ten minutes", intPtr(12), "埼玉県川口市芝", 0.0},
		{"unknown distance", nil, "埼玉県川口市芝", 0.5},
		{"central ward bonus only", intPtr(15), "東京都渋谷区本町", 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &models.Listing{StationDistance: tc.distance, Address: tc.address}
			assert.InDelta(t, tc.want, ScoreFuture(l).LocationAssetScore, 0.0001)
		})
	}
}

func TestBrandScore(t *testing.T) {
	major := &models.Listing{Title: "ザ・パークハウス渋谷南平台"}
	sub := &models.Listing{Title: "ライオンズマンション上野"}
	none := &models.Listing{Title: "コスモ上野パークビュー"}
	empty := &models.Listing{}

	assert.Equal(t, 1.0, ScoreFuture(major).BrandScore)
	assert.Equal(t, 0.7, ScoreFuture(sub).BrandScore)
	// Every listing keeps at least the floor value.
	assert.Equal(t, 0.3, ScoreFuture(none).BrandScore)
	assert.Equal(t, 0.3, ScoreFuture(empty).BrandScore)
}

func TestManagementHealthScore(t *testing.T) {
	cases := []struct {
		name         string
		mgmt, repair *int
		want         float64
	}{
		{"healthy ratio", intPtr(15000), intPtr(15000), 1.0},
		{"slightly low reserve", intPtr(15000), intPtr(8000), 0.8},
		{"underfunded reserve", intPtr(15000), intPtr(3000), 0.3},
		{"distorted ratio", intPtr(10000), intPtr(30000), 0.6},
		{"mid-low ratio", intPtr(10000), intPtr(4000), 0.6},
		{"zero management fee", intPtr(0), intPtr(8000), 0.3},
		{"unknown management fee", nil, intPtr(8000), 0.5},
		{"unknown reserve", intPtr(15000), nil, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &models.Listing{ManagementFee: tc.mgmt, RepairReserve: tc.repair}
			assert.Equal(t, tc.want, ScoreFuture(l).ManagementScore)
		})
	}
}

func TestRedevelopmentScore(t *testing.T) {
	cases := []struct {
		address string
		want    float64
	}{
		{"東京都港区麻布台1-2", 1.0},
		{"東京都中央区日本橋室町", 0.9},
		{"東京都中野区中野4-1", 0.8},
		{"東京都中央区晴海2-1", 0.7},
		{"東京都足立区綾瀬3-1", 0.5}, // ward base
		{"埼玉県川口市芝", 0.3},
	}

	for _, tc := range cases {
		l := &models.Listing{Address: tc.address}
		assert.Equal(t, tc.want, ScoreFuture(l).AreaScore, "address=%s", tc.address)
	}
}

func TestScoreFuture_CappedAtMax(t *testing.T) {
	l := &models.Listing{
		Title:           "パークコート虎ノ門",
		Address:         "東京都港区虎ノ門1-1",
		StationDistance: intPtr(1),
		ManagementFee:   intPtr(15000),
		RepairReserve:   intPtr(15000),
	}

	b := ScoreFuture(l)

	assert.Equal(t, 5.0, b.Score)
	assert.LessOrEqual(t, b.Score, FutureMax)
}
