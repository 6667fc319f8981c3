package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detailPageHTML mimics the property-overview page structure: breadcrumb,
// heading, and th/td overview tables.
const detailPageHTML = `<html><body>
<div class="breadcrumb_item"><a href="/ms/chuko/tokyo/sc_shibuya/nc_12345678/">ライオンズマンション恵比寿</a></div>
<h1 class="section_h1-header-title">【期間限定！】ライオンズマンション恵比寿 5980万円（物件概要）</h1>
<table class="mt10">
<tr><th>価格ヒント</th><td>5980万円 [税込]</td></tr>
<tr><th>専有面積</th><td>70.5m²（壁芯）</td></tr>
<tr><th>間取り</th><td>3LDK</td></tr>
<tr><th>築年月</th><td>2020年3月</td></tr>
<tr><th>所在階</th><td>8階/12階建</td></tr>
<tr><th>向き</th><td>南</td></tr>
<tr><th>所在地</th><td>東京都渋谷区恵比寿1-1-1</td></tr>
<tr><th>交通</th><td>ＪＲ山手線「恵比寿」歩5分<br>東京メトロ日比谷線「恵比寿」徒歩7分<br>乗り換え案内</td></tr>
<tr><th>管理費</th><td>1万5000円／月（委託(通勤)）</td></tr>
<tr><th>修繕積立金</th><td>8000円／月</td></tr>
</table>
<p>オートロック、宅配ボックス完備。ペット飼育可。</p>
</body></html>`

func parserAt(year int) *Parser {
	p := NewParser()
	p.now = func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestParseDetail(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailPageHTML))
	require.NoError(t, err)

	url := "https://suumo.jp/ms/chuko/tokyo/sc_shibuya/nc_12345678/"
	l := parserAt(2025).ParseDetail(doc, url)

	assert.Equal(t, "suumo", l.Source)
	assert.Equal(t, "12345678", l.SourceID)
	assert.Equal(t, url, l.URL)
	assert.Equal(t, "ライオンズマンション恵比寿", l.Title)
	assert.True(t, l.IsActive)

	require.NotNil(t, l.Price)
	assert.Equal(t, 5980, *l.Price)
	require.NotNil(t, l.Area)
	assert.Equal(t, 70.5, *l.Area)
	require.NotNil(t, l.PricePerSqm)
	assert.InDelta(t, 5980.0*10000/70.5, *l.PricePerSqm, 0.001)

	require.NotNil(t, l.Layout)
	assert.Equal(t, "3LDK", *l.Layout)
	require.NotNil(t, l.BuildingAge)
	assert.Equal(t, 5, *l.BuildingAge)
	require.NotNil(t, l.Floor)
	assert.Equal(t, 8, *l.Floor)
	require.NotNil(t, l.Direction)
	assert.Equal(t, "南", *l.Direction)

	assert.Equal(t, "東京都渋谷区恵比寿1-1-1", l.Address)
	assert.Equal(t, "東京都", l.Prefecture)
	assert.Equal(t, "渋谷区", l.City)

	// The nearer of the two stations wins.
	assert.Equal(t, "恵比寿", l.StationName)
	require.NotNil(t, l.StationDistance)
	assert.Equal(t, 5, *l.StationDistance)

	require.NotNil(t, l.ManagementFee)
	assert.Equal(t, 15000, *l.ManagementFee)
	require.NotNil(t, l.RepairReserve)
	assert.Equal(t, 8000, *l.RepairReserve)

	assert.True(t, l.Features.AutoLock)
	assert.True(t, l.Features.DeliveryBox)
	assert.True(t, l.Features.PetOK)
	assert.False(t, l.Features.FloorHeating)
}

func TestParseDetail_SparsePage(t *testing.T) {
	// A page with barely any recognizable markup yields a listing with nil
	// fields, not an error.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>準備中</p></body></html>`))
	require.NoError(t, err)

	l := parserAt(2025).ParseDetail(doc, "https://suumo.jp/ms/chuko/tokyo/nc_999/")

	assert.Equal(t, "999", l.SourceID)
	assert.Nil(t, l.Price)
	assert.Nil(t, l.Area)
	assert.Nil(t, l.PricePerSqm)
	assert.Nil(t, l.StationDistance)
	assert.Empty(t, l.Address)
}

func TestParseDetail_TitleFallsBackToHeading(t *testing.T) {
	html := `<html><body>
<h1 class="section_h1-header-title">即入居可！パークハウス目黒　６９８０万円（物件概要）</h1>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	l := parserAt(2025).ParseDetail(doc, "https://suumo.jp/ms/chuko/tokyo/nc_1/")

	assert.Equal(t, "パークハウス目黒", l.Title)
}

func TestParseDetail_FutureBuiltYearClampsAgeToZero(t *testing.T) {
	html := `<html><body><table class="mt10">
<tr><th>完成時期</th><td>2026年12月予定</td></tr>
</table></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	l := parserAt(2025).ParseDetail(doc, "https://suumo.jp/nc_2/")

	if assert.NotNil(t, l.BuildingAge) {
		assert.Equal(t, 0, *l.BuildingAge)
	}
}

func TestParseYen(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"5980万円", 59800000},
		{"1億2345万円", 123450000},
		{"2億円", 200000000},
		{"1万4000円", 14000},
		{"8000円／月", 8000},
		{"１万５０００円（委託(通勤)）", 15000},
		{"12,000円", 12000},
	}

	for _, tc := range cases {
		got := ParseYen(tc.in)
		if assert.NotNil(t, got, "input=%s", tc.in) {
			assert.Equal(t, tc.want, *got, "input=%s", tc.in)
		}
	}
}

func TestParseYen_Invalid(t *testing.T) {
	assert.Nil(t, ParseYen(""))
	assert.Nil(t, ParseYen("-"))
	assert.Nil(t, ParseYen("未定"))
}

func TestSourceIDFromURL(t *testing.T) {
	assert.Equal(t, "78901234", SourceIDFromURL("https://suumo.jp/ms/chuko/tokyo/sc_meguro/nc_78901234/"))
	assert.Equal(t, "", SourceIDFromURL("https://suumo.jp/ms/chuko/tokyo/"))
}

func TestDetailPageURL(t *testing.T) {
	assert.Equal(t,
		"https://suumo.jp/ms/chuko/tokyo/nc_1/bukkengaiyo/",
		DetailPageURL("https://suumo.jp/ms/chuko/tokyo/nc_1/"))
	assert.Equal(t,
		"https://suumo.jp/ms/chuko/tokyo/nc_1/bukkengaiyo/",
		DetailPageURL("https://suumo.jp/ms/chuko/tokyo/nc_1/bukkengaiyo/"))
}
