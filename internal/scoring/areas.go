package scoring

import "strings"

// Fixed area and brand lookup tables for the Tokyo-area market the collector
// covers. Matching is plain substring containment against the listing's
// address, city, or title text.

// majorTerminalAreas are districts around the large terminal stations.
var majorTerminalAreas = []string{"渋谷", "新宿", "池袋", "品川", "横浜", "大宮"}

// highAmenityAreas are wards and cities with strong everyday-life, education,
// or commercial amenities.
var highAmenityAreas = []string{
	"文京区", "目黒区", "世田谷区", "杉並区", "武蔵野市",
	"港区", "中央区", "千代田区",
}

// tier1Areas are the strongest brand-name residential areas; tier2Areas the
// next tier. Tier 1 is checked first and short-circuits.
var tier1Areas = []string{
	"港区", "渋谷区", "目黒区", "世田谷区", "文京区",
	"みなとみらい", "武蔵小杉",
}

var tier2Areas = []string{
	"品川区", "新宿区", "中野区", "杉並区", "大田区",
	"横浜市西区", "横浜市中区", "川崎市中原区",
	"さいたま市浦和区", "千葉市中央区",
}

// centralWards are the five core Tokyo wards used for the asset-value bonus.
var centralWards = []string{"千代田区", "中央区", "港区", "新宿区", "渋谷区"}

// majorBrandSeries maps large developers to their condominium series names.
// Any series match in a listing title counts as a major brand.
var majorBrandSeries = map[string][]string{
	"三井不動産": {"パークホームズ", "パークタワー", "パークコート", "パークマンション"},
	"三菱地所":  {"パークハウス", "ザ・パークハウス"},
	"住友不動産": {"シティハウス", "シティタワー", "グランドヒルズ", "シティテラス"},
	"野村不動産": {"プラウド", "PROUD"},
	"東急不動産": {"ブランズ", "BRANZ"},
	"東京建物":  {"ブリリア", "Brillia"},
	"旭化成":   {"アトラス", "ATLAS"},
}

// subBrandSeries are series from mid-size developers that still hold value.
var subBrandSeries = []string{"クレヴィア", "ライオンズ", "ピアース", "ディアナ"}

// redevelopmentAreas maps neighborhoods with active redevelopment projects to
// their expectation points. Order matters: the first match wins.
var redevelopmentAreas = []struct {
	Name   string
	Points float64
}{
	{"品川", 1.0}, {"高輪", 1.0}, {"虎ノ門", 1.0}, {"麻布台", 1.0},
	{"渋谷", 1.0}, {"日本橋", 0.9}, {"八重洲", 0.9}, {"中野", 0.8},
	{"下北沢", 0.8}, {"池袋", 0.7}, {"晴海", 0.7}, {"勝どき", 0.7},
}

// containsAny reports whether any needle occurs in any of the haystacks.
func containsAny(needles []string, haystacks ...string) bool {
	for _, n := range needles {
		for _, h := range haystacks {
			if h != "" && n != "" && strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}
