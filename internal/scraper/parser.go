package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mansionlab/dealscore/internal/models"
)

// Parser extracts a structured listing from a SUUMO property-overview page.
// The markup drifts between site revisions, so every field is best-effort:
// a selector that matches nothing simply leaves the field nil. The parser
// never fails on malformed markup.
type Parser struct {
	now func() time.Time
}

// NewParser returns a Parser using the wall clock for building-age math.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

var (
	promoPrefixRe   = regexp.MustCompile(`^.*?(!|！|】)\s*`)
	priceSuffixRe   = regexp.MustCompile(`[\s\x{3000}]*[0-9０-９,]+[万億]円?.*$`)
	trailingParenRe = regexp.MustCompile(`[\(（].*?[\)）]$`)
	bracketNoteRe   = regexp.MustCompile(`\[.*?\]`)
	numberRe        = regexp.MustCompile(`[\d.]+`)
	builtYearRe     = regexp.MustCompile(`(\d{4})年`)
	floorRe         = regexp.MustCompile(`(\d+)階`)
	cityRe          = regexp.MustCompile(`[都県](.+?区|.+?市)`)
	walkRe          = regexp.MustCompile(`(.+?)\s*(?:歩|徒歩)(\d+)分`)
	sourceIDRe      = regexp.MustCompile(`/nc_(\d+)/`)
	brRe            = regexp.MustCompile(`(?i)<br\s*/?>`)
	accessNoiseRe   = regexp.MustCompile(`[\s\]\[「」]+`)
	headingPromoRe  = regexp.MustCompile(`^【.*?】\s*`)
)

// SourceIDFromURL extracts the site-local property identifier from a detail
// page URL. Returns "" when the URL has no recognizable identifier.
func SourceIDFromURL(url string) string {
	m := sourceIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseDetail reads the property-overview page into a Listing. Fields the
// page does not carry stay nil; the derived unit price is recomputed at the
// end so it can never disagree with price and area.
func (p *Parser) ParseDetail(doc *goquery.Document, url string) *models.Listing {
	l := &models.Listing{
		Source:   "suumo",
		SourceID: SourceIDFromURL(url),
		URL:      url,
		IsActive: true,
	}

	l.Title = p.parseTitle(doc)
	p.parseOverviewTables(doc, l)
	p.parseFeatures(doc, l)
	l.DerivePricePerSqm()

	return l
}

// parseTitle tries the breadcrumb first (the cleanest name), then the page
// headings with promotional noise stripped off.
func (p *Parser) parseTitle(doc *goquery.Document) string {
	if link := doc.Find(`.breadcrumb_item a[href*="/nc_"], .p-breadcrumb-item a[href*="/nc_"]`).First(); link.Length() > 0 {
		if t := strings.TrimSpace(link.Text()); t != "" {
			return t
		}
	}

	if h1 := doc.Find("h1.section_h1-header-title, h1.secTitle, h1").First(); h1.Length() > 0 {
		t := strings.TrimSpace(h1.Text())
		t = promoPrefixRe.ReplaceAllString(t, "")
		t = priceSuffixRe.ReplaceAllString(t, "")
		t = trailingParenRe.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
		if t != "" && !isDigits(t) {
			return t
		}
	}

	if h2 := doc.Find("h2.section_h2-header-title").First(); h2.Length() > 0 {
		t := strings.ReplaceAll(strings.TrimSpace(h2.Text()), "【マンション】", "")
		t = headingPromoRe.ReplaceAllString(t, "")
		return strings.TrimSpace(t)
	}

	return ""
}

// parseOverviewTables walks the th/td pairs of the overview tables and
// dispatches each labeled value to its field parser.
func (p *Parser) parseOverviewTables(doc *goquery.Document, l *models.Listing) {
	doc.Find("table.mt10 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		for i := 0; i < cells.Length()-1; i++ {
			th := cells.Eq(i)
			td := cells.Eq(i + 1)
			if !th.Is("th") || !td.Is("td") {
				continue
			}

			label := strings.TrimSpace(strings.ReplaceAll(th.Text(), "ヒント", ""))
			value := strings.TrimSpace(bracketNoteRe.ReplaceAllString(td.Text(), ""))

			p.applyField(l, label, value, td)
			i++ // consumed the td
		}
	})
}

func (p *Parser) applyField(l *models.Listing, label, value string, td *goquery.Selection) {
	switch {
	case strings.Contains(label, "物件名") || strings.Contains(label, "マンション名"):
		if l.Title == "" || strings.Contains(l.Title, "物件") {
			l.Title = value
		}

	case strings.Contains(label, "価格"):
		if yen := ParseYen(value); yen != nil {
			// Stored in 万円.
			man := *yen / 10000
			l.Price = &man
		}

	case strings.Contains(label, "専有面積"):
		if m := numberRe.FindString(value); m != "" {
			if area, err := strconv.ParseFloat(m, 64); err == nil {
				l.Area = &area
			}
		}

	case strings.Contains(label, "間取り"):
		if value != "" {
			layout := value
			l.Layout = &layout
		}

	case strings.Contains(label, "築年月") || strings.Contains(label, "完成時期"):
		if m := builtYearRe.FindStringSubmatch(value); m != nil {
			year, _ := strconv.Atoi(m[1])
			age := p.now().Year() - year
			if age < 0 {
				age = 0
			}
			l.BuildingAge = &age
		}

	case strings.Contains(label, "所在階"):
		if m := floorRe.FindStringSubmatch(value); m != nil {
			floor, _ := strconv.Atoi(m[1])
			l.Floor = &floor
		}

	case strings.Contains(label, "向き") || strings.Contains(label, "方角") || strings.Contains(label, "バルコニー"):
		// Compound directions first so 南東 does not match as plain 南.
		for _, d := range []string{"南東", "南西", "北東", "北西", "南", "東", "西", "北"} {
			if strings.Contains(value, d) {
				dir := d
				l.Direction = &dir
				break
			}
		}

	case strings.Contains(label, "所在地"):
		l.Address = value
		for _, pref := range []string{"東京都", "神奈川県", "埼玉県", "千葉県"} {
			if strings.Contains(value, pref) {
				l.Prefecture = pref
				break
			}
		}
		if m := cityRe.FindStringSubmatch(value); m != nil {
			l.City = m[1]
		}

	case strings.Contains(label, "交通"):
		p.parseAccess(td, l)

	case strings.Contains(label, "管理費"):
		if yen := ParseYen(value); yen != nil {
			l.ManagementFee = yen
		}

	case strings.Contains(label, "修繕積立金"):
		if yen := ParseYen(value); yen != nil {
			l.RepairReserve = yen
		}
	}
}

// parseAccess extracts every station/walking-minutes line from the access
// cell and keeps the nearest station as the listing's primary one.
func (p *Parser) parseAccess(td *goquery.Selection, l *models.Listing) {
	// <br> separated lines; goquery flattens text, so re-split on the
	// rendered line breaks.
	html, err := td.Html()
	if err != nil {
		return
	}
	text := brRe.ReplaceAllString(html, "\n")
	text = stripTags(text)

	bestDistance := -1
	bestStation := ""
	var accessLines []string

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(accessNoiseRe.ReplaceAllString(line, " "))
		if clean == "" || strings.Contains(clean, "乗り換え案内") || strings.Contains(clean, "地図") {
			continue
		}

		m := walkRe.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		accessLines = append(accessLines, m[1]+" 徒歩"+m[2]+"分")

		dist, _ := strconv.Atoi(m[2])
		if bestDistance < 0 || dist < bestDistance {
			bestDistance = dist
			bestStation = stationNameFrom(m[1])
		}
	}

	if bestDistance >= 0 {
		l.StationName = bestStation
		l.StationDistance = &bestDistance
	}
	if len(accessLines) > 0 {
		l.AccessInfo = strings.Join(accessLines, "\n")
	}
}

// stationNameFrom pulls the station name out of a line/station prefix such
// as `東京メトロ千代田線「代々木公園`: the last space-separated token after
// any closing quote.
func stationNameFrom(prefix string) string {
	s := prefix
	if i := strings.LastIndex(s, "」"); i >= 0 {
		s = s[i+len("」"):]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return strings.TrimSpace(s)
	}
	return fields[len(fields)-1]
}

// parseFeatures scans the page text for amenity keywords. The overview page
// lists equipment in free-form text rather than structured markup.
func (p *Parser) parseFeatures(doc *goquery.Document, l *models.Listing) {
	text := doc.Text()

	l.Features = models.Features{
		AutoLock:    strings.Contains(text, "オートロック"),
		PetOK:       strings.Contains(text, "ペット") && strings.Contains(text, "可"),
		DeliveryBox: strings.Contains(text, "宅配ボックス") || strings.Contains(text, "宅配BOX"),
	}
}

var (
	fullwidthReplacer = strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
		"（", "(", "）", ")", "／", "/",
	)
	parenNoteRe = regexp.MustCompile(`\(.*?\)`)
	okuRe       = regexp.MustCompile(`(\d+)億`)
	manRe       = regexp.MustCompile(`(\d+)万`)
	leftoverRe  = regexp.MustCompile(`(?:万|億|^)(\d+)円`)
	digitsRe    = regexp.MustCompile(`\d+`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
)

// ParseYen converts amounts such as 1億2345万円 or 1万4000円 to yen.
// Returns nil for empty, "-", or unparseable values.
func ParseYen(text string) *int {
	if text == "" || text == "-" {
		return nil
	}

	t := fullwidthReplacer.Replace(text)
	t = strings.ReplaceAll(t, ",", "")
	t = parenNoteRe.ReplaceAllString(t, "")

	total := 0
	oku := okuRe.FindStringSubmatch(t)
	if oku != nil {
		n, _ := strconv.Atoi(oku[1])
		total += n * 100000000
	}
	man := manRe.FindStringSubmatch(t)
	if man != nil {
		n, _ := strconv.Atoi(man[1])
		total += n * 10000
	}

	if m := leftoverRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	} else if oku == nil && man == nil {
		if m := digitsRe.FindString(t); m != "" {
			total, _ = strconv.Atoi(m)
		}
	}

	if total <= 0 {
		return nil
	}
	return &total
}

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
