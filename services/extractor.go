package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"copart-organizer/models"
	"copart-organizer/utils"
)

// ErrNoLotData means the document carried no extractable lot record: the
// embedding marker was missing (changed page shape, error page, CAPTCHA) or
// the embedded payload would not parse. Extraction is all-or-nothing, so
// callers get this error or a complete Lot, never a partial record.
var ErrNoLotData = errors.New("lot data not found in document")

// lotDetailMarker keys the inline script block that embeds the serialized
// lot-detail object on the source's detail pages.
const lotDetailMarker = "cachedSolrLotDetailsStr"

const (
	saleDateSelector   = `span[data-uname="lotdetailSaleinformationsaledatevalue"]`
	futureLinkSelector = `a[data-uname="lotdetailFuturelink"]`
	imageHostPrefix    = "https://cs.copart.com/v1/AUTH_svc.pdoc00001"
)

var (
	// lotDetailRegexp captures the first-level-escaped JSON object that
	// follows the embedding marker.
	lotDetailRegexp = regexp.MustCompile(lotDetailMarker + `:\s*"({.+?})"`)
	// auctionDateRegexp matches the human-formatted sale date,
	// e.g. "Wed. Jul 30, 2025 10:00 AM EDT".
	auctionDateRegexp = regexp.MustCompile(`[A-Za-z]+\.?\s+([A-Za-z]+)\s+(\d+),\s*(\d+)\s+(\d+:\d+)\s*([AP]M)`)
)

// apiStatusTable maps the structured endpoint's status strings onto the
// canonical enum. Anything unlisted falls back to FUTURE.
var apiStatusTable = map[string]models.SaleStatus{
	"UPCOMING":   models.StatusFuture,
	"PENDING":    models.StatusUpcoming,
	"LIVE":       models.StatusNowPlaying,
	"SOLD":       models.StatusSold,
	"CLOSED":     models.StatusSold,
	"PROCESSING": models.StatusUpcoming,
}

// Extractor turns fetched documents into canonical Lot records. It holds no
// state between calls; the clock hook exists so classification is
// deterministic under test.
type Extractor struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewExtractor creates an Extractor using the wall clock.
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger, now: time.Now}
}

// ExtractHTML parses a fetched lot-detail page into a Lot. The embedded
// object supplies the fields; presentational markers scanned off the page
// (Future link, Sold text, Upcoming lot text, formatted sale date) act as
// advisory overrides for status classification.
func (e *Extractor) ExtractHTML(html string) (*models.Lot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLotData, err)
	}

	var script string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), lotDetailMarker) {
			script = s.Text()
			return false
		}
		return true
	})
	if script == "" {
		e.logger.Warn("[extractor] marker %q not found in document", lotDetailMarker)
		return nil, ErrNoLotData
	}

	m := lotDetailRegexp.FindStringSubmatch(script)
	if m == nil {
		e.logger.Warn("[extractor] marker present but no embedded object matched")
		return nil, ErrNoLotData
	}

	// The object is embedded as an escaped string literal; undo exactly the
	// two escape forms the source applies, in this order.
	raw := strings.ReplaceAll(m[1], `\"`, `"`)
	raw = strings.ReplaceAll(raw, `\\`, `\`)

	var src solrLot
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		e.logger.Warn("[extractor] embedded object unparsable: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrNoLotData, err)
	}

	lotNumber := strings.TrimSpace(src.LotNumberStr)
	if lotNumber == "" && src.LotNumber != 0 {
		lotNumber = strconv.FormatInt(int64(src.LotNumber), 10)
	}
	if lotNumber == "" {
		return nil, ErrNoLotData
	}

	sig := Signals{
		ExplicitSold:     hasExactText(doc, "span, div", "Sold"),
		ExplicitFuture:   hasExactText(doc, futureLinkSelector, "Future"),
		ExplicitUpcoming: hasExactText(doc, "a", "Upcoming lot"),
		AuctionDate:      parseAuctionDate(doc.Find(saleDateSelector).First().Text()),
		EmbeddedDate:     src.AuctionMs.timePtr(),
		StatusCode:       src.StatusCode.intPtr(),
	}

	now := e.now()
	status := Classify(sig, now)

	lot := &models.Lot{
		LotNumber:             lotNumber,
		Title:                 strPtr(src.Description),
		Year:                  src.Year.yearPtr(),
		Make:                  strPtr(src.MakeName),
		Model:                 strPtr(firstNonEmpty(src.Model, src.ModelAlt)),
		VIN:                   strPtr(src.VIN),
		Odometer:              odometerFrom(src.OdometerType, float64(src.OdometerVal)),
		PrimaryDamage:         strPtr(src.Damage),
		TitleStatus:           strPtr(src.TitleGroup),
		VehicleType:           strPtr(src.VehicleType),
		Drive:                 strPtr(src.Drive),
		FuelType:              strPtr(src.Fuel),
		Color:                 strPtr(src.Color),
		ImageURL:              fullImageURL(src.Thumbnail),
		Location:              strPtr(src.Yard),
		CurrentBid:            src.HighBid.floatPtr(),
		BuyItNow:              positiveFloat(src.BuyItNow),
		HasBuyNow:             src.BuyItNow != nil && float64(*src.BuyItNow) > 0,
		Keys:                  src.HasKeys == "YES",
		SaleDate:              saleDateFor(status, sig.EmbeddedDate),
		SaleStatus:            status,
		SaleStatusDescription: status.Description(),
		StartCode:             strPtr(src.StartCode),
		Highlights:            src.Highlights,
		TitleType:             strPtr(src.TitleDesc),
		SaleTime:              src.SaleTimeMs.timePtr(),
		TimeZone:              firstNonEmpty(src.TimeZone, "America/New_York"),
	}
	return lot, nil
}

// ExtractJSON parses the structured endpoint's payload (data.lotDetails with
// a nested ld object) into the same canonical shape as ExtractHTML.
func (e *Extractor) ExtractJSON(payload []byte) (*models.Lot, error) {
	var env apiEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLotData, err)
	}
	src := env.Data.LotDetails
	if src == nil || src.Details == nil {
		return nil, ErrNoLotData
	}
	ld := src.Details

	lotNumber := strings.TrimSpace(src.LotNumber.String())
	if lotNumber == "" || lotNumber == "0" {
		return nil, ErrNoLotData
	}

	status, ok := apiStatusTable[strings.ToUpper(strings.TrimSpace(ld.SaleStatus))]
	if !ok {
		status = models.StatusFuture
	}

	title := fmt.Sprintf("%d %s %s #%s", ld.Year.int(), ld.Make, ld.Model, lotNumber)
	currentBid := ld.HighestBid.floatPtr()
	if currentBid == nil {
		currentBid = ld.StartingBid.floatPtr()
	}

	lot := &models.Lot{
		LotNumber:             lotNumber,
		Title:                 strPtr(title),
		Year:                  ld.Year.yearPtr(),
		Make:                  strPtr(ld.Make),
		Model:                 strPtr(ld.Model),
		VIN:                   strPtr(ld.VIN),
		Odometer:              apiOdometerFrom(ld.OdometerUnit, float64(ld.OdometerVal)),
		PrimaryDamage:         strPtr(ld.Damage),
		VehicleType:           strPtr(ld.VehicleType),
		Drive:                 strPtr(ld.Drive),
		FuelType:              strPtr(ld.Fuel),
		Color:                 strPtr(ld.Color),
		ImageURL:              apiImageURL(ld.Thumb),
		Location:              strPtr(ld.Yard),
		CurrentBid:            currentBid,
		BuyItNow:              positiveFloat(ld.BuyNow),
		HasBuyNow:             ld.BuyNow != nil && float64(*ld.BuyNow) > 0,
		Keys:                  ld.HasKeys,
		SaleDate:              saleDateFor(status, ld.SaleDateMs.timePtr()),
		SaleStatus:            status,
		SaleStatusDescription: status.Description(),
		TimeZone:              "America/New_York",
	}
	return lot, nil
}

// solrLot mirrors the cryptic short-named fields of the embedded object.
type solrLot struct {
	LotNumberStr string      `json:"lotNumberStr"`
	LotNumber    flexNumber  `json:"ln"`
	Description  string      `json:"ld"`
	Year         flexNumber  `json:"lcy"`
	MakeName     string      `json:"mkn"`
	Model        string      `json:"lm"`
	ModelAlt     string      `json:"mmod"`
	OdometerType string      `json:"ord"`
	OdometerVal  flexNumber  `json:"orr"`
	Damage       string      `json:"dd"`
	VIN          string      `json:"fv"`
	AuctionMs    *flexNumber `json:"ad"`
	Thumbnail    string      `json:"tims"`
	Yard         string      `json:"yn"`
	HighBid      *flexNumber `json:"hb"`
	BuyItNow     *flexNumber `json:"myb"`
	VehicleType  string      `json:"vehTypDesc"`
	Drive        string      `json:"drv"`
	Fuel         string      `json:"ft"`
	Color        string      `json:"clr"`
	TitleGroup   string      `json:"tgd"`
	TitleDesc    string      `json:"td"`
	HasKeys      string      `json:"hk"`
	StartCode    string      `json:"lcd"`
	Highlights   []string    `json:"lfd"`
	StatusCode   *flexNumber `json:"ss"`
	SaleTimeMs   *flexNumber `json:"at"`
	TimeZone     string      `json:"ianaTimeZone"`
}

type apiEnvelope struct {
	Data struct {
		LotDetails *apiLot `json:"lotDetails"`
	} `json:"data"`
}

type apiLot struct {
	LotNumber flexNumber  `json:"ln"`
	Details   *apiDetails `json:"ld"`
}

type apiDetails struct {
	Year         flexNumber  `json:"yr"`
	Make         string      `json:"mk"`
	Model        string      `json:"md"`
	Damage       string      `json:"dmg"`
	OdometerVal  flexNumber  `json:"orr"`
	OdometerUnit string      `json:"oru"`
	Thumb        string      `json:"thumb"`
	SaleDateMs   *flexNumber `json:"saleDate"`
	SaleStatus   string      `json:"saleStatus"`
	Yard         string      `json:"yn"`
	HighestBid   *flexNumber `json:"highestBid"`
	StartingBid  *flexNumber `json:"startingBid"`
	BuyNow       *flexNumber `json:"buyNowPrice"`
	VIN          string      `json:"fv"`
	Color        string      `json:"clr"`
	Drive        string      `json:"drv"`
	Fuel         string      `json:"fuel"`
	VehicleType  string      `json:"vt"`
	HasKeys      bool        `json:"hk"`
}

// flexNumber accepts a JSON number or a numeric string; the source is not
// consistent about which it emits.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("numeric field %q: %w", s, err)
	}
	*f = flexNumber(v)
	return nil
}

func (f flexNumber) int() int { return int(f) }

func (f flexNumber) String() string {
	return strconv.FormatInt(int64(f), 10)
}

func (f flexNumber) yearPtr() *int {
	if f == 0 {
		return nil
	}
	n := int(f)
	return &n
}

func (f *flexNumber) floatPtr() *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	v := float64(*f)
	return &v
}

func (f *flexNumber) intPtr() *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// timePtr interprets the value as epoch milliseconds.
func (f *flexNumber) timePtr() *time.Time {
	if f == nil || *f == 0 {
		return nil
	}
	t := time.UnixMilli(int64(*f)).UTC()
	return &t
}

// hasExactText reports whether any node matched by selector has exactly the
// given trimmed text content.
func hasExactText(doc *goquery.Document, selector, text string) bool {
	found := false
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == text {
			found = true
			return false
		}
		return true
	})
	return found
}

// parseAuctionDate parses the page's human-formatted sale date
// ("Wed. Jul 30, 2025 10:00 AM EDT") into a local timestamp, or nil.
func parseAuctionDate(text string) *time.Time {
	m := auctionDateRegexp.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	composed := fmt.Sprintf("%s %s, %s %s %s", m[1], m[2], m[3], m[4], m[5])
	t, err := time.ParseInLocation("Jan 2, 2006 3:04 PM", composed, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// odometerFrom applies the odometer invariant for the HTML path: a reading
// is only trusted when the reading-type flag is present alongside it.
// "ACTUAL" readings are miles, anything else kilometers.
func odometerFrom(readingType string, value float64) *models.Odometer {
	if strings.TrimSpace(readingType) == "" || value == 0 {
		return nil
	}
	unit := "km"
	if readingType == "ACTUAL" {
		unit = "mi"
	}
	return &models.Odometer{Value: value, Unit: unit}
}

// apiOdometerFrom is the structured-endpoint variant: unit code "M" means
// miles, anything else kilometers.
func apiOdometerFrom(unitCode string, value float64) *models.Odometer {
	if strings.TrimSpace(unitCode) == "" || value == 0 {
		return nil
	}
	unit := "km"
	if unitCode == "M" {
		unit = "mi"
	}
	return &models.Odometer{Value: value, Unit: unit}
}

// fullImageURL rewrites the thumbnail variant to the full-resolution one.
func fullImageURL(thumb string) *string {
	if strings.TrimSpace(thumb) == "" {
		return nil
	}
	u := strings.Replace(thumb, "_thb.", "_ful.", 1)
	return &u
}

func apiImageURL(thumbPath string) *string {
	if strings.TrimSpace(thumbPath) == "" {
		return nil
	}
	return fullImageURL(imageHostPrefix + thumbPath)
}

// saleDateFor applies the output rule: no date for FUTURE lots or when the
// source carried none.
func saleDateFor(status models.SaleStatus, raw *time.Time) *time.Time {
	if status == models.StatusFuture || raw == nil {
		return nil
	}
	return raw
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func positiveFloat(f *flexNumber) *float64 {
	if f == nil || float64(*f) <= 0 {
		return nil
	}
	v := float64(*f)
	return &v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
