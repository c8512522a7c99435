package models

import "time"

// SaleStatus classifies where a lot sits in its auction lifecycle.
type SaleStatus string

const (
	StatusFuture       SaleStatus = "FUTURE"
	StatusUpcoming     SaleStatus = "UPCOMING"
	StatusSoonPlaying  SaleStatus = "SOON_PLAYING"
	StatusNowPlaying   SaleStatus = "NOW_PLAYING"
	StatusSoldRecently SaleStatus = "SOLD_RECENTLY"
	StatusSold         SaleStatus = "SOLD"
	StatusLive         SaleStatus = "LIVE"
	StatusUnknown      SaleStatus = "UNKNOWN"
)

var statusDescriptions = map[SaleStatus]string{
	StatusFuture:       "Future",
	StatusUpcoming:     "Upcoming",
	StatusSoonPlaying:  "Soon Playing",
	StatusNowPlaying:   "Now Playing",
	StatusSoldRecently: "Recently Sold",
	StatusSold:         "Sold",
	StatusLive:         "Live Now",
	StatusUnknown:      "Status Unknown",
}

// Description returns the human-readable label for the status.
func (s SaleStatus) Description() string {
	if d, ok := statusDescriptions[s]; ok {
		return d
	}
	return "Unknown"
}

// Bucket is the dashboard grouping a lot is rendered under. It is derived
// from SaleStatus and the current time at render, never stored.
type Bucket string

const (
	BucketSoon   Bucket = "soon"
	BucketFuture Bucket = "future"
	BucketRecent Bucket = "recent"
)

// Odometer is the reading together with its unit. It is only ever fully
// populated or absent; a Lot never carries a partial odometer.
type Odometer struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"` // "mi" or "km"
}

// Lot is the canonical normalized auction-lot record. Everything except
// IsFavorite and Notes is owned by the extractor and replaced wholesale on
// refresh; those two fields (and AddedAt) belong to the tracked list.
type Lot struct {
	LotNumber     string     `json:"lotNumber"`
	Title         *string    `json:"title"`
	Year          *int       `json:"year"`
	Make          *string    `json:"make"`
	Model         *string    `json:"model"`
	VIN           *string    `json:"vin"`
	Odometer      *Odometer  `json:"odometer"`
	PrimaryDamage *string    `json:"primaryDamage"`
	TitleStatus   *string    `json:"titleStatus"`
	VehicleType   *string    `json:"vehicleType"`
	Drive         *string    `json:"drive"`
	FuelType      *string    `json:"fuelType"`
	Color         *string    `json:"color"`
	ImageURL      *string    `json:"imageUrl"`
	Location      *string    `json:"location"`
	CurrentBid    *float64   `json:"currentBid"`
	BuyItNow      *float64   `json:"buyItNow"`
	HasBuyNow     bool       `json:"hasBuyNow"`
	Keys          bool       `json:"keys"`
	SaleDate      *time.Time `json:"saleDate"`
	SaleStatus    SaleStatus `json:"saleStatus"`

	SaleStatusDescription string `json:"saleStatusDescription"`

	StartCode  *string    `json:"startCode,omitempty"`
	Highlights []string   `json:"highlights,omitempty"`
	TitleType  *string    `json:"titleType,omitempty"`
	SaleTime   *time.Time `json:"saleTime,omitempty"`
	TimeZone   string     `json:"timeZone,omitempty"`

	// User-owned fields, attached by the tracked list.
	IsFavorite  bool       `json:"isFavorite"`
	Notes       string     `json:"notes"`
	AddedAt     *time.Time `json:"addedAt,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Clone returns a copy of the lot. Pointer fields are shared, which is safe
// because extracted values are never mutated in place.
func (l *Lot) Clone() *Lot {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
