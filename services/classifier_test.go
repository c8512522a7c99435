package services

import (
	"testing"
	"time"

	"copart-organizer/models"
)

var testNow = time.Date(2025, 7, 28, 9, 0, 0, 0, time.Local)

func tp(t time.Time) *time.Time { return &t }
func ip(n int) *int             { return &n }

func TestClassifyPrecedence(t *testing.T) {
	pastDate := testNow.Add(-48 * time.Hour)
	futureDate := testNow.Add(72 * time.Hour)
	laterToday := testNow.Add(3 * time.Hour)

	tests := []struct {
		name string
		sig  Signals
		want models.SaleStatus
	}{
		{
			name: "explicit sold dominates future auction date",
			sig:  Signals{ExplicitSold: true, AuctionDate: tp(futureDate)},
			want: models.StatusSold,
		},
		{
			name: "auction date in the past",
			sig:  Signals{AuctionDate: tp(pastDate)},
			want: models.StatusSold,
		},
		{
			name: "auction later today",
			sig:  Signals{AuctionDate: tp(laterToday)},
			want: models.StatusNowPlaying,
		},
		{
			name: "auction on a future day",
			sig:  Signals{AuctionDate: tp(futureDate)},
			want: models.StatusSoonPlaying,
		},
		{
			name: "upcoming marker with no date",
			sig:  Signals{ExplicitUpcoming: true},
			want: models.StatusUpcoming,
		},
		{
			name: "future link with embedded date",
			sig:  Signals{ExplicitFuture: true, EmbeddedDate: tp(futureDate)},
			want: models.StatusSoonPlaying,
		},
		{
			name: "future link without any date",
			sig:  Signals{ExplicitFuture: true},
			want: models.StatusFuture,
		},
		{
			name: "upcoming marker loses to auction date",
			sig:  Signals{ExplicitUpcoming: true, AuctionDate: tp(futureDate)},
			want: models.StatusSoonPlaying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.sig, testNow); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusFromCodeHeuristic(t *testing.T) {
	futureDate := testNow.Add(72 * time.Hour)
	recentPast := testNow.Add(-48 * time.Hour)
	distantPast := testNow.Add(-10 * 24 * time.Hour)

	tests := []struct {
		name string
		sig  Signals
		want models.SaleStatus
	}{
		{"no date at all", Signals{StatusCode: ip(1)}, models.StatusFuture},
		{"future date code 2", Signals{StatusCode: ip(2), EmbeddedDate: tp(futureDate)}, models.StatusUpcoming},
		{"future date code 3", Signals{StatusCode: ip(3), EmbeddedDate: tp(futureDate)}, models.StatusUpcoming},
		{"future date code 0", Signals{StatusCode: ip(0), EmbeddedDate: tp(futureDate)}, models.StatusFuture},
		{"future date code 1", Signals{StatusCode: ip(1), EmbeddedDate: tp(futureDate)}, models.StatusFuture},
		{"future date unknown code", Signals{StatusCode: ip(7), EmbeddedDate: tp(futureDate)}, models.StatusUpcoming},
		{"future date no code", Signals{EmbeddedDate: tp(futureDate)}, models.StatusUpcoming},
		{"past within five days", Signals{StatusCode: ip(2), EmbeddedDate: tp(recentPast)}, models.StatusSoldRecently},
		{"past beyond five days", Signals{StatusCode: ip(2), EmbeddedDate: tp(distantPast)}, models.StatusSold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.sig, testNow); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyNeverEmpty(t *testing.T) {
	if got := Classify(Signals{}, testNow); got != models.StatusFuture {
		t.Errorf("empty signals should fall back to FUTURE, got %s", got)
	}
}

func TestSameCalendarDay(t *testing.T) {
	a := time.Date(2025, 7, 28, 0, 1, 0, 0, time.Local)
	b := time.Date(2025, 7, 28, 23, 59, 0, 0, time.Local)
	c := time.Date(2025, 7, 29, 0, 1, 0, 0, time.Local)

	if !sameCalendarDay(a, b) {
		t.Error("same date with different times should match")
	}
	if sameCalendarDay(b, c) {
		t.Error("adjacent days two minutes apart should not match")
	}

	// A UTC instant is compared in the reference time's zone.
	utc := time.Date(2025, 7, 29, 3, 0, 0, 0, time.UTC)
	edt := time.Date(2025, 7, 28, 22, 0, 0, 0, time.FixedZone("EDT", -4*60*60))
	if !sameCalendarDay(utc, edt) {
		t.Error("03:00 UTC is 23:00 EDT the previous date, same day as the EDT clock")
	}
}
