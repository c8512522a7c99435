package services

import (
	"testing"
	"time"

	"copart-organizer/models"
	"copart-organizer/utils"
)

func TestGenerateSummary(t *testing.T) {
	svc := NewSummaryService(utils.NewLogger(false))

	loc := "TX - DALLAS"
	loc2 := "CA - LOS ANGELES"
	lowBid := 800.0
	highBid := 4250.0
	nearSale := testNow.Add(24 * time.Hour)
	farSale := testNow.Add(96 * time.Hour)
	pastSale := testNow.Add(-48 * time.Hour)

	lots := []*models.Lot{
		{LotNumber: "1", SaleDate: tp(farSale), SaleStatus: models.StatusUpcoming, Location: &loc, CurrentBid: &highBid},
		{LotNumber: "2", SaleDate: tp(nearSale), SaleStatus: models.StatusSoonPlaying, Location: &loc, CurrentBid: &lowBid, IsFavorite: true},
		{LotNumber: "3", SaleDate: tp(pastSale), SaleStatus: models.StatusSold, Location: &loc2},
	}

	sum := svc.Generate(lots, testNow)

	if sum.TotalLots != 3 {
		t.Errorf("totalLots = %d", sum.TotalLots)
	}
	if sum.Favorites != 1 {
		t.Errorf("favorites = %d", sum.Favorites)
	}
	// Lot 2's sale is tomorrow, a different calendar day, so it counts as
	// future alongside lot 1; lot 3 is recent.
	if sum.FutureCount != 2 || sum.RecentCount != 1 || sum.SoonCount != 0 {
		t.Errorf("counts soon/future/recent = %d/%d/%d", sum.SoonCount, sum.FutureCount, sum.RecentCount)
	}
	if sum.NextSaleAt == nil || !sum.NextSaleAt.Equal(nearSale) {
		t.Errorf("nextSaleAt = %v, want %v", sum.NextSaleAt, nearSale)
	}
	if sum.NextSaleLot == nil || sum.NextSaleLot.LotNumber != "2" {
		t.Errorf("nextSaleLot = %+v", sum.NextSaleLot)
	}
	if sum.HighestBid == nil || sum.HighestBid.LotNumber != "1" {
		t.Errorf("highestBidLot = %+v", sum.HighestBid)
	}
	if sum.ByLocation[loc] != 2 || sum.ByLocation[loc2] != 1 {
		t.Errorf("byLocation = %v", sum.ByLocation)
	}
}

func TestGenerateSummaryEmpty(t *testing.T) {
	svc := NewSummaryService(utils.NewLogger(false))
	sum := svc.Generate(nil, testNow)

	if sum.TotalLots != 0 {
		t.Errorf("totalLots = %d", sum.TotalLots)
	}
	if sum.ByLocation == nil {
		t.Error("byLocation should be an empty map, not nil")
	}
	if sum.NextSaleAt != nil || sum.HighestBid != nil {
		t.Error("empty list has no next sale or highest bid")
	}
}
