package services

import (
	"time"

	"copart-organizer/models"
	"copart-organizer/utils"
)

// SummaryService computes the dashboard aggregates over the tracked list.
type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate builds a TrackedSummary for the given lots as of now.
func (s *SummaryService) Generate(lots []*models.Lot, now time.Time) *models.TrackedSummary {
	summary := &models.TrackedSummary{
		ByLocation: make(map[string]int),
	}
	if len(lots) == 0 {
		return summary
	}

	summary.TotalLots = len(lots)

	for _, l := range lots {
		if l.IsFavorite {
			summary.Favorites++
		}
		if l.Location != nil {
			summary.ByLocation[*l.Location]++
		}

		_, bucket := Rebucket(l, now)
		switch bucket {
		case models.BucketSoon:
			summary.SoonCount++
		case models.BucketRecent:
			summary.RecentCount++
		default:
			summary.FutureCount++
		}

		if l.SaleDate != nil && l.SaleDate.After(now) {
			if summary.NextSaleAt == nil || l.SaleDate.Before(*summary.NextSaleAt) {
				summary.NextSaleAt = l.SaleDate
				summary.NextSaleLot = l
			}
		}

		if l.CurrentBid != nil {
			if summary.HighestBid == nil || *l.CurrentBid > *summary.HighestBid.CurrentBid {
				summary.HighestBid = l
			}
		}
	}

	return summary
}
