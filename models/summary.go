package models

import "time"

// TrackedSummary holds the aggregates shown on the dashboard header.
type TrackedSummary struct {
	TotalLots   int            `json:"totalLots"`
	Favorites   int            `json:"favorites"`
	SoonCount   int            `json:"soonCount"`
	FutureCount int            `json:"futureCount"`
	RecentCount int            `json:"recentCount"`
	NextSaleAt  *time.Time     `json:"nextSaleAt"`
	NextSaleLot *Lot           `json:"nextSaleLot"`
	HighestBid  *Lot           `json:"highestBidLot"`
	ByLocation  map[string]int `json:"lotsByLocation"`
}
