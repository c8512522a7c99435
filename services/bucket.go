package services

import (
	"sort"
	"time"

	"copart-organizer/models"
)

// Rebucket re-derives a lot's displayed status and dashboard bucket from
// (saleDate, saleStatus, now). A bucket is a function of elapsed time, not a
// stored property, so this runs again at every render; it never trusts a
// bucket computed at an earlier time.
func Rebucket(lot *models.Lot, now time.Time) (models.SaleStatus, models.Bucket) {
	d := lot.SaleDate
	switch {
	case lot.SaleStatus == models.StatusSold || (d != nil && d.Before(now)):
		return models.StatusSold, models.BucketRecent
	case d != nil && sameCalendarDay(*d, now):
		return models.StatusNowPlaying, models.BucketSoon
	case d != nil && d.After(now):
		return models.StatusFuture, models.BucketFuture
	case lot.SaleStatus == models.StatusNowPlaying:
		return lot.SaleStatus, models.BucketSoon
	default:
		return lot.SaleStatus, models.BucketFuture
	}
}

// SortBySaleDate orders lots by ascending sale date in place. Lots without a
// date sort as the earliest possible timestamp, so they lead the list.
func SortBySaleDate(lots []*models.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return saleDateOrEpoch(lots[i]).Before(saleDateOrEpoch(lots[j]))
	})
}

func saleDateOrEpoch(l *models.Lot) time.Time {
	if l.SaleDate == nil {
		return time.Unix(0, 0)
	}
	return *l.SaleDate
}

// Categorize produces the dashboard view: lots sorted by sale date, grouped
// into soon/future/recent with statuses re-derived for the given time. The
// input lots are not mutated; each bucket holds updated copies.
func Categorize(lots []*models.Lot, now time.Time) map[models.Bucket][]*models.Lot {
	sorted := make([]*models.Lot, len(lots))
	copy(sorted, lots)
	SortBySaleDate(sorted)

	buckets := map[models.Bucket][]*models.Lot{
		models.BucketSoon:   {},
		models.BucketFuture: {},
		models.BucketRecent: {},
	}
	for _, l := range sorted {
		status, bucket := Rebucket(l, now)
		c := l.Clone()
		c.SaleStatus = status
		c.SaleStatusDescription = status.Description()
		buckets[bucket] = append(buckets[bucket], c)
	}
	return buckets
}
