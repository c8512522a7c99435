package services

import (
	"testing"
	"time"

	"copart-organizer/models"
)

func lotWithDate(n string, d *time.Time, status models.SaleStatus) *models.Lot {
	return &models.Lot{LotNumber: n, SaleDate: d, SaleStatus: status}
}

func TestRebucketRules(t *testing.T) {
	pastDate := testNow.Add(-48 * time.Hour)
	laterToday := testNow.Add(3 * time.Hour)
	futureDate := testNow.Add(72 * time.Hour)

	tests := []struct {
		name       string
		lot        *models.Lot
		wantStatus models.SaleStatus
		wantBucket models.Bucket
	}{
		{"sold status forces recent", lotWithDate("1", tp(futureDate), models.StatusSold), models.StatusSold, models.BucketRecent},
		{"past sale date forces sold", lotWithDate("2", tp(pastDate), models.StatusSoonPlaying), models.StatusSold, models.BucketRecent},
		{"sale later today", lotWithDate("3", tp(laterToday), models.StatusSoonPlaying), models.StatusNowPlaying, models.BucketSoon},
		{"future sale date", lotWithDate("4", tp(futureDate), models.StatusUpcoming), models.StatusFuture, models.BucketFuture},
		{"now playing without date", lotWithDate("5", nil, models.StatusNowPlaying), models.StatusNowPlaying, models.BucketSoon},
		{"no date default", lotWithDate("6", nil, models.StatusFuture), models.StatusFuture, models.BucketFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, bucket := Rebucket(tt.lot, testNow)
			if status != tt.wantStatus || bucket != tt.wantBucket {
				t.Errorf("Rebucket() = (%s, %s), want (%s, %s)",
					status, bucket, tt.wantStatus, tt.wantBucket)
			}
		})
	}
}

func TestRebucketIdempotent(t *testing.T) {
	lot := lotWithDate("1", tp(testNow.Add(72*time.Hour)), models.StatusSoonPlaying)

	s1, b1 := Rebucket(lot, testNow)
	lot.SaleStatus = s1
	s2, b2 := Rebucket(lot, testNow)

	if s1 != s2 || b1 != b2 {
		t.Errorf("second application changed result: (%s, %s) vs (%s, %s)", s1, b1, s2, b2)
	}
}

// A lot may only ever move forward through future → soon → recent as the
// clock advances.
func TestRebucketMonotonicForward(t *testing.T) {
	saleAt := time.Date(2025, 7, 30, 10, 0, 0, 0, time.Local)
	lot := lotWithDate("1", &saleAt, models.StatusSoonPlaying)

	order := map[models.Bucket]int{
		models.BucketFuture: 0,
		models.BucketSoon:   1,
		models.BucketRecent: 2,
	}

	times := []time.Time{
		saleAt.Add(-72 * time.Hour), // days before
		saleAt.Add(-2 * time.Hour),  // morning of the sale
		saleAt.Add(26 * time.Hour),  // day after
		saleAt.Add(10 * 24 * time.Hour),
	}

	prev := -1
	for _, now := range times {
		_, bucket := Rebucket(lot, now)
		if order[bucket] < prev {
			t.Fatalf("bucket moved backward to %s at %s", bucket, now)
		}
		prev = order[bucket]
	}
}

// Sale dates are stored UTC-normalized; the bucket must be computed in the
// viewer's zone. A sale at 23:00 EDT is 03:00 UTC the next day, and still
// belongs to today.
func TestRebucketSameDayAcrossZones(t *testing.T) {
	edt := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2025, 7, 28, 22, 0, 0, 0, edt)
	saleAt := time.Date(2025, 7, 29, 3, 0, 0, 0, time.UTC) // 23:00 EDT, Jul 28

	lot := lotWithDate("1", &saleAt, models.StatusSoonPlaying)
	status, bucket := Rebucket(lot, now)
	if status != models.StatusNowPlaying || bucket != models.BucketSoon {
		t.Errorf("Rebucket() = (%s, %s), want (NOW_PLAYING, soon)", status, bucket)
	}
}

func TestSortBySaleDateNilFirst(t *testing.T) {
	early := testNow.Add(24 * time.Hour)
	late := testNow.Add(96 * time.Hour)

	lots := []*models.Lot{
		lotWithDate("late", tp(late), models.StatusSoonPlaying),
		lotWithDate("undated", nil, models.StatusFuture),
		lotWithDate("early", tp(early), models.StatusSoonPlaying),
	}
	SortBySaleDate(lots)

	got := []string{lots[0].LotNumber, lots[1].LotNumber, lots[2].LotNumber}
	want := []string{"undated", "early", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", got, want)
		}
	}
}

func TestCategorize(t *testing.T) {
	pastDate := testNow.Add(-48 * time.Hour)
	futureDate := testNow.Add(72 * time.Hour)

	lots := []*models.Lot{
		lotWithDate("sold", tp(pastDate), models.StatusSoonPlaying),
		lotWithDate("future", tp(futureDate), models.StatusUpcoming),
		lotWithDate("today", tp(testNow.Add(2*time.Hour)), models.StatusSoonPlaying),
	}

	buckets := Categorize(lots, testNow)

	if len(buckets[models.BucketRecent]) != 1 || buckets[models.BucketRecent][0].LotNumber != "sold" {
		t.Errorf("recent bucket wrong: %+v", buckets[models.BucketRecent])
	}
	if len(buckets[models.BucketSoon]) != 1 || buckets[models.BucketSoon][0].LotNumber != "today" {
		t.Errorf("soon bucket wrong: %+v", buckets[models.BucketSoon])
	}
	if len(buckets[models.BucketFuture]) != 1 || buckets[models.BucketFuture][0].LotNumber != "future" {
		t.Errorf("future bucket wrong: %+v", buckets[models.BucketFuture])
	}

	// Statuses and descriptions are re-derived on the copies, the inputs
	// stay untouched.
	if buckets[models.BucketRecent][0].SaleStatus != models.StatusSold {
		t.Errorf("recent lot status = %s, want SOLD", buckets[models.BucketRecent][0].SaleStatus)
	}
	if buckets[models.BucketRecent][0].SaleStatusDescription != "Sold" {
		t.Errorf("description = %q, want Sold", buckets[models.BucketRecent][0].SaleStatusDescription)
	}
	if lots[0].SaleStatus != models.StatusSoonPlaying {
		t.Error("Categorize mutated its input")
	}
}

// Spec-level example: a sale two days ago with no explicit sold marker
// classifies SOLD and renders in the recent bucket.
func TestPastSaleClassifiesAndBucketsSold(t *testing.T) {
	pastDate := testNow.Add(-48 * time.Hour)

	status := Classify(Signals{AuctionDate: tp(pastDate), EmbeddedDate: tp(pastDate)}, testNow)
	if status != models.StatusSold {
		t.Fatalf("Classify = %s, want SOLD", status)
	}

	lot := lotWithDate("1", tp(pastDate), status)
	gotStatus, gotBucket := Rebucket(lot, testNow)
	if gotStatus != models.StatusSold || gotBucket != models.BucketRecent {
		t.Errorf("Rebucket = (%s, %s), want (SOLD, recent)", gotStatus, gotBucket)
	}
}
