package services

import (
	"time"

	"copart-organizer/models"
)

// soldRecentlyWindow is how long after its sale date a lot still counts as
// recently sold rather than plain sold.
const soldRecentlyWindow = 5 * 24 * time.Hour

// Signals are the raw classification inputs gathered during extraction.
// AuctionDate is the human-formatted date scraped off the page itself;
// EmbeddedDate is the `ad` timestamp from the embedded lot object. The two
// frequently disagree, which is why the rules consult them separately.
type Signals struct {
	ExplicitSold     bool
	ExplicitFuture   bool
	ExplicitUpcoming bool
	AuctionDate      *time.Time
	EmbeddedDate     *time.Time
	StatusCode       *int
}

// statusRule is one entry in the ordered classification table.
type statusRule struct {
	name    string
	matches func(sig Signals, now time.Time) bool
	status  func(sig Signals, now time.Time) models.SaleStatus
}

func fixed(s models.SaleStatus) func(Signals, time.Time) models.SaleStatus {
	return func(Signals, time.Time) models.SaleStatus { return s }
}

// statusRules is evaluated top to bottom; the first matching rule wins.
// The ordering is itself the business rule: an explicit Sold marker beats a
// future auction date, and the status-code heuristic only runs when nothing
// above it matched.
var statusRules = []statusRule{
	{
		name: "explicit-sold",
		matches: func(sig Signals, _ time.Time) bool {
			return sig.ExplicitSold
		},
		status: fixed(models.StatusSold),
	},
	{
		name: "auction-date-passed",
		matches: func(sig Signals, now time.Time) bool {
			return sig.AuctionDate != nil && sig.AuctionDate.Before(now)
		},
		status: fixed(models.StatusSold),
	},
	{
		name: "auction-today",
		matches: func(sig Signals, now time.Time) bool {
			return sig.AuctionDate != nil && sameCalendarDay(*sig.AuctionDate, now)
		},
		status: fixed(models.StatusNowPlaying),
	},
	{
		name: "auction-scheduled",
		matches: func(sig Signals, _ time.Time) bool {
			return sig.AuctionDate != nil
		},
		status: fixed(models.StatusSoonPlaying),
	},
	{
		name: "upcoming-lot-marker",
		matches: func(sig Signals, _ time.Time) bool {
			return sig.ExplicitUpcoming
		},
		status: fixed(models.StatusUpcoming),
	},
	{
		name: "future-with-embedded-date",
		matches: func(sig Signals, _ time.Time) bool {
			return sig.ExplicitFuture && sig.EmbeddedDate != nil
		},
		status: fixed(models.StatusSoonPlaying),
	},
	{
		name: "future-marker",
		matches: func(sig Signals, _ time.Time) bool {
			return sig.ExplicitFuture
		},
		status: fixed(models.StatusFuture),
	},
	{
		name:    "status-code-heuristic",
		matches: func(Signals, time.Time) bool { return true },
		status: func(sig Signals, now time.Time) models.SaleStatus {
			return statusFromCode(sig.StatusCode, sig.EmbeddedDate, now)
		},
	},
}

// Classify derives the sale status from the extraction signals. It is a pure
// function of its inputs so the precedence table can be tested in isolation.
func Classify(sig Signals, now time.Time) models.SaleStatus {
	for _, r := range statusRules {
		if r.matches(sig, now) {
			return r.status(sig, now)
		}
	}
	return models.StatusUnknown // unreachable: the last rule always matches
}

// statusFromCode is the fallback heuristic for lots with no presentational
// signals: it reads the source's numeric sale-status code against the
// embedded date.
func statusFromCode(code *int, date *time.Time, now time.Time) models.SaleStatus {
	if date == nil {
		return models.StatusFuture
	}

	if now.Before(*date) {
		if code != nil {
			switch *code {
			case 2, 3:
				return models.StatusUpcoming
			case 0, 1:
				return models.StatusFuture
			}
		}
		return models.StatusUpcoming
	}

	if date.After(now.Add(-soldRecentlyWindow)) {
		return models.StatusSoldRecently
	}
	return models.StatusSold
}

// sameCalendarDay reports whether a and b fall on the same date in b's
// zone, ignoring time of day. Sale dates arrive UTC-normalized while the
// clock runs in the viewer's zone, so a is rendered into b's frame first.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
