package storage

import (
	"errors"
	"sync"
	"time"

	"copart-organizer/models"
	"copart-organizer/utils"
)

var (
	// ErrAlreadyTracked is returned when adding a lot number already present.
	ErrAlreadyTracked = errors.New("lot is already tracked")
	// ErrNotTracked is returned for operations on an unknown lot number.
	ErrNotTracked = errors.New("lot is not tracked")
)

// expiryWindow: lots whose sale date passed more than this long ago are
// dropped from the list at load time.
const expiryWindow = 5 * 24 * time.Hour

// TrackedList is the in-memory tracked-lot store, keyed by lot number and
// kept in newest-first insertion order. It owns the user fields (isFavorite,
// notes, addedAt) and merges them forward across refreshes. Safe for
// concurrent use; all accessors hand out copies.
type TrackedList struct {
	mu     sync.RWMutex
	lots   map[string]*models.Lot
	order  []string
	logger *utils.Logger
	now    func() time.Time
}

// NewTrackedList creates an empty TrackedList.
func NewTrackedList(logger *utils.Logger) *TrackedList {
	return &TrackedList{
		lots:   make(map[string]*models.Lot),
		logger: logger,
		now:    time.Now,
	}
}

// Add inserts a freshly extracted lot, stamping the tracking metadata.
// Lot numbers are unique: a second add of the same number fails.
func (t *TrackedList) Add(lot *models.Lot) (*models.Lot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.lots[lot.LotNumber]; exists {
		return nil, ErrAlreadyTracked
	}

	stored := lot.Clone()
	now := t.now()
	stored.AddedAt = &now
	stored.LastUpdated = &now
	stored.IsFavorite = false
	stored.Notes = ""

	t.lots[stored.LotNumber] = stored
	t.order = append([]string{stored.LotNumber}, t.order...)
	t.logger.Info("[tracker] added lot %s (%d tracked)", stored.LotNumber, len(t.lots))
	return stored.Clone(), nil
}

// Get returns a copy of the tracked lot, if present.
func (t *TrackedList) Get(lotNumber string) (*models.Lot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.lots[lotNumber]
	return l.Clone(), ok
}

// List prunes expired lots and returns copies of the rest in tracking order.
func (t *TrackedList) List() []*models.Lot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneExpiredLocked()

	out := make([]*models.Lot, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.lots[n].Clone())
	}
	return out
}

// Remove deletes a lot from the list.
func (t *TrackedList) Remove(lotNumber string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.lots[lotNumber]; !ok {
		return ErrNotTracked
	}
	t.deleteLocked(lotNumber)
	t.logger.Info("[tracker] removed lot %s", lotNumber)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated lot.
func (t *TrackedList) ToggleFavorite(lotNumber string) (*models.Lot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.lots[lotNumber]
	if !ok {
		return nil, ErrNotTracked
	}
	l.IsFavorite = !l.IsFavorite
	return l.Clone(), nil
}

// SetNotes replaces the user notes on a lot.
func (t *TrackedList) SetNotes(lotNumber, notes string) (*models.Lot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.lots[lotNumber]
	if !ok {
		return nil, ErrNotTracked
	}
	l.Notes = notes
	return l.Clone(), nil
}

// ApplyRefresh replaces a tracked lot with freshly extracted data, carrying
// only the user-owned fields forward. Every extractor-owned field is
// replaced wholesale.
func (t *TrackedList) ApplyRefresh(fresh *models.Lot) (*models.Lot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.lots[fresh.LotNumber]
	if !ok {
		return nil, ErrNotTracked
	}

	updated := fresh.Clone()
	updated.IsFavorite = prev.IsFavorite
	updated.Notes = prev.Notes
	updated.AddedAt = prev.AddedAt
	now := t.now()
	updated.LastUpdated = &now

	t.lots[updated.LotNumber] = updated
	return updated.Clone(), nil
}

// Len returns the number of tracked lots.
func (t *TrackedList) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.lots)
}

func (t *TrackedList) pruneExpiredLocked() {
	cutoff := t.now().Add(-expiryWindow)
	for n, l := range t.lots {
		if l.SaleDate != nil && l.SaleDate.Before(cutoff) {
			t.deleteLocked(n)
			t.logger.Info("[tracker] expired lot %s (sale date %s)", n, l.SaleDate.Format(time.RFC3339))
		}
	}
}

func (t *TrackedList) deleteLocked(lotNumber string) {
	delete(t.lots, lotNumber)
	for i, n := range t.order {
		if n == lotNumber {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}
