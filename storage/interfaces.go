package storage

import (
	"io"

	"copart-organizer/models"
)

// LotStore is the tracked-list contract the HTTP layer depends on.
type LotStore interface {
	Add(lot *models.Lot) (*models.Lot, error)
	Get(lotNumber string) (*models.Lot, bool)
	List() []*models.Lot
	Remove(lotNumber string) error
	ToggleFavorite(lotNumber string) (*models.Lot, error)
	SetNotes(lotNumber, notes string) (*models.Lot, error)
	ApplyRefresh(fresh *models.Lot) (*models.Lot, error)
}

// LotExporter streams lots to a writer in some export format.
type LotExporter interface {
	Export(w io.Writer, lots []*models.Lot) error
}
