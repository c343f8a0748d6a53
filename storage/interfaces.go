package storage

import "blackout-stats/models"

// EntriesStore is the durable log of weekly entries totals, keyed by
// (year, week). Each key is written at most once.
type EntriesStore interface {
	Has(year, week int) (bool, error)
	Append(row models.EntriesRow) error
	Rows() ([]models.EntriesRow, error)
	Close() error
}

// DatasetWriter is the interface any export backend for the reconciled table must satisfy.
type DatasetWriter interface {
	Write(rows []models.ViewRow) error
	Close() error
}
