package database

import (
	"time"
)

type Filing struct {
	ID              string // Database UUID
	FilingID        string // EDGAR accession number, stable across URL variants
	Ticker          string
	CompanyName     string
	FilingDate      time.Time // Feed-reported publish time
	TransactionDate *time.Time
	FilingURL       string
	CreatedAt       time.Time
	UpdatedAt       time.Time // Tracks last successful reprocessing
}
