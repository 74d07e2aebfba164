package database

import (
	"time"
)

// FilingRecord is the write-side shape produced by one pipeline pass.
type FilingRecord struct {
	FilingID        string
	Ticker          string
	CompanyName     string
	FilingDate      time.Time
	TransactionDate *time.Time
	FilingURL       string
}

type FilingRepository interface {
	UpsertFiling(record FilingRecord) error

	GetFiling(filingID string) (*Filing, error)
	GetRecentFilings(limit int) ([]Filing, error)
	GetFilingCount() (int, error)
	GetLatestFilingDate() (*time.Time, error)
}
