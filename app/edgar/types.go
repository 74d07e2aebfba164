package edgar

import (
	"time"
)

// Entry is one item from the polled EDGAR feed. It lives only for the
// duration of one pipeline pass and is never persisted directly.
type Entry struct {
	ID        string    // Opaque feed identifier
	Title     string    // e.g. "4 - SMITH JOHN (0001234567) (Reporting)"
	UpdatedAt time.Time // Feed-reported publish time
	IndexURL  string    // Link to the filing index page
}

// Filing is the normalized output of one accepted filing, ready for upsert.
type Filing struct {
	FilingID        string // Accession number derived from the canonical URL
	Ticker          string
	CompanyName     string
	FilingDate      time.Time
	TransactionDate *time.Time // Most specific date the document reports, if any
	FilingURL       string     // Canonical ownership XML URL
}
