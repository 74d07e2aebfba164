package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FilingRepository = (*FilingRepositoryImpl)(nil)

// FilingRepositoryImpl handles database operations for ownership filings
type FilingRepositoryImpl struct {
	db *DB
}

// NewFilingRepository creates a new filing repository
func NewFilingRepository(db *DB) *FilingRepositoryImpl {
	return &FilingRepositoryImpl{db: db}
}

// UpsertFiling stores a filing record keyed by its accession number.
// Reprocessing the same filing refreshes fields and never creates a second row.
func (r *FilingRepositoryImpl) UpsertFiling(record FilingRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO filings (
			filing_id, ticker, company_name, filing_date, transaction_date, filing_url
		) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (filing_id) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			company_name = EXCLUDED.company_name,
			filing_date = EXCLUDED.filing_date,
			transaction_date = EXCLUDED.transaction_date,
			filing_url = EXCLUDED.filing_url,
			updated_at = NOW()
	`, record.FilingID, record.Ticker, record.CompanyName,
		record.FilingDate, record.TransactionDate, record.FilingURL)

	if err != nil {
		return fmt.Errorf("failed to upsert filing: %w", err)
	}

	return nil
}

// GetFiling retrieves a filing by its accession number
func (r *FilingRepositoryImpl) GetFiling(filingID string) (*Filing, error) {
	var filing Filing
	err := r.db.QueryRow(`
		SELECT id, filing_id, COALESCE(ticker, ''), COALESCE(company_name, ''),
		       filing_date, transaction_date, filing_url, created_at, updated_at
		FROM filings
		WHERE filing_id = $1
	`, filingID).Scan(
		&filing.ID, &filing.FilingID, &filing.Ticker, &filing.CompanyName,
		&filing.FilingDate, &filing.TransactionDate, &filing.FilingURL,
		&filing.CreatedAt, &filing.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get filing: %w", err)
	}

	return &filing, nil
}

// GetRecentFilings returns the most recently published filings
func (r *FilingRepositoryImpl) GetRecentFilings(limit int) ([]Filing, error) {
	rows, err := r.db.Query(`
		SELECT id, filing_id, COALESCE(ticker, ''), COALESCE(company_name, ''),
		       filing_date, transaction_date, filing_url, created_at, updated_at
		FROM filings
		ORDER BY filing_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent filings: %w", err)
	}
	defer rows.Close()

	var filings []Filing
	for rows.Next() {
		var filing Filing
		err := rows.Scan(
			&filing.ID, &filing.FilingID, &filing.Ticker, &filing.CompanyName,
			&filing.FilingDate, &filing.TransactionDate, &filing.FilingURL,
			&filing.CreatedAt, &filing.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filing row: %w", err)
		}
		filings = append(filings, filing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filing rows: %w", err)
	}

	return filings, nil
}

// GetFilingCount returns the total number of stored filings
func (r *FilingRepositoryImpl) GetFilingCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM filings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get filing count: %w", err)
	}
	return count, nil
}

// GetLatestFilingDate returns the publish time of the newest stored filing
func (r *FilingRepositoryImpl) GetLatestFilingDate() (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.QueryRow("SELECT MAX(filing_date) FROM filings").Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest filing date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}
