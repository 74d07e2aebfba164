package tasks

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/edgar"
)

// Outcome classifies how one feed entry left the pipeline. Only failures
// surface as errors; everything else is a normal, non-fatal result.
type Outcome string

const (
	OutcomeStored   Outcome = "stored"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// ProcessFilingTask runs one feed entry through the pipeline:
// resolve -> fetch -> extract -> filter -> normalize -> upsert.
type ProcessFilingTask struct {
	Task
	Entry edgar.Entry

	// Outcome is set by Execute for the cycle's accounting.
	Outcome Outcome

	fetcher    *edgar.Fetcher
	extractor  *edgar.Extractor
	filter     *edgar.CodeFilter
	filingRepo database.FilingRepository
	seen       *lru.Cache[string, struct{}]
}

func NewProcessFilingTask(entry edgar.Entry, fetcher *edgar.Fetcher, extractor *edgar.Extractor,
	filter *edgar.CodeFilter, filingRepo database.FilingRepository, seen *lru.Cache[string, struct{}]) *ProcessFilingTask {
	return &ProcessFilingTask{
		Task:       NewTask(TaskTypeProcessFiling, entry.IndexURL),
		Entry:      entry,
		fetcher:    fetcher,
		extractor:  extractor,
		filter:     filter,
		filingRepo: filingRepo,
		seen:       seen,
	}
}

func (t *ProcessFilingTask) Execute(ctx context.Context) error {
	t.Outcome = OutcomeFailed

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	txtURL, err := edgar.ResolveTxtURL(t.Entry.IndexURL)
	if err != nil {
		return fmt.Errorf("failed to resolve submission URL: %w", err)
	}

	filingID := edgar.AccessionFromTxtURL(txtURL)

	if t.seen != nil && t.seen.Contains(filingID) {
		slog.Debug("Filing already processed, skipping", "filing", filingID)
		t.Outcome = OutcomeSkipped
		return nil
	}

	txtBody, err := t.fetcher.Fetch(ctx, txtURL)
	if err != nil {
		return fmt.Errorf("failed to fetch submission: %w", err)
	}

	xmlURL, err := edgar.ResolveXMLURL(txtURL, txtBody)
	if err != nil {
		return fmt.Errorf("failed to resolve document URL: %w", err)
	}

	raw, err := t.fetcher.Fetch(ctx, xmlURL)
	if err != nil {
		return fmt.Errorf("failed to fetch document: %w", err)
	}

	// Cheap pre-check before any repair or parsing. Most filings fail it.
	if !t.filter.MatchesRaw(raw) {
		slog.Debug("Filing rejected by pre-check", "filing", filingID)
		t.markSeen(filingID)
		t.Outcome = OutcomeRejected
		return nil
	}

	doc, err := t.extractor.Run(raw, filingID)
	if err != nil {
		// No recoverable document; the snapshot is already on disk.
		// Refetching next cycle would fail the same way.
		t.markSeen(filingID)
		return fmt.Errorf("failed to extract document: %w", err)
	}

	if !t.filter.MatchesDocument(doc) {
		slog.Debug("Filing rejected by structural check", "filing", filingID)
		t.markSeen(filingID)
		t.Outcome = OutcomeRejected
		return nil
	}

	filing := edgar.Normalize(doc, t.Entry, filingID, xmlURL)

	err = t.filingRepo.UpsertFiling(database.FilingRecord{
		FilingID:        filing.FilingID,
		Ticker:          filing.Ticker,
		CompanyName:     filing.CompanyName,
		FilingDate:      filing.FilingDate,
		TransactionDate: filing.TransactionDate,
		FilingURL:       filing.FilingURL,
	})
	if err != nil {
		// Not marked seen: the feed entry may still be reprocessable on a
		// future cycle.
		return fmt.Errorf("failed to upsert filing: %w", err)
	}

	t.markSeen(filingID)
	t.Outcome = OutcomeStored

	slog.Info("Filing stored",
		"filing", filing.FilingID,
		"ticker", filing.Ticker,
		"company", filing.CompanyName,
		"duration", t.GetDuration())

	return nil
}

func (t *ProcessFilingTask) markSeen(filingID string) {
	if t.seen != nil {
		t.seen.Add(filingID, struct{}{})
	}
}
