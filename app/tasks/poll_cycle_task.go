package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/edgar"
)

// PollCycleTask is one complete poll cycle: gate on the operating window,
// poll the feed, then run every entry through the pipeline concurrently up
// to the worker bound. Entries are bulkheaded: a failure on one never
// affects its siblings, and only a feed-level failure fails the cycle.
type PollCycleTask struct {
	Task

	feedClient  *edgar.FeedClient
	fetcher     *edgar.Fetcher
	extractor   *edgar.Extractor
	filter      *edgar.CodeFilter
	window      *edgar.Window
	filingRepo  database.FilingRepository
	seen        *lru.Cache[string, struct{}]
	workerCount int
}

func NewPollCycleTask(feedClient *edgar.FeedClient, fetcher *edgar.Fetcher, extractor *edgar.Extractor,
	filter *edgar.CodeFilter, window *edgar.Window, filingRepo database.FilingRepository,
	seen *lru.Cache[string, struct{}], workerCount int) *PollCycleTask {
	return &PollCycleTask{
		Task:        NewTask(TaskTypePollCycle, "edgar"),
		feedClient:  feedClient,
		fetcher:     fetcher,
		extractor:   extractor,
		filter:      filter,
		window:      window,
		filingRepo:  filingRepo,
		seen:        seen,
		workerCount: workerCount,
	}
}

func (t *PollCycleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.window.Contains(time.Now()) {
		slog.Info("Outside operating window, poll cycle skipped", "cycle", t.GetID())
		return nil
	}

	entries, err := t.feedClient.Poll(ctx)
	if err != nil {
		return fmt.Errorf("poll cycle aborted: %w", err)
	}

	slog.Debug("Feed polled", "cycle", t.GetID(), "entries", len(entries))

	counts := t.processEntries(ctx, entries)

	slog.Info("Task completed",
		"type", "PollCycle",
		"cycle", t.GetID(),
		"duration", t.GetDuration(),
		"total", len(entries),
		"stored", counts[OutcomeStored],
		"rejected", counts[OutcomeRejected],
		"skipped", counts[OutcomeSkipped],
		"failed", counts[OutcomeFailed])

	return nil
}

// processEntries fans entries out to at most workerCount concurrent workers.
// A failed entry only affects its own outcome count.
func (t *PollCycleTask) processEntries(ctx context.Context, entries []edgar.Entry) map[Outcome]int {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, t.workerCount)
	)
	counts := make(map[Outcome]int)

	for _, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}

		go func(entry edgar.Entry) {
			defer wg.Done()
			defer func() { <-sem }()

			filingTask := NewProcessFilingTask(entry, t.fetcher, t.extractor, t.filter, t.filingRepo, t.seen)
			filingTask.Start()

			if err := filingTask.Execute(ctx); err != nil {
				slog.Error("Filing processing failed",
					"cycle", t.GetID(),
					"entry", entry.IndexURL,
					"error", err)
			}

			mu.Lock()
			counts[filingTask.Outcome]++
			mu.Unlock()
		}(entry)
	}

	wg.Wait()
	return counts
}
