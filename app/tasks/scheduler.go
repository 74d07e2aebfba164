package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/searchingforj/insiders/app/cfg"
	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/edgar"
	"github.com/searchingforj/insiders/app/watch"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs poll cycles on a fixed interval with a small worker pool.
// The per-entry fan-out happens inside each cycle; the pool here only keeps
// a stuck cycle from blocking the queue.
type Scheduler struct {
	feedClient  *edgar.FeedClient
	fetcher     *edgar.Fetcher
	extractor   *edgar.Extractor
	window      *edgar.Window
	watchCache  *watch.Cache
	filingRepo  database.FilingRepository
	seen        *lru.Cache[string, struct{}]
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(feedClient *edgar.FeedClient, fetcher *edgar.Fetcher, extractor *edgar.Extractor,
	window *edgar.Window, watchCache *watch.Cache, filingRepo database.FilingRepository,
	seen *lru.Cache[string, struct{}]) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		feedClient:  feedClient,
		fetcher:     fetcher,
		extractor:   extractor,
		window:      window,
		watchCache:  watchCache,
		filingRepo:  filingRepo,
		seen:        seen,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 16),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueCycle()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// NewCycleTask builds a poll-cycle task with the currently active code set.
func (s *Scheduler) NewCycleTask() *PollCycleTask {
	filter := edgar.NewCodeFilter(s.watchCache.ActiveCodes())
	return NewPollCycleTask(s.feedClient, s.fetcher, s.extractor, filter,
		s.window, s.filingRepo, s.seen, s.workerCount)
}

func (s *Scheduler) enqueueCycle() {
	task := s.NewCycleTask()
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue poll cycle", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	// A failed cycle is not re-enqueued; the next tick polls again.
	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
