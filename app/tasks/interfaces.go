package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background poll cycles.
// Example usage:
//
//	scheduler := NewScheduler(feedClient, fetcher, extractor, window, watchCache, filingRepo, seen)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
