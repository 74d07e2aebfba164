package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joho/godotenv"

	"github.com/searchingforj/insiders/app/api"
	"github.com/searchingforj/insiders/app/cfg"
	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/edgar"
	"github.com/searchingforj/insiders/app/tasks"
	"github.com/searchingforj/insiders/app/watch"
)

func main() {
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting Insiders", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	filingRepo := database.NewFilingRepository(db)

	defaultCodes := strings.Split(appCfg.TargetCodes, ",")
	watchCache := watch.NewCache(appCfg.WatchDir, defaultCodes)
	if err := watchCache.Run(); err != nil {
		slog.Error("Failed to load watch configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Watch configurations loaded",
		"count", watchCache.GetConfigCount(), "active_codes", watchCache.ActiveCodes())

	window, err := edgar.NewWindow(appCfg.WindowTimezone, appCfg.WindowStart,
		appCfg.WindowEnd, appCfg.WindowDays, appCfg.WindowDisabled)
	if err != nil {
		slog.Error("Invalid operating window", "error", err)
		os.Exit(1)
	}

	seen, err := lru.New[string, struct{}](appCfg.SeenCacheSize)
	if err != nil {
		slog.Error("Failed to initialize seen cache", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{}
	feedClient := edgar.NewFeedClient(httpClient, appCfg.FeedURL, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)
	fetcher := edgar.NewFetcher(httpClient, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.FetchRetries)
	extractor := edgar.NewExtractor(appCfg.SnapshotDir)

	if appCfg.Once {
		runOnce(feedClient, fetcher, extractor, window, watchCache, filingRepo, seen, appCfg.WorkerCount)
		return
	}

	scheduler := tasks.NewScheduler(feedClient, fetcher, extractor, window,
		watchCache, filingRepo, seen)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(filingRepo, watchCache)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

// runOnce executes a single poll cycle synchronously. The exit status
// reflects feed reachability; individual filing failures are logged but
// do not fail the run.
func runOnce(feedClient *edgar.FeedClient, fetcher *edgar.Fetcher, extractor *edgar.Extractor,
	window *edgar.Window, watchCache *watch.Cache, filingRepo database.FilingRepository,
	seen *lru.Cache[string, struct{}], workerCount int) {
	filter := edgar.NewCodeFilter(watchCache.ActiveCodes())
	task := tasks.NewPollCycleTask(feedClient, fetcher, extractor, filter,
		window, filingRepo, seen, workerCount)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		slog.Error("Poll cycle failed", "error", err)
		os.Exit(1)
	}
}
