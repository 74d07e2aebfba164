package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"insiders_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"insiders_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"insiders" description:"Database name"`

	// EDGAR configuration. SEC fair-use policy requires a User-Agent
	// identifying the operator with contact details; requests without one
	// get throttled or blocked, so there is no usable default.
	FeedURL      string `long:"feed-url" env:"FEED_URL" default:"https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&type=4&owner=only&count=100&output=atom" description:"EDGAR current-events Atom feed URL"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" description:"Identifying user agent with contact email, e.g. 'Jane Doe jane@example.com' (required)" required:"true"`
	TargetCodes  string `long:"target-codes" env:"TARGET_CODES" default:"J" description:"Comma-separated transaction codes to keep"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Per-request timeout in seconds for document fetches"`
	FetchRetries int    `long:"fetch-retries" env:"FETCH_RETRIES" default:"3" description:"Retry attempts for transient document fetch failures"`
	SnapshotDir  string `long:"snapshot-dir" env:"SNAPSHOT_DIR" default:"./snapshots" description:"Directory for diagnostic snapshots of unparseable filings"`
	WatchDir     string `long:"watch-dir" env:"WATCH_DIR" default:"./watch" description:"Directory containing watch configuration files"`

	// Operating window
	WindowTimezone string `long:"window-tz" env:"WINDOW_TZ" default:"America/New_York" description:"Reference time zone for the operating window"`
	WindowStart    string `long:"window-start" env:"WINDOW_START" default:"06:00" description:"Operating window start time (HH:MM)"`
	WindowEnd      string `long:"window-end" env:"WINDOW_END" default:"22:00" description:"Operating window end time (HH:MM)"`
	WindowDays     string `long:"window-days" env:"WINDOW_DAYS" default:"Mon,Tue,Wed,Thu,Fri" description:"Comma-separated weekdays the window is active"`
	WindowDisabled bool   `long:"window-disabled" env:"WINDOW_DISABLED" description:"Disable the operating window gate (backfill/testing)"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent filing workers per poll cycle"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"600" description:"Poll cycle interval in seconds"`
	SeenCacheSize     int    `long:"seen-cache-size" env:"SEEN_CACHE_SIZE" default:"4096" description:"Size of the processed-filings cache"`

	// Application metadata
	Once  bool `long:"once" description:"Run a single poll cycle synchronously and exit"`
	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		FeedURL:           raw.FeedURL,
		UserAgent:         raw.UserAgent,
		TargetCodes:       raw.TargetCodes,
		FetchTimeout:      raw.FetchTimeout,
		FetchRetries:      raw.FetchRetries,
		SnapshotDir:       raw.SnapshotDir,
		WatchDir:          raw.WatchDir,
		WindowTimezone:    raw.WindowTimezone,
		WindowStart:       raw.WindowStart,
		WindowEnd:         raw.WindowEnd,
		WindowDays:        raw.WindowDays,
		WindowDisabled:    raw.WindowDisabled,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SeenCacheSize:     raw.SeenCacheSize,
		Once:              raw.Once,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if cfg.FetchRetries < 0 {
		return fmt.Errorf("fetch retries cannot be negative")
	}
	if cfg.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if cfg.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	if cfg.SeenCacheSize <= 0 {
		return fmt.Errorf("seen cache size must be positive")
	}
	if _, err := time.LoadLocation(cfg.WindowTimezone); err != nil {
		return fmt.Errorf("invalid window timezone %q: %w", cfg.WindowTimezone, err)
	}
	return nil
}
