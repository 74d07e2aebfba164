package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// EDGAR configuration
	FeedURL      string
	UserAgent    string
	TargetCodes  string
	FetchTimeout int
	FetchRetries int
	SnapshotDir  string
	WatchDir     string

	// Operating window
	WindowTimezone string
	WindowStart    string
	WindowEnd      string
	WindowDays     string
	WindowDisabled bool

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	SeenCacheSize     int

	// Application metadata
	Once    bool
	Debug   bool
	Version string
}
