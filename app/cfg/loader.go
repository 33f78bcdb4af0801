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
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/articles.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	VocabularyFile    string `long:"vocabulary-file" env:"VOCABULARY_FILE" default:"./data/tech_keywords.yml" description:"Path to the technical-term vocabulary file"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for crawl tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Crawl configuration
	MaxPages         int    `long:"max-pages" env:"MAX_PAGES" default:"5" description:"Maximum listing pages to follow per seed"`
	DaysBack         int    `long:"days-back" env:"DAYS_BACK" default:"7" description:"Lookback window in days for the recency filter"`
	MinContentLength int    `long:"min-content-length" env:"MIN_CONTENT_LENGTH" default:"200" description:"Minimum cleaned content length for a draft to be admissible"`
	MaxItemsPerRun   int    `long:"max-items" env:"MAX_ITEMS_PER_RUN" default:"0" description:"Stop a crawl run after this many persisted articles (0 = unlimited)"`
	DefaultLanguage  string `long:"default-language" env:"DEFAULT_LANGUAGE" default:"ja" description:"Default language code for articles"`

	// Fetch engine configuration
	FetchConcurrency  int     `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" default:"16" description:"Global limit on concurrent page fetches"`
	DomainConcurrency int     `long:"domain-concurrency" env:"DOMAIN_CONCURRENCY" default:"4" description:"Per-domain limit on concurrent page fetches"`
	TargetConcurrency float64 `long:"target-concurrency" env:"TARGET_CONCURRENCY" default:"2.0" description:"Target average concurrent requests per domain for the adaptive delay"`
	StartDelayMs      int     `long:"start-delay-ms" env:"START_DELAY_MS" default:"1000" description:"Initial per-domain delay in milliseconds"`
	MaxDelayMs        int     `long:"max-delay-ms" env:"MAX_DELAY_MS" default:"10000" description:"Maximum per-domain delay in milliseconds"`

	// Summarization configuration
	SummarizerHost    string `long:"summarizer-host" env:"SUMMARIZER_HOST" description:"Base URL of the summarization service (empty = local fallback only)"`
	SummarizerModel   string `long:"summarizer-model" env:"SUMMARIZER_MODEL" default:"gemma3:4b" description:"Model name passed to the summarization service"`
	SummarizerTimeout int    `long:"summarizer-timeout" env:"SUMMARIZER_TIMEOUT" default:"30" description:"Summarization request timeout in seconds"`
	MinSummaryLength  int    `long:"min-summary-length" env:"MIN_SUMMARY_LENGTH" default:"1000" description:"Minimum content length before a summary is generated"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"engineed/1.0 (+https://github.com/engineed/engineed)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Tokyo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
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
		DBPath:            raw.DBPath,
		SourcesDir:        raw.SourcesDir,
		VocabularyFile:    raw.VocabularyFile,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		MaxPages:          raw.MaxPages,
		DaysBack:          raw.DaysBack,
		MinContentLength:  raw.MinContentLength,
		MaxItemsPerRun:    raw.MaxItemsPerRun,
		DefaultLanguage:   raw.DefaultLanguage,
		FetchConcurrency:  raw.FetchConcurrency,
		DomainConcurrency: raw.DomainConcurrency,
		TargetConcurrency: raw.TargetConcurrency,
		StartDelayMs:      raw.StartDelayMs,
		MaxDelayMs:        raw.MaxDelayMs,
		SummarizerHost:    raw.SummarizerHost,
		SummarizerModel:   raw.SummarizerModel,
		SummarizerTimeout: raw.SummarizerTimeout,
		MinSummaryLength:  raw.MinSummaryLength,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
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

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
