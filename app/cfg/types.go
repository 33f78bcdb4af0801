package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	VocabularyFile    string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Crawl configuration
	MaxPages         int
	DaysBack         int
	MinContentLength int
	MaxItemsPerRun   int
	DefaultLanguage  string

	// Fetch engine configuration
	FetchConcurrency  int
	DomainConcurrency int
	TargetConcurrency float64
	StartDelayMs      int
	MaxDelayMs        int

	// Summarization configuration
	SummarizerHost    string
	SummarizerModel   string
	SummarizerTimeout int
	MinSummaryLength  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
