package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/pipeline"
	"github.com/engineed/engineed/app/scrape"
)

type stubAdapter struct {
	seeds    []string
	listings map[string]*scrape.ListResult
	items    map[string]*scrape.ArticleDraft
}

func (a *stubAdapter) Name() string    { return "stub" }
func (a *stubAdapter) Seeds() []string { return a.seeds }

func (a *stubAdapter) ParseList(page *scrape.Page) (*scrape.ListResult, error) {
	if result, ok := a.listings[page.URL]; ok {
		return result, nil
	}
	return &scrape.ListResult{}, nil
}

func (a *stubAdapter) ParseItem(page *scrape.Page) (*scrape.ArticleDraft, error) {
	return a.items[page.URL], nil
}

func (a *stubAdapter) IsRelevantLink(string) bool { return true }

type stubFetcher struct {
	mu      sync.Mutex
	fetched []string
	failOn  map[string]bool
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*scrape.Page, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	if f.failOn[url] {
		return nil, fmt.Errorf("fetch failed")
	}
	return &scrape.Page{URL: url, FinalURL: url, StatusCode: 200}, nil
}

func (f *stubFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, fetched := range f.fetched {
		if fetched == url {
			count++
		}
	}
	return count
}

type stubJobRepo struct {
	created   int
	running   int
	completed int
	failed    int
	scraped   int
	errors    int
	message   string
}

func (r *stubJobRepo) CreateJob(_ context.Context, _ string) (int64, error) {
	r.created++
	return int64(r.created), nil
}

func (r *stubJobRepo) MarkRunning(_ context.Context, _ int64) error {
	r.running++
	return nil
}

func (r *stubJobRepo) MarkCompleted(_ context.Context, _ int64, scraped, errors int) error {
	r.completed++
	r.scraped = scraped
	r.errors = errors
	return nil
}

func (r *stubJobRepo) MarkFailed(_ context.Context, _ int64, scraped, errors int, message string) error {
	r.failed++
	r.scraped = scraped
	r.errors = errors
	r.message = message
	return nil
}

func (r *stubJobRepo) GetJobs(_ context.Context, _ int) ([]database.ScrapingJob, error) {
	return nil, nil
}

func (r *stubJobRepo) GetJobByID(_ context.Context, _ int64) (*database.ScrapingJob, error) {
	return nil, nil
}

type countingSink struct {
	mu    sync.Mutex
	saved []string
}

func (s *countingSink) Persist(_ context.Context, draft *scrape.ArticleDraft) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, draft.URL)
	return int64(len(s.saved)), nil
}

func testDraft(url, title string) *scrape.ArticleDraft {
	return &scrape.ArticleDraft{
		URL:     url,
		Title:   title,
		Content: strings.Repeat("内容。", 100),
		Source:  "stub",
	}
}

func enabledConfig() *scrape.SourceConfig {
	return &scrape.SourceConfig{
		Name:     "stub",
		Adapter:  "qiita",
		Settings: scrape.SourceSettings{Enabled: true, RefreshInterval: 3600},
	}
}

func newTestCoordinator(sink pipeline.Sink) *pipeline.Coordinator {
	return pipeline.NewCoordinator(sink, pipeline.NewValidator(10), pipeline.NewDeduplicator())
}

func TestCrawlSourceTaskExecute(t *testing.T) {
	adapter := &stubAdapter{
		seeds: []string{"https://example.com/list"},
		listings: map[string]*scrape.ListResult{
			"https://example.com/list": {ArticleURLs: []string{
				"https://example.com/a",
				"https://example.com/b",
				"https://example.com/c",
				"https://example.com/d",
			}},
		},
		items: map[string]*scrape.ArticleDraft{
			"https://example.com/a": testDraft("https://example.com/a", "記事A"),
			"https://example.com/b": testDraft("https://example.com/a", "記事B"), // same canonical URL as A
			"https://example.com/c": nil,                                        // outside recency window
			"https://example.com/d": testDraft("https://example.com/d", ""),     // fails validation
		},
	}

	fetcher := &stubFetcher{}
	jobRepo := &stubJobRepo{}
	sink := &countingSink{}
	task := NewCrawlSourceTask(enabledConfig(), adapter, fetcher, newTestCoordinator(sink), jobRepo, 5, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if jobRepo.created != 1 || jobRepo.running != 1 || jobRepo.completed != 1 {
		t.Errorf("Expected one full job lifecycle, got created=%d running=%d completed=%d",
			jobRepo.created, jobRepo.running, jobRepo.completed)
	}
	if jobRepo.failed != 0 {
		t.Errorf("Expected no failed jobs, got %d", jobRepo.failed)
	}
	if jobRepo.scraped != 1 {
		t.Errorf("Expected 1 scraped article recorded, got %d", jobRepo.scraped)
	}
	if jobRepo.errors != 0 {
		t.Errorf("Expected 0 errors recorded, got %d", jobRepo.errors)
	}
	if len(sink.saved) != 1 || sink.saved[0] != "https://example.com/a" {
		t.Errorf("Expected only article A persisted, got %v", sink.saved)
	}
}

func TestCrawlSourceTaskCountsFetchErrors(t *testing.T) {
	adapter := &stubAdapter{
		seeds: []string{"https://example.com/list"},
		listings: map[string]*scrape.ListResult{
			"https://example.com/list": {ArticleURLs: []string{
				"https://example.com/a",
				"https://example.com/broken",
			}},
		},
		items: map[string]*scrape.ArticleDraft{
			"https://example.com/a": testDraft("https://example.com/a", "記事A"),
		},
	}

	fetcher := &stubFetcher{failOn: map[string]bool{"https://example.com/broken": true}}
	jobRepo := &stubJobRepo{}
	task := NewCrawlSourceTask(enabledConfig(), adapter, fetcher, newTestCoordinator(&countingSink{}), jobRepo, 5, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if jobRepo.completed != 1 {
		t.Errorf("Expected job completed despite partial failures, completed=%d", jobRepo.completed)
	}
	if jobRepo.scraped != 1 || jobRepo.errors != 1 {
		t.Errorf("Expected scraped=1 errors=1, got scraped=%d errors=%d", jobRepo.scraped, jobRepo.errors)
	}
}

func TestCrawlSourceTaskHonorsPageLimit(t *testing.T) {
	adapter := &stubAdapter{
		seeds: []string{"https://example.com/p1"},
		listings: map[string]*scrape.ListResult{
			"https://example.com/p1": {NextPage: "https://example.com/p2"},
			"https://example.com/p2": {NextPage: "https://example.com/p3"},
			"https://example.com/p3": {},
		},
	}

	fetcher := &stubFetcher{}
	task := NewCrawlSourceTask(enabledConfig(), adapter, fetcher, newTestCoordinator(&countingSink{}), &stubJobRepo{}, 2, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if fetcher.fetchCount("https://example.com/p3") != 0 {
		t.Error("Expected third listing page not to be fetched with a page limit of 2")
	}
	if fetcher.fetchCount("https://example.com/p2") != 1 {
		t.Error("Expected second listing page to be fetched")
	}
}

func TestCrawlSourceTaskHonorsItemLimit(t *testing.T) {
	adapter := &stubAdapter{
		seeds: []string{"https://example.com/list"},
		listings: map[string]*scrape.ListResult{
			"https://example.com/list": {ArticleURLs: []string{
				"https://example.com/a",
				"https://example.com/b",
			}},
		},
		items: map[string]*scrape.ArticleDraft{
			"https://example.com/a": testDraft("https://example.com/a", "記事A"),
			"https://example.com/b": testDraft("https://example.com/b", "記事B"),
		},
	}

	fetcher := &stubFetcher{}
	jobRepo := &stubJobRepo{}
	task := NewCrawlSourceTask(enabledConfig(), adapter, fetcher, newTestCoordinator(&countingSink{}), jobRepo, 5, 1)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if jobRepo.scraped != 1 {
		t.Errorf("Expected item limit to cap persisted articles at 1, got %d", jobRepo.scraped)
	}
	if fetcher.fetchCount("https://example.com/b") != 0 {
		t.Error("Expected second article not to be fetched after reaching the item limit")
	}
}

func TestCrawlSourceTaskSkipsDisabledSource(t *testing.T) {
	config := enabledConfig()
	config.Settings.Enabled = false

	jobRepo := &stubJobRepo{}
	task := NewCrawlSourceTask(config, &stubAdapter{}, &stubFetcher{}, newTestCoordinator(&countingSink{}), jobRepo, 5, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if jobRepo.created != 0 {
		t.Errorf("Expected no job for a disabled source, got %d", jobRepo.created)
	}
}

func TestCrawlSourceTaskResetsDuplicateWindowPerRun(t *testing.T) {
	adapter := &stubAdapter{
		seeds: []string{"https://example.com/list"},
		listings: map[string]*scrape.ListResult{
			"https://example.com/list": {ArticleURLs: []string{"https://example.com/a"}},
		},
		items: map[string]*scrape.ArticleDraft{
			"https://example.com/a": testDraft("https://example.com/a", "記事A"),
		},
	}

	sink := &countingSink{}
	coordinator := newTestCoordinator(sink)
	config := enabledConfig()
	jobRepo := &stubJobRepo{}

	for run := 0; run < 2; run++ {
		task := NewCrawlSourceTask(config, adapter, &stubFetcher{}, coordinator, jobRepo, 5, 0)
		if err := task.Execute(context.Background()); err != nil {
			t.Fatalf("Execute run %d failed: %v", run, err)
		}
	}

	if len(sink.saved) != 2 {
		t.Errorf("Expected the article persisted once per run, got %d saves", len(sink.saved))
	}
	if jobRepo.scraped != 1 {
		t.Errorf("Expected second run to record 1 scraped article, got %d", jobRepo.scraped)
	}
}
