package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/pipeline"
	"github.com/engineed/engineed/app/scrape"
)

// PageFetcher retrieves pages for a crawl. Satisfied by fetch.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.Page, error)
}

type CrawlSourceTask struct {
	Task
	SourceConfig *scrape.SourceConfig
	adapter      scrape.SourceAdapter
	fetcher      PageFetcher
	coordinator  *pipeline.Coordinator
	jobRepo      database.JobRepository
	maxPages     int
	maxItems     int
}

func NewCrawlSourceTask(sourceConfig *scrape.SourceConfig, adapter scrape.SourceAdapter, fetcher PageFetcher, coordinator *pipeline.Coordinator, jobRepo database.JobRepository, maxPages, maxItems int) *CrawlSourceTask {
	return &CrawlSourceTask{
		Task:         NewTask(TaskTypeCrawlSource, sourceConfig.Name),
		SourceConfig: sourceConfig,
		adapter:      adapter,
		fetcher:      fetcher,
		coordinator:  coordinator,
		jobRepo:      jobRepo,
		maxPages:     maxPages,
		maxItems:     maxItems,
	}
}

type crawlStats struct {
	pages      int // listing pages parsed
	persisted  int
	duplicates int
	invalid    int
	skipped    int // articles outside the recency window
	errors     int
}

func (t *CrawlSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	jobID, err := t.jobRepo.CreateJob(ctx, t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	if err := t.jobRepo.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	// Each run starts with an empty duplicate window
	t.coordinator.Reset()

	stats, crawlErr := t.crawl(ctx)
	if crawlErr != nil {
		if markErr := t.jobRepo.MarkFailed(ctx, jobID, stats.persisted, stats.errors, crawlErr.Error()); markErr != nil {
			slog.Error("Failed to mark job failed", "source", t.SourceName, "job_id", jobID, "error", markErr)
		}
		return fmt.Errorf("crawl aborted: %w", crawlErr)
	}

	if err := t.jobRepo.MarkCompleted(ctx, jobID, stats.persisted, stats.errors); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	slog.Info("Task completed",
		"type", "CrawlSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"pages", stats.pages,
		"persisted", stats.persisted,
		"duplicates", stats.duplicates,
		"invalid", stats.invalid,
		"skipped", stats.skipped,
		"errors", stats.errors)

	return nil
}

// crawl walks each seed's listing pages up to the page limit, ingesting every
// relevant article once. A non-nil error means the run was cut short by
// context cancellation; partial failures only increment the error counter.
func (t *CrawlSourceTask) crawl(ctx context.Context) (crawlStats, error) {
	var stats crawlStats
	visited := make(map[string]bool)

	for _, seed := range t.adapter.Seeds() {
		pageURL := seed

		for depth := 0; depth < t.maxPages && pageURL != ""; depth++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			page, err := t.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				slog.Warn("Listing fetch failed", "source", t.SourceName, "url", pageURL, "error", err)
				stats.errors++
				break
			}

			result, err := t.adapter.ParseList(page)
			if err != nil {
				slog.Warn("Listing parse failed", "source", t.SourceName, "url", pageURL, "error", err)
				stats.errors++
				break
			}
			stats.pages++

			for _, articleURL := range result.ArticleURLs {
				if visited[articleURL] {
					continue
				}
				visited[articleURL] = true

				if t.maxItems > 0 && stats.persisted >= t.maxItems {
					slog.Debug("Item limit reached", "source", t.SourceName, "limit", t.maxItems)
					return stats, nil
				}

				t.ingestArticle(ctx, articleURL, &stats)
				if err := ctx.Err(); err != nil {
					return stats, err
				}
			}

			pageURL = result.NextPage
		}
	}

	return stats, nil
}

func (t *CrawlSourceTask) ingestArticle(ctx context.Context, articleURL string, stats *crawlStats) {
	page, err := t.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Article fetch failed", "source", t.SourceName, "url", articleURL, "error", err)
		stats.errors++
		return
	}

	draft, err := t.adapter.ParseItem(page)
	if err != nil {
		slog.Warn("Article parse failed", "source", t.SourceName, "url", articleURL, "error", err)
		stats.errors++
		return
	}
	if draft == nil {
		stats.skipped++
		return
	}

	_, err = t.coordinator.Ingest(ctx, draft)

	var dupErr *pipeline.DuplicateError
	var valErr *pipeline.ValidationError
	switch {
	case err == nil:
		stats.persisted++
	case errors.As(err, &dupErr):
		stats.duplicates++
	case errors.As(err, &valErr):
		stats.invalid++
	default:
		slog.Warn("Article ingestion failed", "source", t.SourceName, "url", articleURL, "error", err)
		stats.errors++
	}
}
