package pipeline

import (
	"context"
	"log/slog"

	"github.com/engineed/engineed/app/scrape"
)

// Coordinator owns the ordered stage list and drives each draft through it.
type Coordinator struct {
	stages []Stage
	sink   Sink
}

func NewCoordinator(sink Sink, stages ...Stage) *Coordinator {
	return &Coordinator{
		stages: stages,
		sink:   sink,
	}
}

// Ingest runs the draft through every stage in order and persists it.
// The first rejecting stage short-circuits the run; its error is returned
// unchanged so callers can inspect the rejection type. Returns the stored
// article ID on success.
func (c *Coordinator) Ingest(ctx context.Context, draft *scrape.ArticleDraft) (int64, error) {
	for _, stage := range c.stages {
		if err := stage.Process(ctx, draft); err != nil {
			slog.Debug("Draft rejected", "stage", stage.Name(), "url", draft.URL, "error", err)
			return 0, err
		}
	}

	id, err := c.sink.Persist(ctx, draft)
	if err != nil {
		return 0, err
	}

	slog.Debug("Draft ingested", "url", draft.URL, "article_id", id)
	return id, nil
}

// Stages lists the stage names in execution order.
func (c *Coordinator) Stages() []string {
	names := make([]string, 0, len(c.stages))
	for _, stage := range c.stages {
		names = append(names, stage.Name())
	}
	return names
}

// Reset prepares run-scoped stages for a fresh crawl run.
func (c *Coordinator) Reset() {
	for _, stage := range c.stages {
		if resettable, ok := stage.(interface{ Reset() }); ok {
			resettable.Reset()
		}
	}
}
