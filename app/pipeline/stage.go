// Package pipeline runs article drafts through the ordered ingestion stages:
// validate, deduplicate, normalize, enrich, persist. A draft rejected by any
// stage never reaches the stages after it.
package pipeline

import (
	"context"

	"github.com/engineed/engineed/app/scrape"
)

// Stage is one step of the ingestion pipeline. Process either mutates the
// draft in place or returns an error to reject it.
type Stage interface {
	Name() string
	Process(ctx context.Context, draft *scrape.ArticleDraft) error
}

// Sink terminates the pipeline by storing the finished draft.
type Sink interface {
	Persist(ctx context.Context, draft *scrape.ArticleDraft) (int64, error)
}
