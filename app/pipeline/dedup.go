package pipeline

import (
	"context"
	"sync"

	"github.com/engineed/engineed/app/scrape"
)

var _ Stage = (*Deduplicator)(nil)

// Deduplicator admits each URL once per run. The seen set is cleared by
// Reset at the start of every crawl run; cross-run idempotence is handled by
// the URL-keyed upsert in the persistence layer.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]bool)}
}

func (d *Deduplicator) Name() string {
	return "dedup"
}

func (d *Deduplicator) Process(_ context.Context, draft *scrape.ArticleDraft) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[draft.URL] {
		return &DuplicateError{URL: draft.URL}
	}
	d.seen[draft.URL] = true
	return nil
}

func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]bool)
}
