package pipeline

import (
	"context"

	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/scrape"
)

var _ Sink = (*Persister)(nil)

// Persister stores the finished draft through the article repository. The
// repository performs the URL-keyed upsert and tag association in one
// transaction, so a failure leaves no partial article behind.
type Persister struct {
	articleRepo database.ArticleRepository
}

func NewPersister(articleRepo database.ArticleRepository) *Persister {
	return &Persister{articleRepo: articleRepo}
}

func (p *Persister) Persist(ctx context.Context, draft *scrape.ArticleDraft) (int64, error) {
	record := database.ArticleRecord{
		URL:             draft.URL,
		Title:           draft.Title,
		Content:         draft.Content,
		Summary:         draft.Summary,
		Source:          draft.Source,
		Author:          draft.Author,
		Language:        draft.Language,
		PublishedAt:     draft.PublishedAt,
		LikesCount:      draft.LikesCount,
		ViewCount:       draft.ViewCount,
		CommentCount:    draft.CommentCount,
		Score:           draft.Score,
		DifficultyLevel: draft.DifficultyLevel,
		ReadingTime:     draft.ReadingTime,
		IsTutorial:      draft.IsTutorial,
		IsOfficialDoc:   draft.IsOfficialDoc,
		Tags:            draft.Tags,
	}

	id, err := p.articleRepo.SaveArticle(ctx, record)
	if err != nil {
		return 0, &PersistenceError{URL: draft.URL, Err: err}
	}

	return id, nil
}
