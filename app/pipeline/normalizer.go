package pipeline

import (
	"context"
	"strings"

	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/textproc"
)

var _ Stage = (*Normalizer)(nil)

// Normalizer canonicalizes text fields: HTML stripped from content with
// script and style subtrees dropped, NFKC normalization with collapsed
// whitespace on title and content, trimmed lowercase tags, a default
// language, and a reading time estimated when the source provided none.
type Normalizer struct {
	defaultLanguage string
}

func NewNormalizer(defaultLanguage string) *Normalizer {
	return &Normalizer{defaultLanguage: defaultLanguage}
}

func (n *Normalizer) Name() string {
	return "normalize"
}

func (n *Normalizer) Process(_ context.Context, draft *scrape.ArticleDraft) error {
	draft.Title = textproc.CollapseWhitespace(textproc.Normalize(draft.Title))
	draft.Content = textproc.CollapseWhitespace(textproc.Normalize(textproc.CleanHTML(draft.Content)))
	draft.Author = textproc.CollapseWhitespace(textproc.Normalize(draft.Author))

	seen := make(map[string]bool)
	var tags []string
	for _, tag := range draft.Tags {
		tag = strings.ToLower(textproc.CollapseWhitespace(textproc.Normalize(tag)))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	draft.Tags = tags

	if draft.Language == "" {
		draft.Language = n.defaultLanguage
	}

	if draft.ReadingTime == 0 {
		draft.ReadingTime = textproc.ReadingTime(draft.Content)
	}

	return nil
}
