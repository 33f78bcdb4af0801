package scrape

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

var _ SourceAdapter = (*FeedAdapter)(nil)

// FeedAdapter ingests sources that publish RSS or Atom feeds. Listing pages
// are feed documents; item pages are the linked articles, parsed with
// generic selectors plus the readability fallback.
type FeedAdapter struct {
	Base
	feedURLs []string
	parser   *gofeed.Parser
}

func NewFeedAdapter(name string, feedURLs []string, daysBack int) *FeedAdapter {
	return &FeedAdapter{
		Base:     newBase(name, "", daysBack, nil),
		feedURLs: feedURLs,
		parser:   gofeed.NewParser(),
	}
}

func (a *FeedAdapter) Seeds() []string {
	return append([]string{}, a.feedURLs...)
}

// Feed entries already point at articles, so only the shared exclusion
// patterns apply.
func (a *FeedAdapter) IsRelevantLink(url string) bool {
	return !a.isExcluded(url)
}

// ParseList parses the page body as an RSS/Atom document. Feeds carry no
// pagination, so NextPage is always empty.
func (a *FeedAdapter) ParseList(page *Page) (*ListResult, error) {
	parsed, err := a.parser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", page.URL, err)
	}

	result := &ListResult{}
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		link := ResolveURL(page.URL, item.Link)
		if a.IsRelevantLink(link) {
			result.ArticleURLs = append(result.ArticleURLs, link)
		}
	}

	return result, nil
}

func (a *FeedAdapter) ParseItem(page *Page) (*ArticleDraft, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	title := firstText(doc, "h1", "title", ".title", ".post-title")

	rawContent := firstHTML(doc,
		"article",
		".content",
		".post-content",
		".entry-content",
		"main",
	)
	if rawContent == "" {
		rawContent = a.FallbackContent(page)
	}

	draft := a.NewDraft(page, title, rawContent)

	draft.Author = firstText(doc, ".author", "[rel=\"author\"]", ".post-author")

	if dateText := firstAttr(doc, "datetime", "time"); dateText != "" {
		draft.PublishedAt = a.ParseDate(dateText)
	}
	if !a.IsRecent(draft.PublishedAt) {
		return nil, nil
	}

	return draft, nil
}
