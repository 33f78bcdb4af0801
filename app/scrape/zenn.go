package scrape

import (
	"fmt"
	"strings"
)

const zennMaxLinksPerPage = 12

var zennSeedTopics = []string{
	"python", "javascript", "react", "vue", "nodejs",
	"typescript", "go", "rust", "java", "php",
	"docker", "kubernetes", "aws", "gcp", "azure",
	"ai", "ml", "web", "frontend", "backend", "devops",
}

var _ SourceAdapter = (*ZennAdapter)(nil)

// ZennAdapter extracts articles from zenn.dev listing and item pages.
type ZennAdapter struct {
	Base
}

func NewZennAdapter(daysBack int) *ZennAdapter {
	return &ZennAdapter{
		Base: newBase("zenn", "zenn.dev", daysBack, []string{
			`/books/`,
			`/scraps/`,
			`/following`,
			`/followers`,
			`/likes`,
			`/drafts`,
		}),
	}
}

func (a *ZennAdapter) Seeds() []string {
	seeds := []string{
		"https://zenn.dev",
		"https://zenn.dev/trending",
		"https://zenn.dev/tech",
	}
	for _, topic := range zennSeedTopics {
		seeds = append(seeds, fmt.Sprintf("https://zenn.dev/topics/%s", topic))
	}
	return seeds
}

// Article links live on /articles/ paths.
func (a *ZennAdapter) IsRelevantLink(url string) bool {
	return a.Base.IsRelevantLink(url) && strings.Contains(url, "/articles/")
}

func (a *ZennAdapter) ParseList(page *Page) (*ListResult, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	links := collectLinks(doc, page.URL,
		"article a[href*=\"/articles/\"]",
		"a[href*=\"/articles/\"]",
	)

	result := &ListResult{}
	for _, link := range links {
		if a.IsRelevantLink(link) {
			result.ArticleURLs = append(result.ArticleURLs, link)
		}
		if len(result.ArticleURLs) >= zennMaxLinksPerPage {
			break
		}
	}

	if next := firstAttr(doc, "href",
		"a[rel=\"next\"]",
		"a[aria-label=\"次のページ\"]",
	); next != "" {
		result.NextPage = ResolveURL(page.URL, next)
	}

	return result, nil
}

func (a *ZennAdapter) ParseItem(page *Page) (*ArticleDraft, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	title := firstText(doc,
		"h1[data-testid=\"article-title\"]",
		"h1",
		"title",
	)

	rawContent := firstHTML(doc,
		".zenn-markdown",
		"[data-testid=\"article-body\"]",
		".markdown-body",
		"article .content",
	)
	if rawContent == "" {
		rawContent = a.FallbackContent(page)
	}

	draft := a.NewDraft(page, title, rawContent)

	draft.Author = firstText(doc,
		"a[href*=\"/users/\"]",
		"[data-testid=\"author-name\"]",
	)

	if dateText := firstAttr(doc, "datetime",
		"time",
		"[data-testid=\"published-at\"]",
	); dateText != "" {
		draft.PublishedAt = a.ParseDate(dateText)
	}
	if !a.IsRecent(draft.PublishedAt) {
		return nil, nil
	}

	draft.LikesCount = parseLikeCount(firstText(doc,
		"[data-testid=\"like-count\"]",
		"button[aria-label*=\"いいね\"] span",
	))

	draft.Tags = mergeTags(collectTexts(doc,
		"a[href*=\"/topics/\"]",
		"[data-testid=\"topic\"] span",
	), draft.Tags)

	return draft, nil
}
