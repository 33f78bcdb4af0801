package scrape

import (
	"fmt"
	"strings"
)

const qiitaMaxLinksPerPage = 10

var qiitaSeedTags = []string{
	"Python", "JavaScript", "React", "Vue.js", "Node.js",
	"TypeScript", "Go", "Rust", "Java", "PHP",
	"Docker", "Kubernetes", "AWS", "GCP", "Azure",
	"MachineLearning", "AI", "DeepLearning", "DataScience",
	"WebDevelopment", "Frontend", "Backend", "DevOps",
}

var _ SourceAdapter = (*QiitaAdapter)(nil)

// QiitaAdapter extracts articles from qiita.com listing and item pages.
type QiitaAdapter struct {
	Base
}

func NewQiitaAdapter(daysBack int) *QiitaAdapter {
	return &QiitaAdapter{
		Base: newBase("qiita", "qiita.com", daysBack, []string{
			`/organizations/`,
			`/advent-calendar/`,
			`/drafts/`,
			`/private/`,
			`/following`,
			`/followers`,
			`/likes`,
			`/stocks`,
		}),
	}
}

func (a *QiitaAdapter) Seeds() []string {
	seeds := []string{
		"https://qiita.com",
		"https://qiita.com/popular-items",
		"https://qiita.com/items",
	}
	for _, tag := range qiitaSeedTags {
		seeds = append(seeds, fmt.Sprintf("https://qiita.com/tags/%s/items", tag))
	}
	return seeds
}

// Article links live on /items/ paths.
func (a *QiitaAdapter) IsRelevantLink(url string) bool {
	return a.Base.IsRelevantLink(url) && strings.Contains(url, "/items/")
}

func (a *QiitaAdapter) ParseList(page *Page) (*ListResult, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	links := collectLinks(doc, page.URL,
		"article h2 a",
		"h1 a[href*=\"/items/\"]",
		"a[href*=\"/items/\"]",
	)

	result := &ListResult{}
	for _, link := range links {
		if a.IsRelevantLink(link) {
			result.ArticleURLs = append(result.ArticleURLs, link)
		}
		if len(result.ArticleURLs) >= qiitaMaxLinksPerPage {
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

func (a *QiitaAdapter) ParseItem(page *Page) (*ArticleDraft, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	title := firstText(doc,
		"h1[data-cy=\"article-title\"]",
		"h1",
		"title",
	)

	rawContent := firstHTML(doc,
		".markdown-body",
		"[data-cy=\"article-body\"]",
		"article .content",
		".post-content",
	)
	if rawContent == "" {
		rawContent = a.FallbackContent(page)
	}

	draft := a.NewDraft(page, title, rawContent)

	draft.Author = firstText(doc,
		"a[href*=\"/users/\"]",
		".user-info a",
		"[data-cy=\"author-link\"]",
	)

	if dateText := firstAttr(doc, "datetime",
		"time",
		"[data-cy=\"created-at\"]",
	); dateText != "" {
		draft.PublishedAt = a.ParseDate(dateText)
	}
	if !a.IsRecent(draft.PublishedAt) {
		return nil, nil
	}

	draft.LikesCount = parseLikeCount(firstText(doc,
		"[data-cy=\"like-count\"]",
		".like-count",
		"button[aria-label*=\"いいね\"] span",
	))

	draft.Tags = mergeTags(collectTexts(doc,
		"[data-cy=\"tag\"]",
		"a[href*=\"/tags/\"] span",
		"a[href*=\"/tags/\"]",
	), draft.Tags)

	return draft, nil
}
