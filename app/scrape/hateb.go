package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const hatebMaxLinksPerPage = 15

// Domains whose articles are worth following from Hatena Bookmark listings.
var hatebTechDomains = []string{
	"qiita.com", "zenn.dev", "note.com", "github.com",
	"dev.to", "medium.com", "speakerdeck.com",
	"tech.mercari.com", "engineering.linecorp.com",
	"developers.cyberagent.co.jp", "techblog.yahoo.co.jp",
	"blog.recruit.co.jp", "engineering.rakuten.co.jp",
}

var hatebExternalExcludes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/users?/`),
	regexp.MustCompile(`(?i)/profile`),
	regexp.MustCompile(`(?i)/settings`),
	regexp.MustCompile(`(?i)/login`),
	regexp.MustCompile(`(?i)/signup`),
	regexp.MustCompile(`(?i)\.(css|js|png|jpg|gif|svg|ico|pdf)$`),
}

var _ SourceAdapter = (*HatebAdapter)(nil)

// HatebAdapter follows Hatena Bookmark technology listings out to articles
// on third-party tech domains, picking a per-domain parser for each.
type HatebAdapter struct {
	Base
}

func NewHatebAdapter(daysBack int) *HatebAdapter {
	return &HatebAdapter{
		Base: newBase("hateb", "b.hatena.ne.jp", daysBack, nil),
	}
}

func (a *HatebAdapter) Seeds() []string {
	return []string{
		"https://b.hatena.ne.jp/hotentry/it",
		"https://b.hatena.ne.jp/hotentry/technology",
		"https://b.hatena.ne.jp/newentry/it",
		"https://b.hatena.ne.jp/newentry/technology",
	}
}

// IsRelevantLink accepts external links on the tech domain allow-list,
// unlike the same-domain adapters.
func (a *HatebAdapter) IsRelevantLink(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	onTechDomain := false
	for _, domain := range hatebTechDomains {
		if strings.Contains(parsed.Host, domain) {
			onTechDomain = true
			break
		}
	}
	if !onTechDomain {
		return false
	}

	for _, re := range hatebExternalExcludes {
		if re.MatchString(raw) {
			return false
		}
	}
	return true
}

func (a *HatebAdapter) ParseList(page *Page) (*ListResult, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	links := collectLinks(doc, page.URL,
		".entrylist-contents-title a",
		".entrylist-title a",
		".entry-link",
		"h3 a",
	)

	result := &ListResult{}
	for _, link := range links {
		if a.IsRelevantLink(link) {
			result.ArticleURLs = append(result.ArticleURLs, link)
		}
		if len(result.ArticleURLs) >= hatebMaxLinksPerPage {
			break
		}
	}

	if next := firstAttr(doc, "href",
		"a[rel=\"next\"]",
		".pager-next a",
	); next != "" {
		result.NextPage = ResolveURL(page.URL, next)
	}

	return result, nil
}

// ParseItem dispatches to a per-domain parser. Published dates are rarely
// recoverable on the external pages, so the recency window does not apply.
func (a *HatebAdapter) ParseItem(page *Page) (*ArticleDraft, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	parsed, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article URL: %w", err)
	}

	var title, rawContent, author string
	var tags []string
	source := "hateb"

	switch {
	case strings.Contains(parsed.Host, "qiita.com"):
		source = "qiita"
		title = firstText(doc, "h1[data-cy=\"article-title\"]", "h1", "title")
		author = firstText(doc, "a[href*=\"/users/\"]", ".user-info a")
		rawContent = firstHTML(doc, ".markdown-body", "article")
		tags = collectTexts(doc, "a[href*=\"/tags/\"]")
	case strings.Contains(parsed.Host, "zenn.dev"):
		source = "zenn"
		title = firstText(doc, "h1", "title")
		author = firstText(doc, "a[href*=\"/users/\"]")
		rawContent = firstHTML(doc, ".zenn-markdown", "article")
		tags = collectTexts(doc, "a[href*=\"/topics/\"]")
	case strings.Contains(parsed.Host, "note.com"):
		source = "note"
		title = firstText(doc, "h1", "title")
		author = firstText(doc, ".note-user-name")
		rawContent = firstHTML(doc, ".note-body", "article")
		tags = collectTexts(doc, ".tag")
	case strings.Contains(parsed.Host, "github.com"):
		source = "github"
		title = firstText(doc, "h1", ".repository-content h1", "title")
		author = firstText(doc, ".author a")
		rawContent = firstHTML(doc, ".markdown-body", "article")
		tags = collectTexts(doc, ".topic-tag")
	default:
		title = firstText(doc, "h1", "title", ".title", ".post-title")
		author = firstText(doc, ".author", "[rel=\"author\"]", ".post-author")
		rawContent = firstHTML(doc, "article", ".content", ".post-content", ".entry-content", "main")
	}

	if rawContent == "" {
		rawContent = a.FallbackContent(page)
	}

	draft := a.NewDraft(page, title, rawContent)
	draft.Source = source
	draft.Author = author
	draft.Tags = mergeTags(tags, draft.Tags)

	return draft, nil
}
