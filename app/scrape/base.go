package scrape

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/engineed/engineed/app/textproc"
)

// Link paths that never lead to articles, shared by all adapters.
var commonExcludePatterns = []string{
	`/users?/`,
	`/profile`,
	`/settings`,
	`/search`,
	`/api/`,
	`\.(css|js|png|jpg|gif|svg|ico)$`,
}

var (
	yearFirstDateRe = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	dayFirstDateRe  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	japaneseDateRe  = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
)

// Base carries the extraction helpers shared by all source adapters. It is
// embedded by composition; adapters provide Seeds/ParseList/ParseItem
// themselves.
type Base struct {
	name       string
	baseDomain string
	daysBack   int
	excludes   []*regexp.Regexp
}

func newBase(name, baseDomain string, daysBack int, extraExcludes []string) Base {
	patterns := append(append([]string{}, commonExcludePatterns...), extraExcludes...)
	excludes := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		excludes = append(excludes, regexp.MustCompile(`(?i)`+pattern))
	}

	return Base{
		name:       name,
		baseDomain: baseDomain,
		daysBack:   daysBack,
		excludes:   excludes,
	}
}

func (b *Base) Name() string {
	return b.name
}

// IsRelevantLink reports whether a link may lead to an article: it must stay
// on the adapter's domain and avoid the exclusion patterns.
func (b *Base) IsRelevantLink(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Host != b.baseDomain {
		return false
	}
	return !b.isExcluded(raw)
}

func (b *Base) isExcluded(raw string) bool {
	for _, re := range b.excludes {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// ResolveURL resolves href against the page URL, mirroring browser link
// resolution for relative paths.
func ResolveURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// firstText walks a selector fallback chain and returns the first non-empty
// trimmed text match.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr walks a selector fallback chain and returns the first non-empty
// attribute value.
func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, selector := range selectors {
		if value, ok := doc.Find(selector).First().Attr(attr); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// firstHTML walks a selector fallback chain and returns the outer HTML of
// the first matching element.
func firstHTML(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if html, err := goquery.OuterHtml(sel); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}
	return ""
}

// collectTexts returns the trimmed texts of the first selector in the chain
// that matches anything.
func collectTexts(doc *goquery.Document, selectors ...string) []string {
	for _, selector := range selectors {
		var texts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				texts = append(texts, text)
			}
		})
		if len(texts) > 0 {
			return texts
		}
	}
	return nil
}

// collectLinks gathers hrefs from every selector in the chain, resolved
// against the page URL and deduplicated in encounter order.
func collectLinks(doc *goquery.Document, pageURL string, selectors ...string) []string {
	seen := make(map[string]bool)
	var links []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			resolved := ResolveURL(pageURL, href)
			if !seen[resolved] {
				seen[resolved] = true
				links = append(links, resolved)
			}
		})
	}
	return links
}

// parseLikeCount interprets a like counter text, accepting only bare digits.
func parseLikeCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	count, err := strconv.Atoi(text)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// ParseDate interprets a date string. RFC 3339 is tried first, then the
// fixed numeric and Japanese patterns, then a lenient catch-all parse.
// Returns nil when nothing matches.
func (b *Base) ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}

	if t := matchNumericDate(value); t != nil {
		return t
	}

	if t, err := dateparse.ParseAny(value); err == nil {
		return &t
	}

	return nil
}

func matchNumericDate(value string) *time.Time {
	if m := yearFirstDateRe.FindStringSubmatch(value); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := dayFirstDateRe.FindStringSubmatch(value); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := japaneseDateRe.FindStringSubmatch(value); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	return nil
}

func buildDate(year, month, day string) *time.Time {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

// IsRecent reports whether a publication date falls inside the lookback
// window. Unknown dates are accepted.
func (b *Base) IsRecent(published *time.Time) bool {
	if published == nil {
		return true
	}
	cutoff := time.Now().AddDate(0, 0, -b.daysBack)
	return !published.Before(cutoff)
}

// FallbackContent extracts readable article content when every selector in
// the chain missed, returning plain text or "" when extraction fails too.
func (b *Base) FallbackContent(page *Page) string {
	article, err := readability.FromReader(strings.NewReader(string(page.Body)), nil)
	if err != nil {
		slog.Debug("Readability fallback failed", "source", b.name, "url", page.URL, "error", err)
		return ""
	}
	if article.Content == "" {
		return ""
	}
	slog.Debug("Using readability fallback content", "source", b.name, "url", page.URL)
	return textproc.CleanHTML(article.Content)
}

// NewDraft assembles a draft from raw extraction results: content is
// stripped to plain text, the reading time estimated, and fixed tech
// keywords found in the title or content merged into the tag list.
func (b *Base) NewDraft(page *Page, title, rawContent string) *ArticleDraft {
	content := textproc.CleanHTML(rawContent)

	draft := &ArticleDraft{
		URL:         page.URL,
		Title:       title,
		Content:     content,
		Source:      b.name,
		Language:    "ja",
		ReadingTime: textproc.ReadingTime(content),
	}

	draft.Tags = mergeTags(nil, extractTagsFromText(title+" "+content))

	return draft
}

// Fixed keyword list matched as lowercase substrings of the title and
// content.
var textTagKeywords = []string{
	"python", "javascript", "react", "vue", "angular", "node.js",
	"typescript", "go", "rust", "java", "c++", "c#", "php",
	"docker", "kubernetes", "aws", "gcp", "azure", "terraform",
	"machine learning", "機械学習", "ai", "deep learning", "データサイエンス",
	"web開発", "フロントエンド", "バックエンド", "インフラ", "devops",
	"アジャイル", "スクラム", "git", "github", "ci/cd",
}

func extractTagsFromText(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var found []string
	for _, keyword := range textTagKeywords {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// mergeTags unions tag lists, keeping first-encounter order.
func mergeTags(existing, extracted []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, tag := range append(append([]string{}, existing...), extracted...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			merged = append(merged, tag)
		}
	}
	return merged
}
