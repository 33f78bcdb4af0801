// Package scrape defines the source adapters that turn fetched pages into
// article drafts, plus the shared extraction helpers they are built from.
package scrape

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched document handed to an adapter. Adapters never fetch;
// they only interpret pages the fetch engine already retrieved.
type Page struct {
	URL        string // Requested URL
	FinalURL   string // URL after redirects; equals URL when none occurred
	StatusCode int
	Body       []byte
}

// Document parses the page body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
}

// ListResult is the outcome of parsing a listing page: absolute article URLs
// to visit plus an optional next listing page.
type ListResult struct {
	ArticleURLs []string
	NextPage    string
}

// ArticleDraft is the unit flowing through the ingestion pipeline. Adapters
// populate the extraction fields; the pipeline stages fill in the rest.
type ArticleDraft struct {
	URL             string
	Title           string
	Content         string // Cleaned plain text
	Summary         *string
	Source          string
	Author          string
	Language        string
	PublishedAt     *time.Time
	LikesCount      int
	ViewCount       int
	CommentCount    int
	Score           float64
	DifficultyLevel int
	ReadingTime     int
	IsTutorial      bool
	IsOfficialDoc   bool
	Tags            []string
}

// SourceAdapter extracts article drafts for one configured source.
//
// ParseList interprets a listing page. ParseItem interprets an article page
// and may return (nil, nil) when the page should be skipped, for example
// when the article is older than the recency window.
type SourceAdapter interface {
	Name() string
	Seeds() []string
	ParseList(page *Page) (*ListResult, error)
	ParseItem(page *Page) (*ArticleDraft, error)
	IsRelevantLink(url string) bool
}
