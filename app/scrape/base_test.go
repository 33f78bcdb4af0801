package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse fixture HTML: %v", err)
	}
	return doc
}

func TestFirstTextFallbackChain(t *testing.T) {
	doc := mustDoc(t, `<div><h2 class="headline">Fallback Title</h2><h1></h1></div>`)

	// The first selector matches an empty element, so the second rule wins
	got := firstText(doc, "h1", ".headline")
	if got != "Fallback Title" {
		t.Errorf("Expected 'Fallback Title' from second selector, got %q", got)
	}
}

func TestFirstTextNoMatch(t *testing.T) {
	doc := mustDoc(t, `<div><p>text</p></div>`)
	if got := firstText(doc, "h1", ".headline"); got != "" {
		t.Errorf("Expected empty string when no selector matches, got %q", got)
	}
}

func TestCollectTextsFirstMatchingSelectorWins(t *testing.T) {
	doc := mustDoc(t, `<div>
		<a class="tag">Go</a><a class="tag">Docker</a>
		<a class="topic">Rust</a>
	</div>`)

	got := collectTexts(doc, ".missing", ".tag", ".topic")
	if len(got) != 2 || got[0] != "Go" || got[1] != "Docker" {
		t.Errorf("Expected tags from first matching selector, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	base := newBase("test", "example.com", 7, nil)

	tests := []struct {
		name     string
		input    string
		expected *time.Time
	}{
		{"rfc3339", "2026-08-20T10:30:00+09:00", timePtr(2026, 8, 20)},
		{"year first slash", "2026/08/20", timePtr(2026, 8, 20)},
		{"year first dash", "2026-8-3", timePtr(2026, 8, 3)},
		{"day first", "20/08/2026", timePtr(2026, 8, 20)},
		{"japanese", "2026年8月20日", timePtr(2026, 8, 20)},
		{"empty", "", nil},
		{"garbage", "no date here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.ParseDate(tt.input)
			if tt.expected == nil {
				if got != nil {
					t.Errorf("ParseDate(%q) = %v, expected nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil, expected %v", tt.input, tt.expected)
			}
			if got.Year() != tt.expected.Year() || got.Month() != tt.expected.Month() || got.Day() != tt.expected.Day() {
				t.Errorf("ParseDate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func timePtr(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestIsRecent(t *testing.T) {
	base := newBase("test", "example.com", 7, nil)

	recent := time.Now().AddDate(0, 0, -2)
	old := time.Now().AddDate(0, 0, -30)

	if !base.IsRecent(nil) {
		t.Error("Expected unknown dates to be accepted")
	}
	if !base.IsRecent(&recent) {
		t.Error("Expected a 2-day-old article to be recent")
	}
	if base.IsRecent(&old) {
		t.Error("Expected a 30-day-old article to be outside the window")
	}
}

func TestIsRelevantLink(t *testing.T) {
	base := newBase("test", "example.com", 7, nil)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/posts/42", true},
		{"https://other.com/posts/42", false},
		{"https://example.com/users/alice", false},
		{"https://example.com/user/alice", false},
		{"https://example.com/settings", false},
		{"https://example.com/api/v2/posts", false},
		{"https://example.com/logo.png", false},
		{"https://example.com/script.js", false},
	}

	for _, tt := range tests {
		if got := base.IsRelevantLink(tt.url); got != tt.expected {
			t.Errorf("IsRelevantLink(%q) = %v, expected %v", tt.url, got, tt.expected)
		}
	}
}

func TestExtractTagsFromText(t *testing.T) {
	got := extractTagsFromText("Docker と Kubernetes で機械学習パイプラインを作る")

	want := map[string]bool{"docker": false, "kubernetes": false, "機械学習": false}
	for _, tag := range got {
		if _, ok := want[tag]; ok {
			want[tag] = true
		}
	}
	for tag, found := range want {
		if !found {
			t.Errorf("Expected tag %q in %v", tag, got)
		}
	}
}

func TestMergeTags(t *testing.T) {
	got := mergeTags([]string{"Go", "  ", "docker"}, []string{"go", "react"})

	if len(got) != 3 {
		t.Fatalf("Expected 3 merged tags, got %v", got)
	}
	if got[0] != "Go" || got[1] != "docker" || got[2] != "react" {
		t.Errorf("Expected first-encounter order [Go docker react], got %v", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		page     string
		href     string
		expected string
	}{
		{"https://qiita.com/tags/Go/items", "/alice/items/abc", "https://qiita.com/alice/items/abc"},
		{"https://zenn.dev/trending", "https://zenn.dev/bob/articles/x", "https://zenn.dev/bob/articles/x"},
	}

	for _, tt := range tests {
		if got := ResolveURL(tt.page, tt.href); got != tt.expected {
			t.Errorf("ResolveURL(%q, %q) = %q, expected %q", tt.page, tt.href, got, tt.expected)
		}
	}
}
