// Package enrich computes the derived article attributes: technical
// keywords, difficulty, the tutorial flag, and an optional summary.
package enrich

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/textproc"
	"github.com/engineed/engineed/app/vocab"
)

const maxKeywords = 10

// Keywords strongly correlated with advanced material; each occurrence adds
// half a difficulty point.
var advancedKeywords = []string{
	"architecture", "microservices", "kubernetes", "terraform",
	"algorithm", "optimization", "performance", "scalability",
	"distributed", "concurrent", "asynchronous", "parallel",
}

var tutorialIndicators = []string{
	"tutorial", "guide", "how to", "step by step", "入門",
	"初心者", "はじめて", "始め方", "やり方", "方法",
	"インストール", "セットアップ", "導入",
}

// Patterns that surface technology names not yet in the vocabulary.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+(?:[A-Z][a-z]+)+\b`),           // CamelCase
	regexp.MustCompile(`\b[A-Z]{2,}(?:\.[A-Z]+)*\b`),                // Acronyms
	regexp.MustCompile(`\b\w+\.(?:js|py|rb|go|rs|java|kt|swift)\b`), // File extensions
}

var _ interface {
	Name() string
	Process(ctx context.Context, draft *scrape.ArticleDraft) error
} = (*Engine)(nil)

// Engine is the enrichment stage. The summarizer is optional; without one,
// or when it fails, summaries fall back to the leading sentences of the
// content.
type Engine struct {
	vocabStore       *vocab.Store
	summarizer       Summarizer
	minSummaryLength int
}

func NewEngine(vocabStore *vocab.Store, summarizer Summarizer, minSummaryLength int) *Engine {
	return &Engine{
		vocabStore:       vocabStore,
		summarizer:       summarizer,
		minSummaryLength: minSummaryLength,
	}
}

func (e *Engine) Name() string {
	return "enrich"
}

func (e *Engine) Process(ctx context.Context, draft *scrape.ArticleDraft) error {
	text := draft.Title + " " + draft.Content

	draft.Tags = mergeKeywords(draft.Tags, e.ExtractKeywords(text))
	draft.DifficultyLevel = EstimateDifficulty(text)
	draft.IsTutorial = IsTutorial(text)

	if utf8.RuneCountInString(draft.Content) >= e.minSummaryLength {
		summary := e.summarize(ctx, draft.Content)
		if summary != "" {
			draft.Summary = &summary
		}
	}

	return nil
}

// ExtractKeywords finds technical keywords in the text: known vocabulary
// terms matched as lowercase substrings, plus pattern-discovered candidates.
// The top results by frequency are returned, capped at ten, with ties broken
// by first encounter.
func (e *Engine) ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	counts := make(map[string]int)
	var order []string

	note := func(keyword string, occurrences int) {
		if occurrences == 0 {
			return
		}
		if _, seen := counts[keyword]; !seen {
			order = append(order, keyword)
		}
		counts[keyword] += occurrences
	}

	for _, term := range e.vocabStore.AllTerms() {
		term = strings.ToLower(term)
		if strings.Contains(lower, term) {
			note(term, 1)
		}
	}

	for _, pattern := range keywordPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			if utf8.RuneCountInString(match) > 2 {
				note(strings.ToLower(match), 1)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// EstimateDifficulty scores text difficulty on a 1-5 scale: half a point per
// advanced keyword present, one point for more than three fenced code
// blocks, one point for very long content.
func EstimateDifficulty(text string) int {
	if text == "" {
		return 1
	}

	score := 1.0
	lower := strings.ToLower(text)

	for _, keyword := range advancedKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.5
		}
	}

	if textproc.CountCodeBlocks(text) > 3 {
		score += 1.0
	}

	if utf8.RuneCountInString(text) > 5000 {
		score += 1.0
	}

	level := int(score)
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return level
}

// IsTutorial reports whether the text reads like introductory material.
func IsTutorial(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range tutorialIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func (e *Engine) summarize(ctx context.Context, content string) string {
	if e.summarizer != nil {
		summary, err := e.summarizer.Summarize(ctx, content)
		if err == nil {
			return summary
		}
		slog.Warn("Summarization failed, using local fallback", "error", err)
	}
	return LocalSummary(content)
}

// LocalSummary takes the first three sentences of the content as a summary.
func LocalSummary(content string) string {
	if content == "" {
		return ""
	}

	sentences := textproc.SplitSentences(content)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	if len(sentences) == 0 {
		return ""
	}
	return strings.Join(sentences, "。") + "。"
}

// mergeKeywords unions keyword lists, keeping first-encounter order.
func mergeKeywords(existing, extracted []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, keyword := range append(append([]string{}, existing...), extracted...) {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		key := strings.ToLower(keyword)
		if !seen[key] {
			seen[key] = true
			merged = append(merged, keyword)
		}
	}
	return merged
}
