// Package textproc provides the text cleanup primitives shared by the
// pipeline stages and the enrichment engine.
package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Average reading speed used for the reading time estimate, in characters
// per minute. Tuned for Japanese technical prose.
const charsPerMinute = 500

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	codeBlockRe  = regexp.MustCompile("```")
	sentenceRe   = regexp.MustCompile(`[。！？!?.]`)
)

// CleanHTML strips markup from an HTML fragment and returns plain text with
// collapsed whitespace. Script, style and noscript subtrees are removed
// before text extraction. On unparseable input the raw string is returned
// with whitespace collapsed.
func CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseWhitespace(html)
	}

	doc.Find("script, style, noscript").Remove()

	return CollapseWhitespace(doc.Text())
}

// CollapseWhitespace trims the string and folds runs of whitespace into a
// single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Normalize applies NFKC normalization, so full-width ASCII variants and
// half-width kana collapse into their canonical forms.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

// ReadingTime estimates reading time in minutes. Non-empty content always
// yields at least one minute; empty content yields zero.
func ReadingTime(content string) int {
	length := utf8.RuneCountInString(content)
	if length == 0 {
		return 0
	}
	minutes := length / charsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// CountCodeBlocks counts fenced code blocks. Each block contributes an
// opening and a closing fence.
func CountCodeBlocks(content string) int {
	return len(codeBlockRe.FindAllString(content, -1)) / 2
}

// SplitSentences splits text on Japanese and Latin sentence terminators,
// dropping empty segments.
func SplitSentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
