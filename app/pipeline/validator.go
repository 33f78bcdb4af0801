package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/engineed/engineed/app/scrape"
)

var _ Stage = (*Validator)(nil)

// Validator is the admission gate: a draft needs a title, a well-formed
// http(s) URL, and enough content to be worth storing.
type Validator struct {
	minContentLength int
}

func NewValidator(minContentLength int) *Validator {
	return &Validator{minContentLength: minContentLength}
}

func (v *Validator) Name() string {
	return "validate"
}

func (v *Validator) Process(_ context.Context, draft *scrape.ArticleDraft) error {
	if draft.URL == "" {
		return &ValidationError{Field: "url", Reason: "missing"}
	}
	parsed, err := url.Parse(draft.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return &ValidationError{Field: "url", Reason: "not an absolute http(s) URL"}
	}

	if draft.Title == "" {
		return &ValidationError{Field: "title", Reason: "missing"}
	}

	if length := utf8.RuneCountInString(draft.Content); length < v.minContentLength {
		return &ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("length %d below minimum %d", length, v.minContentLength),
		}
	}

	if draft.Source == "" {
		return &ValidationError{Field: "source", Reason: "missing"}
	}

	return nil
}
