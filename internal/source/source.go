// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches paper metadata from literature providers and maps
// each provider's native schema into the canonical PaperRecord. Each
// adapter implements the Source interface per the Strategy pattern; the
// aggregator fans out across all enabled adapters.
package source

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/internal/sanitize"
	"github.com/foodai/living-review/pkg/types"
)

// Source fetches records from one literature provider. Fetch absorbs
// per-query failures internally (logging them to w and keeping whatever
// partial results were gathered) and returns an error only when the whole
// fetch produced nothing usable.
type Source interface {
	Name() string
	Fetch(ctx context.Context, w io.Writer) ([]types.PaperRecord, error)
}

// Field caps applied at mapping time, before a value is stored anywhere.
const (
	maxTitleLen    = 300
	maxAuthorLen   = 100
	maxAbstractLen = 3000
	maxAuthors     = 10
)

// mapAuthors truncates the author list and each display name.
func mapAuthors(names []string) []string {
	if len(names) > maxAuthors {
		names = names[:maxAuthors]
	}
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, sanitize.Truncate(name, maxAuthorLen))
	}
	return out
}

// tagRe matches markup tags; Crossref abstracts arrive with JATS tags.
var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripTags removes markup tags and collapses the remaining whitespace.
func stripTags(s string) string {
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(s, " ")), " ")
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// finishRecord sanitizes the external strings and attaches categories, so
// every record leaving an adapter already satisfies the corpus invariants
// apart from date validation (which the aggregator owns).
func finishRecord(p *types.PaperRecord, engine *relevance.Engine) {
	p.Title = sanitize.Truncate(strings.TrimSpace(p.Title), maxTitleLen)
	p.Abstract = sanitize.Truncate(strings.TrimSpace(p.Abstract), maxAbstractLen)
	p.URL = sanitize.URL(p.URL)
	p.DOI = sanitize.DOI(p.DOI)
	p.Categories = engine.Categorize(*p)
}
