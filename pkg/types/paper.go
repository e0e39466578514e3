// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the living-review pipeline.
package types

import "time"

// PaperRecord is the canonical representation of a publication, independent
// of which provider supplied it. Adapters build records at fetch time;
// records are immutable afterwards.
type PaperRecord struct {
	// Title is the paper title. Once dedup has run, titles are unique across
	// the corpus under case-insensitive, whitespace-trimmed comparison.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in provider order.
	Authors []string `json:"authors" yaml:"authors"`

	// RawDate is the date string as supplied by the provider. The aggregator
	// parses and validates it once, for all sources, so per-adapter date
	// logic cannot diverge.
	RawDate string `json:"raw_date,omitempty" yaml:"raw_date,omitempty"`

	// Date is the validated publication date. Zero until the aggregator has
	// parsed RawDate; records whose RawDate does not parse are dropped.
	Date time.Time `json:"date" yaml:"date"`

	// Abstract is the paper abstract or summary, possibly empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL is the paper landing page. It is "#" unless it parsed as an
	// absolute http or https URL at mapping time.
	URL string `json:"url" yaml:"url"`

	// DOI is empty unless it matched the standard 10.NNNN/suffix pattern.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Source identifies the provider that found this record
	// (e.g. "semantic_scholar", "arxiv", "crossref").
	Source string `json:"source" yaml:"source"`

	// Categories holds the topical tags assigned at creation. Never empty:
	// records matching no keyword family carry the single tag "Other".
	Categories []string `json:"categories" yaml:"categories"`
}

// HasCategory reports whether the record carries the given category tag.
func (p PaperRecord) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Year returns the publication year, or 0 when the date is not set.
func (p PaperRecord) Year() int {
	if p.Date.IsZero() {
		return 0
	}
	return p.Date.Year()
}
