// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders a paper corpus to the supported output formats:
// JSON, YAML, CSV, and Markdown.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/foodai/living-review/pkg/types"
)

// Format names an output format accepted by Write.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

const csvAbstractLimit = 500

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml, csv, or markdown)", s)
}

// Write renders papers to w in the requested format.
func Write(w io.Writer, format Format, papers []types.PaperRecord) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, papers)
	case FormatYAML:
		return writeYAML(w, papers)
	case FormatCSV:
		return writeCSV(w, papers)
	case FormatMarkdown:
		return writeMarkdown(w, papers)
	}
	return fmt.Errorf("unknown export format %q", format)
}

type document struct {
	ExportDate  string              `json:"exportDate" yaml:"exportDate"`
	TotalPapers int                 `json:"totalPapers" yaml:"totalPapers"`
	DateRange   string              `json:"dateRange" yaml:"dateRange"`
	Categories  []string            `json:"categories" yaml:"categories"`
	Papers      []types.PaperRecord `json:"papers" yaml:"papers"`
}

func buildDocument(papers []types.PaperRecord) document {
	return document{
		ExportDate:  time.Now().UTC().Format(time.RFC3339),
		TotalPapers: len(papers),
		DateRange:   dateRange(papers),
		Categories:  collectCategories(papers),
		Papers:      papers,
	}
}

func writeJSON(w io.Writer, papers []types.PaperRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildDocument(papers)); err != nil {
		return fmt.Errorf("encoding JSON export: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, papers []types.PaperRecord) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(buildDocument(papers)); err != nil {
		return fmt.Errorf("encoding YAML export: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, papers []types.PaperRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Title", "Authors", "Date", "Categories", "DOI", "URL", "Abstract"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, p := range papers {
		abstract := p.Abstract
		if len([]rune(abstract)) > csvAbstractLimit {
			abstract = string([]rune(abstract)[:csvAbstractLimit]) + "..."
		}
		row := []string{
			p.Title,
			strings.Join(p.Authors, "; "),
			formatDate(p.Date),
			strings.Join(p.Categories, "; "),
			p.DOI,
			p.URL,
			abstract,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMarkdown(w io.Writer, papers []types.PaperRecord) error {
	var b strings.Builder
	b.WriteString("# Living Review: Generative AI in Agrifood Systems\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Total papers: %d\n\n", len(papers))
	if r := dateRange(papers); r != "" {
		fmt.Fprintf(&b, "Date range: %s\n\n", r)
	}

	byCategory := groupByCategory(papers)
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	b.WriteString("## Papers by Category\n\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %d\n", c, len(byCategory[c]))
	}
	b.WriteString("\n")

	for _, c := range categories {
		fmt.Fprintf(&b, "## %s\n\n", c)
		group := byCategory[c]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.After(group[j].Date)
		})
		for _, p := range group {
			fmt.Fprintf(&b, "### %s\n\n", p.Title)
			if len(p.Authors) > 0 {
				fmt.Fprintf(&b, "**Authors:** %s\n\n", strings.Join(p.Authors, "; "))
			}
			fmt.Fprintf(&b, "**Date:** %s | **Source:** %s\n\n", formatDate(p.Date), p.Source)
			if p.DOI != "" {
				fmt.Fprintf(&b, "**DOI:** %s\n\n", p.DOI)
			}
			if p.URL != "" {
				fmt.Fprintf(&b, "**Link:** %s\n\n", p.URL)
			}
			if p.Abstract != "" {
				fmt.Fprintf(&b, "%s\n\n", p.Abstract)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func groupByCategory(papers []types.PaperRecord) map[string][]types.PaperRecord {
	out := make(map[string][]types.PaperRecord)
	for _, p := range papers {
		for _, c := range p.Categories {
			out[c] = append(out[c], p)
		}
	}
	return out
}

func collectCategories(papers []types.PaperRecord) []string {
	seen := make(map[string]bool)
	for _, p := range papers {
		for _, c := range p.Categories {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// dateRange reports the corpus span as "oldest to newest". Papers arrive
// sorted newest first; undated records never reach an export.
func dateRange(papers []types.PaperRecord) string {
	if len(papers) == 0 {
		return ""
	}
	newest := papers[0].Date
	oldest := papers[len(papers)-1].Date
	for _, p := range papers {
		if p.Date.After(newest) {
			newest = p.Date
		}
		if p.Date.Before(oldest) {
			oldest = p.Date
		}
	}
	return fmt.Sprintf("%s to %s", formatDate(oldest), formatDate(newest))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
