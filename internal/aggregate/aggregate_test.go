// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/internal/source"
	"github.com/foodai/living-review/pkg/types"
)

// --- mock source ---

type mockSource struct {
	name    string
	records []types.PaperRecord
	err     error
	delay   time.Duration
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(_ context.Context, _ io.Writer) ([]types.PaperRecord, error) {
	time.Sleep(m.delay)
	return m.records, m.err
}

func testEngine() *relevance.Engine {
	return relevance.NewEngine(types.KeywordConfig{})
}

func testCfg() types.AggregateConfig {
	return types.AggregateConfig{DateCutoff: "2023-01-01"}
}

// relevant builds a record that passes the default relevance gate.
func relevant(title, rawDate, source string) types.PaperRecord {
	return types.PaperRecord{
		Title:      title,
		Abstract:   "Generative models for agriculture.",
		RawDate:    rawDate,
		Source:     source,
		Categories: []string{"Other"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	// One duplicate title pair and one below-cutoff date: exactly two
	// records survive, sorted date descending.
	a := &mockSource{name: "arxiv", records: []types.PaperRecord{
		relevant("Foo Bar", "2024-06-01", "arxiv"),
		relevant("Too Old", "2022-12-31", "arxiv"),
	}}
	b := &mockSource{name: "crossref", records: []types.PaperRecord{
		relevant("  foo bar  ", "2024-06-01", "crossref"),
		relevant("Newer Paper", "2025-02-10", "crossref"),
	}}

	result, err := Run(context.Background(), []source.Source{a, b}, testEngine(), testCfg(), io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Papers) != 2 {
		t.Fatalf("len(Papers) = %d, want 2 (%+v)", len(result.Papers), result.Papers)
	}
	if result.Papers[0].Title != "Newer Paper" {
		t.Errorf("Papers[0].Title = %q, want most recent first", result.Papers[0].Title)
	}
	if result.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", result.DupsRemoved)
	}
	if result.DroppedBeforeCutoff != 1 {
		t.Errorf("DroppedBeforeCutoff = %d, want 1", result.DroppedBeforeCutoff)
	}
}

func TestRunAllSettledJoin(t *testing.T) {
	ok := &mockSource{name: "arxiv", records: []types.PaperRecord{
		relevant("Survivor", "2024-01-01", "arxiv"),
	}}
	bad := &mockSource{name: "crossref", err: errors.New("boom")}

	var log strings.Builder
	result, err := Run(context.Background(), []source.Source{ok, bad}, testEngine(), testCfg(), &log)
	if err != nil {
		t.Fatalf("Run() error = %v; one failing source must not abort the run", err)
	}
	if len(result.Papers) != 1 {
		t.Errorf("len(Papers) = %d, want 1", len(result.Papers))
	}
	if len(result.SourceErrors) != 1 || !strings.Contains(result.SourceErrors[0], "crossref") {
		t.Errorf("SourceErrors = %v, want one crossref entry", result.SourceErrors)
	}
	if !strings.Contains(log.String(), "warning") {
		t.Errorf("log = %q, want a warning line", log.String())
	}
}

func TestRunMergeOrderFollowsSourceOrder(t *testing.T) {
	// The first-configured source finishes last. Without a DOI on either
	// side, the dedup survivor must still be the first-configured source's
	// record, so merge order cannot depend on goroutine completion.
	slow := &mockSource{name: "semantic_scholar", delay: 20 * time.Millisecond, records: []types.PaperRecord{
		relevant("Shared Title", "2024-06-01", "semantic_scholar"),
	}}
	fast := &mockSource{name: "crossref", records: []types.PaperRecord{
		relevant("Shared Title", "2024-06-01", "crossref"),
	}}

	result, err := Run(context.Background(), []source.Source{slow, fast}, testEngine(), testCfg(), io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(result.Papers))
	}
	if result.Papers[0].Source != "semantic_scholar" {
		t.Errorf("survivor Source = %q, want the first-configured source", result.Papers[0].Source)
	}
}

func TestRunNoData(t *testing.T) {
	empty := &mockSource{name: "arxiv"}
	failed := &mockSource{name: "crossref", err: errors.New("down")}

	_, err := Run(context.Background(), []source.Source{empty, failed}, testEngine(), testCfg(), io.Discard)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Run() error = %v, want ErrNoData", err)
	}
}

func TestRunRelevanceGateIsUniversal(t *testing.T) {
	src := &mockSource{name: "crossref", records: []types.PaperRecord{
		{Title: "Soil compaction study", Abstract: "Agronomy only, no technique terms.", RawDate: "2024-01-01", Categories: []string{"Other"}},
		relevant("On-topic paper", "2024-01-01", "crossref"),
	}}

	result, err := Run(context.Background(), []source.Source{src}, testEngine(), testCfg(), io.Discard)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Papers) != 1 || result.Papers[0].Title != "On-topic paper" {
		t.Errorf("Papers = %+v, want only the on-topic record", result.Papers)
	}
	if result.DroppedIrrelevant != 1 {
		t.Errorf("DroppedIrrelevant = %d, want 1", result.DroppedIrrelevant)
	}
}

func TestDeduplicatePrefersDOI(t *testing.T) {
	records := []types.PaperRecord{
		{Title: "Foo Bar", Source: "arxiv", URL: "http://arxiv.org/abs/1", Categories: []string{"Other"}},
		{Title: "foo bar", Source: "crossref", DOI: "10.1234/foo", Categories: []string{"Synthetic Data"}},
	}

	deduped, removed := deduplicate(records)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(deduped) != 1 {
		t.Fatalf("len(deduped) = %d, want 1", len(deduped))
	}

	r := deduped[0]
	if r.DOI != "10.1234/foo" {
		t.Errorf("DOI = %q; the record carrying a DOI must survive", r.DOI)
	}
	if r.Source != "crossref" {
		t.Errorf("Source = %q, want crossref", r.Source)
	}
	// Survivor absorbs the loser's URL and unions categories.
	if r.URL != "http://arxiv.org/abs/1" {
		t.Errorf("URL = %q, want loser's URL filled in", r.URL)
	}
	if !r.HasCategory("Other") || !r.HasCategory("Synthetic Data") {
		t.Errorf("Categories = %v, want union", r.Categories)
	}
}

func TestDeduplicateFirstWinsWithoutDOI(t *testing.T) {
	records := []types.PaperRecord{
		{Title: "Same Title", Source: "arxiv", Abstract: "first"},
		{Title: "same title", Source: "semantic_scholar", Abstract: "second"},
	}

	deduped, _ := deduplicate(records)
	if len(deduped) != 1 {
		t.Fatalf("len(deduped) = %d, want 1", len(deduped))
	}
	if deduped[0].Abstract != "first" {
		t.Errorf("Abstract = %q, want the earlier record kept", deduped[0].Abstract)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want string
	}{
		{"2024-03-15", true, "2024-03-15"},
		{"2024-01-02T00:00:00Z", true, "2024-01-02"},
		{"2024-03", true, "2024-03-01"},
		{"2024", true, "2024-01-01"},
		{"yesterday", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parseDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestApplyCutoffBoundary(t *testing.T) {
	cutoff, _ := time.Parse("2006-01-02", "2023-01-01")
	records := []types.PaperRecord{
		{Title: "before", Date: mustDate(t, "2022-12-31")},
		{Title: "on", Date: mustDate(t, "2023-01-01")},
		{Title: "after", Date: mustDate(t, "2023-01-02")},
	}

	kept, dropped := applyCutoff(records, cutoff)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	for _, r := range kept {
		if r.Title == "before" {
			t.Error("record dated before the cutoff survived")
		}
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
