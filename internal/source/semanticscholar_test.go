// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/pkg/types"
)

func testHTTPConfig() types.HTTPConfig {
	return types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"}
}

func testEngine() *relevance.Engine {
	return relevance.NewEngine(types.KeywordConfig{})
}

func TestSemanticScholarFetchMapsFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"data": []map[string]any{
				{
					"paperId":         "abc123",
					"title":           "Synthetic data for plant disease detection",
					"abstract":        "We train on synthetic images of crop disease.",
					"publicationDate": "2024-03-15",
					"year":            2024,
					"url":             "https://www.semanticscholar.org/paper/abc123",
					"authors": []map[string]any{
						{"authorId": "1", "name": "Ada Lovelace"},
						{"authorId": "2", "name": "  "},
					},
					"externalIds": map[string]any{"DOI": "10.1234/abc"},
				},
			},
		})
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	s := &SemanticScholar{
		Client: ts.Client(),
		Config: types.SemanticScholarConfig{Queries: []string{"synthetic data agriculture"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	records, err := s.Fetch(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	r := records[0]
	if r.Source != "semantic_scholar" {
		t.Errorf("Source = %q, want semantic_scholar", r.Source)
	}
	if r.RawDate != "2024-03-15" {
		t.Errorf("RawDate = %q, want 2024-03-15", r.RawDate)
	}
	if r.DOI != "10.1234/abc" {
		t.Errorf("DOI = %q, want 10.1234/abc", r.DOI)
	}
	if len(r.Authors) != 1 || r.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v, want [Ada Lovelace] (blank names dropped)", r.Authors)
	}
	if len(r.Categories) == 0 {
		t.Error("Categories is empty; adapters must categorize at mapping time")
	}
}

func TestSemanticScholarFetchOneRequestPerQuery(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{"total": 0, "data": []any{}})
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	s := &SemanticScholar{
		Client: ts.Client(),
		Config: types.SemanticScholarConfig{
			Queries: []string{"a", "b", "c"},
		},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	if _, err := s.Fetch(context.Background(), io.Discard); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("requests = %d, want 3 (one per topic phrase)", got)
	}
}

func TestSemanticScholarFetchPartialFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"data": []map[string]any{
				{"title": "Generative AI for farming", "publicationDate": "2024-01-01"},
			},
		})
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	var log strings.Builder
	s := &SemanticScholar{
		Client: ts.Client(),
		Config: types.SemanticScholarConfig{Queries: []string{"bad", "good"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	records, err := s.Fetch(context.Background(), &log)
	if err != nil {
		t.Fatalf("Fetch() error = %v; partial failure must be absorbed", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
	if !strings.Contains(log.String(), "warning") {
		t.Errorf("expected a warning in the log, got %q", log.String())
	}
}

func TestSemanticScholarFetchAllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	s := &SemanticScholar{
		Client: ts.Client(),
		Config: types.SemanticScholarConfig{Queries: []string{"a", "b"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	if _, err := s.Fetch(context.Background(), io.Discard); err == nil {
		t.Error("Fetch() error = nil, want error when every query fails")
	}
}

func TestSemanticScholarYearFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"data": []map[string]any{
				{"title": "Untitled preprint on agri GANs", "year": 2023},
			},
		})
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	s := &SemanticScholar{
		Client: ts.Client(),
		Config: types.SemanticScholarConfig{Queries: []string{"q"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	records, err := s.Fetch(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if records[0].RawDate != "2023" {
		t.Errorf("RawDate = %q, want year fallback \"2023\"", records[0].RawDate)
	}
}
