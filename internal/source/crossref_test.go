// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foodai/living-review/pkg/types"
)

const crossrefSampleBody = `{
  "status": "ok",
  "message": {
    "items": [
      {
        "title": ["Large language models for farm advisory"],
        "author": [
          {"given": "Rosalind", "family": "Franklin"},
          {"given": "Barbara", "family": "McClintock"}
        ],
        "abstract": "<jats:p>An <jats:italic>LLM</jats:italic> advisory system for farming.</jats:p>",
        "published": {"date-parts": [[2024, 5]]},
        "URL": "https://doi.org/10.5555/llm-farm",
        "DOI": "10.5555/llm-farm"
      },
      {
        "title": [],
        "DOI": "10.5555/untitled"
      }
    ]
  }
}`

func testCrossref(client *http.Client, queries []string) *Crossref {
	return &Crossref{
		Client: client,
		Config: types.CrossrefConfig{
			Queries:    queries,
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}
}

func TestCrossrefFetchMapsItems(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefSampleBody)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	c := testCrossref(ts.Client(), []string{"large language model farming"})

	records, err := c.Fetch(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// The titleless item is skipped on its own.
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	r := records[0]
	if r.Source != "crossref" {
		t.Errorf("Source = %q, want crossref", r.Source)
	}
	if r.Abstract != "An LLM advisory system for farming." {
		t.Errorf("Abstract = %q, want JATS tags stripped", r.Abstract)
	}
	if r.RawDate != "2024-05-01" {
		t.Errorf("RawDate = %q, want 2024-05-01 (day defaults to 1)", r.RawDate)
	}
	if r.DOI != "10.5555/llm-farm" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if len(r.Authors) != 2 || r.Authors[0] != "Rosalind Franklin" {
		t.Errorf("Authors = %v", r.Authors)
	}
}

func TestCrossrefFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, crossrefSampleBody)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	c := testCrossref(ts.Client(), []string{"q"})

	records, err := c.Fetch(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("requests = %d, want 2 (one retry)", got)
	}
}

func TestCrossrefFetchBadStatusField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "message": {"items": []}}`)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	c := testCrossref(ts.Client(), []string{"q"})

	if _, err := c.Fetch(context.Background(), io.Discard); err == nil {
		t.Error("Fetch() error = nil, want error for non-ok status")
	}
}

func TestFormatDateParts(t *testing.T) {
	tests := []struct {
		name  string
		parts [][]int
		want  string
	}{
		{"full date", [][]int{{2024, 5, 17}}, "2024-05-17"},
		{"year and month", [][]int{{2024, 5}}, "2024-05-01"},
		{"year only", [][]int{{2024}}, "2024-01-01"},
		{"empty", nil, ""},
		{"empty inner", [][]int{{}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDateParts(tt.parts); got != tt.want {
				t.Errorf("formatDateParts(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	in := "<jats:p>Hello <b>world</b></jats:p>"
	if got := stripTags(in); got != "Hello world" {
		t.Errorf("stripTags(%q) = %q, want %q", in, got, "Hello world")
	}
}
