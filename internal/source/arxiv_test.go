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

	"github.com/foodai/living-review/pkg/types"
)

const arxivSampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Generative models for crop yield forecasting</title>
    <summary>  We apply diffusion models to agricultural yield data.  </summary>
    <published>2024-01-02T00:00:00Z</published>
    <author><name>Grace Hopper</name></author>
    <author><name>Alan Turing</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title></title>
    <summary>Entry without a title is skipped individually.</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00003v1</id>
    <title>Synthetic plant images without a published date</title>
  </entry>
</feed>`

func TestArxivFetchMapsAtomEntries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, arxivSampleFeed)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &Arxiv{
		Client: ts.Client(),
		Config: types.ArxivConfig{Queries: []string{`all:"precision agriculture"`, `all:farming AND all:"generative"`}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	records, err := a.Fetch(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// All topic phrases go out in one OR-combined bulk request.
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}

	// The titleless entry is dropped; the dateless one survives to the
	// aggregator's date filter.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.Source != "arxiv" {
		t.Errorf("Source = %q, want arxiv", r.Source)
	}
	if r.RawDate != "2024-01-02T00:00:00Z" {
		t.Errorf("RawDate = %q, want the raw published string", r.RawDate)
	}
	if r.Abstract != "We apply diffusion models to agricultural yield data." {
		t.Errorf("Abstract = %q, want trimmed summary", r.Abstract)
	}
	if len(r.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 names", r.Authors)
	}
	if r.URL != "http://arxiv.org/abs/2401.00001v1" {
		t.Errorf("URL = %q", r.URL)
	}
	if records[1].RawDate != "" {
		t.Errorf("dateless entry RawDate = %q, want empty", records[1].RawDate)
	}
}

func TestArxivFetchInvalidXMLIsTotalFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<feed><entry><title>broken`)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &Arxiv{
		Client: ts.Client(),
		Config: types.ArxivConfig{Queries: []string{"all:agriculture"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	if _, err := a.Fetch(context.Background(), io.Discard); err == nil {
		t.Error("Fetch() error = nil, want total failure on unparseable feed")
	}
}

func TestArxivFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := &Arxiv{
		Client: ts.Client(),
		Config: types.ArxivConfig{Queries: []string{"all:agriculture"}},
		HTTP:   testHTTPConfig(),
		Engine: testEngine(),
	}

	if _, err := a.Fetch(context.Background(), io.Discard); err == nil {
		t.Error("Fetch() error = nil, want error on HTTP 503")
	}
}
