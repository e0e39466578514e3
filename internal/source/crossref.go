// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foodai/living-review/internal/httputil"
	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/pkg/types"
)

// crossrefAPIBase is the Crossref works search endpoint. Declared as a var
// so tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// Crossref queries the Crossref scholarly metadata registry. Each
// configured query is retried with backoff before the adapter gives up on
// that query and moves to the next.
type Crossref struct {
	Client *http.Client
	Config types.CrossrefConfig
	HTTP   types.HTTPConfig
	Engine *relevance.Engine
}

// Name returns the provider identifier.
func (c *Crossref) Name() string { return "crossref" }

// Fetch walks the configured query list. Query failures are logged and
// absorbed; Fetch returns an error only when every query failed.
func (c *Crossref) Fetch(ctx context.Context, w io.Writer) ([]types.PaperRecord, error) {
	if len(c.Config.Queries) == 0 {
		return nil, fmt.Errorf("no Crossref queries configured")
	}

	policy := httputil.RetryPolicy{
		MaxRetries: c.Config.MaxRetries,
		BaseDelay:  c.Config.RetryDelay,
	}

	var records []types.PaperRecord
	failed := 0
	for _, query := range c.Config.Queries {
		batch, err := c.fetchQuery(ctx, policy, query)
		if err != nil {
			fmt.Fprintf(w, "warning: crossref query %q failed: %v\n", query, err)
			failed++
			continue
		}
		records = append(records, batch...)
	}

	if failed == len(c.Config.Queries) {
		return nil, fmt.Errorf("all %d Crossref queries failed", failed)
	}
	return records, nil
}

func (c *Crossref) fetchQuery(ctx context.Context, policy httputil.RetryPolicy, query string) ([]types.PaperRecord, error) {
	maxResults := c.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {fmt.Sprintf("%d", maxResults)},
		"sort":                {"published"},
		"order":               {"desc"},
	}
	if c.Config.Mailto != "" {
		params.Set("mailto", c.Config.Mailto)
	}
	reqURL := crossrefAPIBase + "?" + params.Encode()

	timeout := c.HTTP.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.HTTP.UserAgent)

	resp, err := policy.Do(ctx, c.Client, req)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}
	if cr.Status != "ok" {
		return nil, fmt.Errorf("Crossref returned status %q", cr.Status)
	}

	var records []types.PaperRecord
	for _, item := range cr.Message.Items {
		if len(item.Title) == 0 || strings.TrimSpace(item.Title[0]) == "" {
			continue
		}

		r := types.PaperRecord{
			Title:    item.Title[0],
			Abstract: stripTags(item.Abstract),
			RawDate:  formatDateParts(item.Published.DateParts),
			URL:      item.URL,
			DOI:      item.DOI,
			Source:   c.Name(),
		}

		var names []string
		for _, a := range item.Author {
			names = append(names, strings.TrimSpace(a.Given+" "+a.Family))
		}
		r.Authors = mapAuthors(names)

		finishRecord(&r, c.Engine)
		records = append(records, r)
	}
	return records, nil
}

// formatDateParts renders Crossref's nested date-parts as a date string,
// defaulting the month and day to 1 when the registry omits them.
func formatDateParts(parts [][]int) string {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return ""
	}
	p := parts[0]
	year := p[0]
	month, day := 1, 1
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Status  string          `json:"status"`
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefItem `json:"items"`
}

type crossrefItem struct {
	Title     []string         `json:"title"`
	Author    []crossrefAuthor `json:"author"`
	Abstract  string           `json:"abstract"`
	Published crossrefDate     `json:"published"`
	URL       string           `json:"URL"`
	DOI       string           `json:"DOI"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
