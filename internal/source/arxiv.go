// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API. Unlike Semantic Scholar, arXiv accepts
// a long OR-combined search_query, so all topic phrases go out in a single
// bulk request.
type Arxiv struct {
	Client *http.Client
	Config types.ArxivConfig
	HTTP   types.HTTPConfig
	Engine *relevance.Engine
}

// Name returns the provider identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Fetch issues the single bulk query and maps the Atom entries. A feed
// that fails to parse is a total failure for the call; an entry missing
// individual child elements is tolerated, an entry missing a title is
// skipped on its own.
func (a *Arxiv) Fetch(ctx context.Context, w io.Writer) ([]types.PaperRecord, error) {
	if len(a.Config.Queries) == 0 {
		return nil, fmt.Errorf("no arXiv queries configured")
	}

	maxResults := a.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	combined := make([]string, len(a.Config.Queries))
	for i, q := range a.Config.Queries {
		combined[i] = "(" + q + ")"
	}
	params := url.Values{
		"search_query": {strings.Join(combined, " OR ")},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := arxivAPIBase + "?" + params.Encode()

	timeout := a.HTTP.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.HTTP.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.PaperRecord
	skipped := 0
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			skipped++
			continue
		}

		r := types.PaperRecord{
			Title:    title,
			Abstract: strings.TrimSpace(entry.Summary),
			RawDate:  strings.TrimSpace(entry.Published),
			URL:      strings.TrimSpace(entry.ID),
			Source:   a.Name(),
		}

		var names []string
		for _, author := range entry.Authors {
			names = append(names, author.Name)
		}
		r.Authors = mapAuthors(names)

		finishRecord(&r, a.Engine)
		records = append(records, r)
	}
	if skipped > 0 {
		fmt.Fprintf(w, "warning: arxiv skipped %d entries without titles\n", skipped)
	}
	return records, nil
}

// arXiv Atom feed XML structures. Missing child elements decode to zero
// values, which the mapping treats as absent.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
