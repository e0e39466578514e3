// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors,year,abstract,url,publicationDate,externalIds"

// SemanticScholar queries the Semantic Scholar Graph API. The provider's
// rate limits forbid one overloaded query string, so the adapter issues one
// request per configured topic phrase, sleeping between requests.
type SemanticScholar struct {
	Client *http.Client
	Config types.SemanticScholarConfig
	HTTP   types.HTTPConfig
	Engine *relevance.Engine
}

// Name returns the provider identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

// Fetch walks the configured query list sequentially. A failed query is
// logged and skipped; the records gathered so far survive. Fetch returns an
// error only when every query failed.
func (s *SemanticScholar) Fetch(ctx context.Context, w io.Writer) ([]types.PaperRecord, error) {
	if len(s.Config.Queries) == 0 {
		return nil, fmt.Errorf("no Semantic Scholar queries configured")
	}

	var records []types.PaperRecord
	failed := 0
	for i, query := range s.Config.Queries {
		if i > 0 {
			if err := sleepCtx(ctx, s.Config.PolitenessDelay); err != nil {
				return records, err
			}
		}

		batch, err := s.fetchQuery(ctx, query)
		if err != nil {
			fmt.Fprintf(w, "warning: semantic_scholar query %q failed: %v\n", query, err)
			failed++
			continue
		}
		records = append(records, batch...)
	}

	if failed == len(s.Config.Queries) {
		return nil, fmt.Errorf("all %d Semantic Scholar queries failed", failed)
	}
	return records, nil
}

func (s *SemanticScholar) fetchQuery(ctx context.Context, query string) ([]types.PaperRecord, error) {
	maxResults := s.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.HTTP.UserAgent)
	req.Header.Set("Accept", "application/json")
	if s.Config.APIKey != "" {
		req.Header.Set("x-api-key", s.Config.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.PaperRecord
	for _, paper := range sr.Data {
		if paper.Title == "" {
			continue
		}

		r := types.PaperRecord{
			Title:    paper.Title,
			Abstract: paper.Abstract,
			URL:      paper.URL,
			DOI:      paper.ExternalIDs.DOI,
			Source:   s.Name(),
		}

		var names []string
		for _, a := range paper.Authors {
			names = append(names, a.Name)
		}
		r.Authors = mapAuthors(names)

		if paper.PublicationDate != "" {
			r.RawDate = paper.PublicationDate
		} else if paper.Year > 0 {
			r.RawDate = fmt.Sprintf("%d", paper.Year)
		}

		finishRecord(&r, s.Engine)
		records = append(records, r)
	}
	return records, nil
}

func (s *SemanticScholar) timeout() time.Duration {
	if s.HTTP.Timeout > 0 {
		return s.HTTP.Timeout
	}
	return 15 * time.Second
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
