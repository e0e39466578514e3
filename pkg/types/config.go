package types

import "time"

// HTTPConfig holds shared HTTP settings used by the source adapters.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 15s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "living-review/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SemanticScholarConfig holds settings for the Semantic Scholar adapter.
type SemanticScholarConfig struct {
	// Enabled controls whether the adapter runs during aggregation.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Queries lists the topic phrases issued one request at a time. The
	// provider's rate limits forbid a single overloaded query string, so
	// the adapter walks this list sequentially.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty"`

	// MaxResults caps the number of results per query (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PolitenessDelay is the pause between consecutive queries (default 1s).
	PolitenessDelay time.Duration `json:"politeness_delay" yaml:"politeness_delay"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ArxivConfig holds settings for the arXiv adapter. arXiv tolerates one
// OR-combined query, so the adapter issues a single bulk request.
type ArxivConfig struct {
	// Enabled controls whether the adapter runs during aggregation.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Queries lists the topic phrases OR-combined into the bulk request.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty"`

	// MaxResults caps the number of feed entries requested (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// CrossrefConfig holds settings for the Crossref adapter.
type CrossrefConfig struct {
	// Enabled controls whether the adapter runs during aggregation.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Queries lists the bibliographic search phrases, one request each.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty"`

	// MaxResults caps the number of items per query (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxRetries is the retry count per query before giving up on that
	// query and moving to the next (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the base backoff delay between retries (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// Mailto is an email address sent with requests for polite pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`
}

// SourcesConfig groups the per-provider adapter settings.
type SourcesConfig struct {
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar"`
	Arxiv           ArxivConfig           `json:"arxiv" yaml:"arxiv"`
	Crossref        CrossrefConfig        `json:"crossref" yaml:"crossref"`
}

// AggregateConfig holds settings for the aggregation run.
type AggregateConfig struct {
	HTTPConfig `yaml:",inline"`

	// DateCutoff excludes records published before this date
	// (format "2006-01-02", default "2023-01-01"). The cutoff has varied
	// release to release, so it is configuration, not a literal.
	DateCutoff string `json:"date_cutoff" yaml:"date_cutoff"`
}

// CutoffDate parses DateCutoff; a missing or malformed value yields the
// zero time, which disables the cutoff.
func (c AggregateConfig) CutoffDate() time.Time {
	t, err := time.Parse("2006-01-02", c.DateCutoff)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CacheConfig holds settings for the local snapshot store.
type CacheConfig struct {
	// Path is the SQLite database file holding the corpus snapshot
	// (default "living-review.db").
	Path string `json:"path" yaml:"path"`

	// StaleAfter is the snapshot age beyond which a background
	// re-aggregation is triggered on load (default 12h).
	StaleAfter time.Duration `json:"stale_after" yaml:"stale_after"`
}

// KeywordConfig overrides the built-in relevance and category keyword
// tables. Empty fields fall back to the defaults.
type KeywordConfig struct {
	// GenerativeTerms is the generative/AI-technique keyword family.
	GenerativeTerms []string `json:"generative_terms,omitempty" yaml:"generative_terms,omitempty"`

	// AgriFoodTerms is the agriculture/food keyword family.
	AgriFoodTerms []string `json:"agrifood_terms,omitempty" yaml:"agrifood_terms,omitempty"`

	// Categories maps category names to their keyword phrase lists.
	Categories map[string][]string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// PipelineConfig groups all configuration for the living-review pipeline.
type PipelineConfig struct {
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	Aggregate AggregateConfig `json:"aggregate" yaml:"aggregate"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Keywords  KeywordConfig   `json:"keywords" yaml:"keywords"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// overrides a setting. The query lists mirror the curated topic phrases the
// living review tracks.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Sources: SourcesConfig{
			SemanticScholar: SemanticScholarConfig{
				Enabled:         true,
				Queries:         DefaultSemanticScholarQueries(),
				MaxResults:      100,
				PolitenessDelay: time.Second,
			},
			Arxiv: ArxivConfig{
				Enabled:    true,
				Queries:    DefaultArxivQueries(),
				MaxResults: 100,
			},
			Crossref: CrossrefConfig{
				Enabled:    true,
				Queries:    DefaultCrossrefQueries(),
				MaxResults: 50,
				MaxRetries: 3,
				RetryDelay: 2 * time.Second,
			},
		},
		Aggregate: AggregateConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: "living-review/0.1",
			},
			DateCutoff: "2023-01-01",
		},
		Cache: CacheConfig{
			Path:       "living-review.db",
			StaleAfter: 12 * time.Hour,
		},
	}
}

// DefaultSemanticScholarQueries returns the topic phrases issued as
// individual Semantic Scholar queries.
func DefaultSemanticScholarQueries() []string {
	return []string{
		"synthetic data agriculture",
		"generative AI agriculture",
		"large language model agriculture",
		"plant disease synthetic images",
		"crop yield prediction generative",
		"precision agriculture synthetic",
		"agricultural robot generative",
		"food safety generative AI",
		"livestock monitoring AI",
		"vertical farming generative",
		"plant breeding generative",
		"generative adversarial network agriculture",
		"diffusion model agriculture",
		"farm management language model",
		"agricultural advisory AI",
		"generative AI agrifood",
		"synthetic data generation farming",
		"AI agriculture generative model",
	}
}

// DefaultArxivQueries returns the topic phrases OR-combined into the single
// arXiv bulk query.
func DefaultArxivQueries() []string {
	return []string{
		`all:agriculture AND all:"generative AI"`,
		`all:agriculture AND all:"synthetic data"`,
		`all:agriculture AND all:"language model"`,
		`all:farming AND all:"generative"`,
		`all:"food safety" AND all:"generative"`,
		`all:"precision agriculture"`,
		`all:"plant disease" AND all:"synthetic"`,
	}
}

// DefaultCrossrefQueries returns the bibliographic search phrases for the
// Crossref adapter.
func DefaultCrossrefQueries() []string {
	return []string{
		"generative artificial intelligence agriculture",
		"synthetic data agri-food",
		"large language model farming",
		"generative adversarial network crop",
	}
}
