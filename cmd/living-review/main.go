// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the living-review CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/internal/secrets"
	"github.com/foodai/living-review/internal/session"
	"github.com/foodai/living-review/internal/source"
	"github.com/foodai/living-review/internal/store"
	"github.com/foodai/living-review/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the living-review CLI.
var rootCmd = &cobra.Command{
	Use:   "living-review",
	Short: "Living review of generative AI in agrifood systems",
	Long: `living-review maintains a continuously updated corpus of research papers
on generative AI applied to agriculture and food systems. It aggregates
Semantic Scholar, arXiv, and Crossref, filters for relevance, deduplicates,
and categorizes, then caches the corpus locally for browsing and export.

Each stage is a subcommand: aggregate fetches and rebuilds the corpus,
browse filters the cached corpus by category, source, and date window, and
export renders it to JSON, YAML, CSV, or Markdown.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./living-review.yaml or ~/.config/living-review/config.yaml)")
	rootCmd.PersistentFlags().String("cache", "", "snapshot database path (default living-review.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("living-review")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "living-review"))
		}
	}

	viper.SetEnvPrefix("LIVING_REVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadPipelineConfig builds the effective configuration: built-in defaults,
// overridden by config file / environment values, then by command flags and
// loaded secrets.
func loadPipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if viper.IsSet("aggregate.timeout") {
		cfg.Aggregate.Timeout = viper.GetDuration("aggregate.timeout")
	}
	if viper.IsSet("aggregate.user_agent") {
		cfg.Aggregate.UserAgent = viper.GetString("aggregate.user_agent")
	}
	if viper.IsSet("aggregate.date_cutoff") {
		cfg.Aggregate.DateCutoff = viper.GetString("aggregate.date_cutoff")
	}

	if viper.IsSet("sources.semantic_scholar.enabled") {
		cfg.Sources.SemanticScholar.Enabled = viper.GetBool("sources.semantic_scholar.enabled")
	}
	if viper.IsSet("sources.semantic_scholar.queries") {
		cfg.Sources.SemanticScholar.Queries = viper.GetStringSlice("sources.semantic_scholar.queries")
	}
	if viper.IsSet("sources.arxiv.enabled") {
		cfg.Sources.Arxiv.Enabled = viper.GetBool("sources.arxiv.enabled")
	}
	if viper.IsSet("sources.arxiv.queries") {
		cfg.Sources.Arxiv.Queries = viper.GetStringSlice("sources.arxiv.queries")
	}
	if viper.IsSet("sources.crossref.enabled") {
		cfg.Sources.Crossref.Enabled = viper.GetBool("sources.crossref.enabled")
	}
	if viper.IsSet("sources.crossref.queries") {
		cfg.Sources.Crossref.Queries = viper.GetStringSlice("sources.crossref.queries")
	}

	if viper.IsSet("cache.path") {
		cfg.Cache.Path = viper.GetString("cache.path")
	}
	if viper.IsSet("cache.stale_after") {
		cfg.Cache.StaleAfter = viper.GetDuration("cache.stale_after")
	}

	if viper.IsSet("keywords.generative_terms") {
		cfg.Keywords.GenerativeTerms = viper.GetStringSlice("keywords.generative_terms")
	}
	if viper.IsSet("keywords.agrifood_terms") {
		cfg.Keywords.AgriFoodTerms = viper.GetStringSlice("keywords.agrifood_terms")
	}

	if cachePath, _ := cmd.Flags().GetString("cache"); cachePath != "" {
		cfg.Cache.Path = cachePath
	}

	cfg.Sources.SemanticScholar.APIKey = secretDefault(secrets.KeySemanticScholar,
		viper.GetString("sources.semantic_scholar.api_key"))
	cfg.Sources.Crossref.Mailto = secretDefault(secrets.KeyCrossrefMailto,
		viper.GetString("sources.crossref.mailto"))

	return cfg
}

// buildSources assembles the enabled source adapters.
func buildSources(cfg types.PipelineConfig, engine *relevance.Engine) []source.Source {
	client := &http.Client{Timeout: cfg.Aggregate.Timeout}

	var sources []source.Source
	if cfg.Sources.SemanticScholar.Enabled {
		sources = append(sources, &source.SemanticScholar{
			Client: client,
			Config: cfg.Sources.SemanticScholar,
			HTTP:   cfg.Aggregate.HTTPConfig,
			Engine: engine,
		})
	}
	if cfg.Sources.Arxiv.Enabled {
		sources = append(sources, &source.Arxiv{
			Client: client,
			Config: cfg.Sources.Arxiv,
			HTTP:   cfg.Aggregate.HTTPConfig,
			Engine: engine,
		})
	}
	if cfg.Sources.Crossref.Enabled {
		sources = append(sources, &source.Crossref{
			Client: client,
			Config: cfg.Sources.Crossref,
			HTTP:   cfg.Aggregate.HTTPConfig,
			Engine: engine,
		})
	}
	return sources
}

// openSession builds a session over the configured store and adapters.
// The caller owns the returned store and must Close it.
func openSession(cmd *cobra.Command) (*session.Session, *store.Store, error) {
	cfg := loadPipelineConfig(cmd)

	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	engine := relevance.NewEngine(cfg.Keywords)
	sess := session.New(cfg, buildSources(cfg, engine), engine, st, os.Stderr)
	return sess, st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
