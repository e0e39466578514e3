// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Fetch all sources and rebuild the cached corpus",
	Long: `Aggregate queries Semantic Scholar, arXiv, and Crossref concurrently,
filters the results for relevance to generative AI in agrifood systems,
deduplicates by title, assigns categories, and persists the corpus to the
local snapshot database. Provider failures are reported but do not abort
the run as long as at least one source returned data.`,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	sess, st, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := sess.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	papers := sess.Papers()
	fmt.Fprintf(os.Stdout, "Corpus rebuilt: %d papers across %d categories from %d sources\n",
		len(papers), len(sess.AvailableCategories()), len(sess.AvailableSources()))
	return nil
}
