// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/foodai/living-review/internal/session"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the cached corpus filtered by category, source, and date",
	Long: `Browse loads the cached corpus and prints the records passing the facet
filters, newest first. With no snapshot present, a full aggregation runs
first. A stale snapshot is shown immediately while a background refresh
rebuilds and re-persists the corpus.`,
	RunE: runBrowse,
}

func init() {
	addFacetFlags(browseCmd)
	browseCmd.Flags().Bool("no-refresh", false, "never refresh, even when the snapshot is stale")
	browseCmd.Flags().Int("limit", 0, "show at most this many records (0 = all)")

	rootCmd.AddCommand(browseCmd)
}

// addFacetFlags registers the filtering flags shared by browse and export.
func addFacetFlags(cmd *cobra.Command) {
	cmd.Flags().String("categories", "", "comma-separated category filter (default: all)")
	cmd.Flags().String("sources", "", "comma-separated source filter: semantic_scholar, arxiv, crossref (default: all)")
	cmd.Flags().String("from", "", "earliest publication month to include (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "latest publication month to include (YYYY-MM-DD)")
}

// applyFacetFlags narrows the session's facet state from the command flags.
func applyFacetFlags(cmd *cobra.Command, sess *session.Session) error {
	if cats, _ := cmd.Flags().GetString("categories"); cats != "" {
		sess.SelectCategories(splitList(cats))
	}
	if srcs, _ := cmd.Flags().GetString("sources"); srcs != "" {
		sess.SelectSources(splitList(srcs))
	}

	from, err := parseDateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := parseDateFlag(cmd, "to")
	if err != nil {
		return err
	}
	if !from.IsZero() || !to.IsZero() {
		sess.SetWindowDates(from, to)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (want YYYY-MM-DD)", name, raw)
	}
	return t, nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	sess, st, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	status, err := sess.Load(cmd.Context())
	if err != nil {
		return err
	}

	noRefresh, _ := cmd.Flags().GetBool("no-refresh")
	var refreshDone <-chan error
	if status.Stale && !noRefresh {
		fmt.Fprintf(os.Stderr, "Snapshot from %s is stale, refreshing in the background\n",
			status.SavedAt.Format("2006-01-02 15:04"))
		refreshDone = sess.RefreshInBackground(cmd.Context())
	}

	if err := applyFacetFlags(cmd, sess); err != nil {
		return err
	}

	visible := sess.Visible()
	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSOURCE\tCATEGORIES\tTITLE")
	for _, p := range visible {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			p.Date.Format("2006-01-02"), p.Source, strings.Join(p.Categories, "; "), p.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d papers shown\n", len(visible), len(sess.Papers()))

	if refreshDone != nil {
		if err := <-refreshDone; err != nil {
			fmt.Fprintf(os.Stderr, "warning: background refresh failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Background refresh complete: corpus now has %d papers\n", len(sess.Papers()))
		}
	}
	return nil
}
