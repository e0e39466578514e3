// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foodai/living-review/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the cached corpus to JSON, YAML, CSV, or Markdown",
	Long: `Export loads the cached corpus, applies the same facet filters as browse,
and renders the visible records to the requested format. With no snapshot
present, a full aggregation runs first; a stale snapshot is exported as-is
with a warning on stderr.`,
	RunE: runExport,
}

func init() {
	addFacetFlags(exportCmd)
	exportCmd.Flags().String("format", "json", "output format: json, yaml, csv, or markdown")
	exportCmd.Flags().String("out", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	sess, st, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	status, err := sess.Load(cmd.Context())
	if err != nil {
		return err
	}
	if status.Stale {
		fmt.Fprintf(os.Stderr, "warning: exporting snapshot from %s; run 'living-review aggregate' to refresh\n",
			status.SavedAt.Format("2006-01-02 15:04"))
	}
	if err := applyFacetFlags(cmd, sess); err != nil {
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	visible := sess.Visible()
	if err := export.Write(out, format, visible); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d papers as %s\n", len(visible), format)
	return nil
}
