// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate runs all source adapters concurrently, merges their
// outputs into the corpus, and applies the corpus-wide invariants: the
// relevance gate, title deduplication, date validation, the configured
// date cutoff, and most-recent-first ordering.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/internal/source"
	"github.com/foodai/living-review/pkg/types"
)

// ErrNoData signals that every adapter came back empty. Distinct from a
// populated corpus that later filters down to nothing.
var ErrNoData = errors.New("no papers returned by any source")

// Result holds the new corpus and run statistics.
type Result struct {
	// Papers is the finalized corpus, sorted by date descending.
	Papers []types.PaperRecord

	// SourceErrors records per-adapter failures ("name: message"). A
	// failed adapter contributes an empty sequence, never an abort.
	SourceErrors []string

	// Fetched counts records across all adapters before any filtering.
	Fetched int

	// DupsRemoved counts records merged away by title dedup.
	DupsRemoved int

	// DroppedIrrelevant counts records rejected by the relevance gate.
	DroppedIrrelevant int

	// DroppedBadDate counts records whose date was absent or unparseable.
	DroppedBadDate int

	// DroppedBeforeCutoff counts records older than the configured cutoff.
	DroppedBeforeCutoff int
}

// Run executes one aggregation pass. All adapters run concurrently and the
// join waits for every one to settle; individual failures are collected,
// not propagated. The relevance gate applies uniformly to every provider's
// records before dedup.
func Run(ctx context.Context, sources []source.Source, engine *relevance.Engine, cfg types.AggregateConfig, w io.Writer) (Result, error) {
	if len(sources) == 0 {
		return Result{}, fmt.Errorf("no source adapters configured")
	}

	type fetchOutcome struct {
		records []types.PaperRecord
		err     error
	}

	// Outcomes are indexed by source position so the merge order follows
	// the configured source order, not goroutine completion order. Dedup
	// survivors and equal-date sort ties stay stable run to run.
	outcomes := make([]fetchOutcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			records, err := src.Fetch(ctx, w)
			outcomes[i] = fetchOutcome{records: records, err: err}
		}(i, src)
	}
	wg.Wait()

	var result Result
	var working []types.PaperRecord
	for i, outcome := range outcomes {
		if outcome.err != nil {
			name := sources[i].Name()
			result.SourceErrors = append(result.SourceErrors, fmt.Sprintf("%s: %v", name, outcome.err))
			fmt.Fprintf(w, "warning: source %s failed: %v\n", name, outcome.err)
		}
		// A failing adapter may still have gathered partial results.
		working = append(working, outcome.records...)
	}
	result.Fetched = len(working)

	if len(working) == 0 {
		return result, ErrNoData
	}

	working, result.DroppedIrrelevant = applyRelevanceGate(working, engine)
	working, result.DupsRemoved = deduplicate(working)
	working, result.DroppedBadDate = validateDates(working)
	working, result.DroppedBeforeCutoff = applyCutoff(working, cfg.CutoffDate())

	// Stable so that same-date records keep their merge order.
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].Date.After(working[j].Date)
	})

	result.Papers = working
	fmt.Fprintf(w, "aggregated %d papers (%d fetched, %d duplicates, %d off-topic, %d undated, %d before cutoff)\n",
		len(result.Papers), result.Fetched, result.DupsRemoved,
		result.DroppedIrrelevant, result.DroppedBadDate, result.DroppedBeforeCutoff)
	return result, nil
}

// applyRelevanceGate drops records missing either keyword family.
func applyRelevanceGate(records []types.PaperRecord, engine *relevance.Engine) ([]types.PaperRecord, int) {
	kept := records[:0]
	dropped := 0
	for _, r := range records {
		if engine.IsRelevant(r) {
			kept = append(kept, r)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// titleKey normalizes a title for dedup: lower-cased and trimmed.
func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// deduplicate keeps one record per normalized title. When two records
// collide, the one carrying a DOI survives (a registry record with a DOI
// beats a preprint duplicate); otherwise the earlier record wins. Either
// way the survivor absorbs the loser's fields where its own are empty.
func deduplicate(records []types.PaperRecord) ([]types.PaperRecord, int) {
	seen := make(map[string]int, len(records))
	var deduped []types.PaperRecord
	removed := 0

	for _, r := range records {
		key := titleKey(r.Title)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(deduped)
			deduped = append(deduped, r)
			continue
		}

		removed++
		if deduped[idx].DOI == "" && r.DOI != "" {
			loser := deduped[idx]
			deduped[idx] = r
			mergeInto(&deduped[idx], loser)
		} else {
			mergeInto(&deduped[idx], r)
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and unions the categories.
func mergeInto(dst *types.PaperRecord, src types.PaperRecord) {
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.RawDate == "" {
		dst.RawDate = src.RawDate
	}
	if (dst.URL == "" || dst.URL == "#") && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	for _, c := range src.Categories {
		if !dst.HasCategory(c) {
			dst.Categories = append(dst.Categories, c)
		}
	}
	sort.Strings(dst.Categories)
}

// dateLayouts are the formats the providers are known to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseDate parses a provider date string against the known layouts.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validateDates parses RawDate once for all sources, dropping records whose
// date is absent or unparseable.
func validateDates(records []types.PaperRecord) ([]types.PaperRecord, int) {
	kept := records[:0]
	dropped := 0
	for _, r := range records {
		t, ok := parseDate(r.RawDate)
		if !ok {
			dropped++
			continue
		}
		r.Date = t
		kept = append(kept, r)
	}
	return kept, dropped
}

// applyCutoff drops records dated before the cutoff. A zero cutoff keeps
// everything.
func applyCutoff(records []types.PaperRecord, cutoff time.Time) ([]types.PaperRecord, int) {
	if cutoff.IsZero() {
		return records, 0
	}
	kept := records[:0]
	dropped := 0
	for _, r := range records {
		if r.Date.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
