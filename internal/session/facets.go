// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the mutable state of a review session: the corpus,
// the category/source facet selections, and the month-granularity date
// window. Everything upstream of this package is pure transformation.
package session

import (
	"sort"
	"time"

	"github.com/foodai/living-review/pkg/types"
)

// MonthIndexToDate maps a month index to the first day of that month.
// Index 0 is January of baseYear.
func MonthIndexToDate(index, baseYear int) time.Time {
	year := baseYear + index/12
	month := time.Month(index%12 + 1)
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// DateToMonthIndex is the inverse of MonthIndexToDate for the first-of-month
// dates it produces; arbitrary dates map to their containing month.
func DateToMonthIndex(t time.Time, baseYear int) int {
	return (t.Year()-baseYear)*12 + int(t.Month()) - 1
}

// FacetState holds the currently selected subsets of the category and
// source facets plus the active date window. It is rebuilt from the corpus
// whenever a new corpus is installed.
type FacetState struct {
	availableCategories map[string]bool
	selectedCategories  map[string]bool
	availableSources    map[string]bool
	selectedSources     map[string]bool

	window     types.DateWindow
	fullWindow types.DateWindow
}

// NewFacetState derives the available facets and the observed date span
// from the corpus and selects everything, the fresh-session default.
func NewFacetState(papers []types.PaperRecord) *FacetState {
	fs := &FacetState{
		availableCategories: make(map[string]bool),
		selectedCategories:  make(map[string]bool),
		availableSources:    make(map[string]bool),
		selectedSources:     make(map[string]bool),
	}

	var minDate, maxDate time.Time
	for _, p := range papers {
		for _, c := range p.Categories {
			fs.availableCategories[c] = true
			fs.selectedCategories[c] = true
		}
		if p.Source != "" {
			fs.availableSources[p.Source] = true
			fs.selectedSources[p.Source] = true
		}
		if p.Date.IsZero() {
			continue
		}
		if minDate.IsZero() || p.Date.Before(minDate) {
			minDate = p.Date
		}
		if maxDate.IsZero() || p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	if !minDate.IsZero() {
		baseYear := minDate.Year()
		fs.fullWindow = types.DateWindow{
			MinIndex: DateToMonthIndex(minDate, baseYear),
			MaxIndex: DateToMonthIndex(maxDate, baseYear),
			BaseYear: baseYear,
		}
		fs.window = fs.fullWindow
	}
	return fs
}

// Restore overwrites the selections and window with previously persisted
// values, keeping only selections that still exist in the current corpus.
// An empty stored selection stays empty: "show nothing" is a deliberate
// state, not a reset trigger.
func (fs *FacetState) Restore(categories, sources []string, window types.DateWindow) {
	fs.selectedCategories = intersect(categories, fs.availableCategories)
	fs.selectedSources = intersect(sources, fs.availableSources)
	if window.BaseYear != 0 {
		fs.window = fs.clamp(window)
	}
}

func intersect(selected []string, available map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, s := range selected {
		if available[s] {
			out[s] = true
		}
	}
	return out
}

func (fs *FacetState) clamp(w types.DateWindow) types.DateWindow {
	if w.BaseYear != fs.fullWindow.BaseYear {
		return fs.fullWindow
	}
	if w.MinIndex < fs.fullWindow.MinIndex {
		w.MinIndex = fs.fullWindow.MinIndex
	}
	if w.MaxIndex > fs.fullWindow.MaxIndex {
		w.MaxIndex = fs.fullWindow.MaxIndex
	}
	if w.MinIndex > w.MaxIndex {
		w.MinIndex = w.MaxIndex
	}
	return w
}

// AvailableCategories returns the available category facet, sorted.
func (fs *FacetState) AvailableCategories() []string { return sortedKeys(fs.availableCategories) }

// SelectedCategories returns the selected category subset, sorted.
func (fs *FacetState) SelectedCategories() []string { return sortedKeys(fs.selectedCategories) }

// AvailableSources returns the available source facet, sorted.
func (fs *FacetState) AvailableSources() []string { return sortedKeys(fs.availableSources) }

// SelectedSources returns the selected source subset, sorted.
func (fs *FacetState) SelectedSources() []string { return sortedKeys(fs.selectedSources) }

// Window returns the active date window.
func (fs *FacetState) Window() types.DateWindow { return fs.window }

// FullWindow returns the observed date span of the corpus.
func (fs *FacetState) FullWindow() types.DateWindow { return fs.fullWindow }

// ToggleCategory flips one category's membership in the selection.
// Unknown categories are ignored.
func (fs *FacetState) ToggleCategory(name string) {
	if !fs.availableCategories[name] {
		return
	}
	if fs.selectedCategories[name] {
		delete(fs.selectedCategories, name)
	} else {
		fs.selectedCategories[name] = true
	}
}

// ToggleSource flips one source's membership in the selection.
func (fs *FacetState) ToggleSource(name string) {
	if !fs.availableSources[name] {
		return
	}
	if fs.selectedSources[name] {
		delete(fs.selectedSources, name)
	} else {
		fs.selectedSources[name] = true
	}
}

// SelectAllCategories selects every available category.
func (fs *FacetState) SelectAllCategories() {
	for c := range fs.availableCategories {
		fs.selectedCategories[c] = true
	}
}

// ClearAllCategories empties the category selection. With nothing selected
// the filter matches no records.
func (fs *FacetState) ClearAllCategories() {
	fs.selectedCategories = make(map[string]bool)
}

// SelectAllSources selects every available source.
func (fs *FacetState) SelectAllSources() {
	for s := range fs.availableSources {
		fs.selectedSources[s] = true
	}
}

// ClearAllSources empties the source selection.
func (fs *FacetState) ClearAllSources() {
	fs.selectedSources = make(map[string]bool)
}

// SetWindow narrows the active window to [min, max], clamped to the
// observed span.
func (fs *FacetState) SetWindow(min, max int) {
	fs.window = fs.clamp(types.DateWindow{MinIndex: min, MaxIndex: max, BaseYear: fs.fullWindow.BaseYear})
}

// ResetWindow restores the window to the full observed span.
func (fs *FacetState) ResetWindow() {
	fs.window = fs.fullWindow
}

// ApplyFilters returns the corpus subset passing all three facets: the
// record's source is selected, at least one of its categories is selected,
// and its date falls inside the active month window. An empty selection on
// either facet yields zero matches.
func (fs *FacetState) ApplyFilters(papers []types.PaperRecord) []types.PaperRecord {
	if len(fs.selectedSources) == 0 || len(fs.selectedCategories) == 0 {
		return nil
	}

	from := MonthIndexToDate(fs.window.MinIndex, fs.window.BaseYear)
	// Half-open upper bound: the whole last month of the window is in.
	to := MonthIndexToDate(fs.window.MaxIndex+1, fs.window.BaseYear)

	var visible []types.PaperRecord
	for _, p := range papers {
		if !fs.selectedSources[p.Source] {
			continue
		}
		if !fs.anyCategorySelected(p) {
			continue
		}
		if p.Date.Before(from) || !p.Date.Before(to) {
			continue
		}
		visible = append(visible, p)
	}
	return visible
}

func (fs *FacetState) anyCategorySelected(p types.PaperRecord) bool {
	for _, c := range p.Categories {
		if fs.selectedCategories[c] {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
