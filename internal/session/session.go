// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/foodai/living-review/internal/aggregate"
	"github.com/foodai/living-review/internal/relevance"
	"github.com/foodai/living-review/internal/source"
	"github.com/foodai/living-review/internal/store"
	"github.com/foodai/living-review/pkg/types"
)

// ErrBusy is returned when a refresh is requested while another one is
// already running.
var ErrBusy = errors.New("refresh already in progress")

// LoadStatus reports where the corpus installed by Load came from.
type LoadStatus struct {
	FromCache bool
	Stale     bool
	SavedAt   time.Time
}

// Session ties together the corpus, the facet state, and the snapshot
// store. All exported methods are safe for concurrent use; a background
// refresh swaps the corpus in one critical section so readers never see a
// half-installed state.
type Session struct {
	cfg     types.PipelineConfig
	sources []source.Source
	engine  *relevance.Engine
	store   *store.Store
	w       io.Writer

	mu     sync.Mutex
	busy   bool
	papers []types.PaperRecord
	facets *FacetState
}

// New creates a session. The store may be nil, in which case no snapshots
// are read or written.
func New(cfg types.PipelineConfig, sources []source.Source, engine *relevance.Engine, st *store.Store, w io.Writer) *Session {
	return &Session{
		cfg:     cfg,
		sources: sources,
		engine:  engine,
		store:   st,
		w:       w,
		facets:  NewFacetState(nil),
	}
}

// Load installs a corpus, preferring the persisted snapshot. With no usable
// snapshot it falls back to a full fetch. A stale snapshot is still
// installed; the caller decides whether to kick off a background refresh.
func (s *Session) Load(ctx context.Context) (LoadStatus, error) {
	var status LoadStatus

	if s.store != nil {
		snap, err := s.store.Load()
		switch {
		case err == nil:
			s.install(snap.Papers, snap.SelectedCategories, snap.SelectedSources, snap.DateWindow)
			status.FromCache = true
			status.SavedAt = snap.Timestamp
			status.Stale = snap.Age() > s.cfg.Cache.StaleAfter
			return status, nil
		case errors.Is(err, store.ErrCorruptSnapshot):
			fmt.Fprintf(s.w, "warning: discarded corrupt snapshot, fetching fresh data\n")
		case errors.Is(err, store.ErrNoSnapshot):
			// First run.
		default:
			return status, fmt.Errorf("loading snapshot: %w", err)
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return status, err
	}
	return status, nil
}

// Refresh runs the full aggregation pipeline and, on success, replaces the
// corpus and persists a new snapshot. Facet selections made before the
// refresh survive it, intersected with the new corpus. On failure the
// current corpus is left untouched. Only one refresh runs at a time.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	result, err := aggregate.Run(ctx, s.sources, s.engine, s.cfg.Aggregate, s.w)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prevCats := sortedKeys(s.facets.selectedCategories)
	prevSrcs := sortedKeys(s.facets.selectedSources)
	hadCorpus := len(s.papers) > 0

	s.papers = result.Papers
	s.facets = NewFacetState(result.Papers)
	if hadCorpus {
		s.facets.Restore(prevCats, prevSrcs, types.DateWindow{})
	}
	err = s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		fmt.Fprintf(s.w, "warning: could not persist snapshot: %v\n", err)
	}
	return nil
}

// RefreshInBackground starts Refresh on its own goroutine and reports its
// outcome on the returned channel.
func (s *Session) RefreshInBackground(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Refresh(ctx)
	}()
	return done
}

// Busy reports whether a refresh is currently in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) install(papers []types.PaperRecord, selectedCats, selectedSrcs []string, window types.DateWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers = papers
	s.facets = NewFacetState(papers)
	s.facets.Restore(selectedCats, selectedSrcs, window)
}

// persistLocked writes the current state to the store. Caller holds mu.
func (s *Session) persistLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(store.Snapshot{
		Papers:              s.papers,
		AvailableCategories: s.facets.AvailableCategories(),
		AvailableSources:    s.facets.AvailableSources(),
		SelectedCategories:  s.facets.SelectedCategories(),
		SelectedSources:     s.facets.SelectedSources(),
		DateWindow:          s.facets.Window(),
	})
}

// Save persists the current corpus and facet state.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Papers returns a copy of the full corpus, newest first.
func (s *Session) Papers() []types.PaperRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.PaperRecord, len(s.papers))
	copy(out, s.papers)
	return out
}

// Visible returns the corpus subset passing the current facet filters.
func (s *Session) Visible() []types.PaperRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.ApplyFilters(s.papers)
}

// AvailableCategories lists the corpus categories, sorted.
func (s *Session) AvailableCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.AvailableCategories()
}

// SelectedCategories lists the selected categories, sorted.
func (s *Session) SelectedCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.SelectedCategories()
}

// AvailableSources lists the corpus sources, sorted.
func (s *Session) AvailableSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.AvailableSources()
}

// SelectedSources lists the selected sources, sorted.
func (s *Session) SelectedSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.SelectedSources()
}

// Window returns the active date window.
func (s *Session) Window() types.DateWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets.Window()
}

// SelectCategories replaces the category selection with the named subset.
func (s *Session) SelectCategories(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.selectedCategories = intersect(names, s.facets.availableCategories)
}

// SelectSources replaces the source selection with the named subset.
func (s *Session) SelectSources(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets.selectedSources = intersect(names, s.facets.availableSources)
}

// SetWindowDates narrows the date window to the months containing from and
// to. Zero times leave the corresponding bound at the full span.
func (s *Session) SetWindowDates(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	full := s.facets.FullWindow()
	min, max := full.MinIndex, full.MaxIndex
	if !from.IsZero() {
		min = DateToMonthIndex(from, full.BaseYear)
	}
	if !to.IsZero() {
		max = DateToMonthIndex(to, full.BaseYear)
	}
	s.facets.SetWindow(min, max)
}
