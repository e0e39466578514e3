// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the corpus snapshot to a local SQLite database.
// One snapshot exists at a time; saving overwrites the prior one.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/foodai/living-review/pkg/types"
)

// ErrNoSnapshot signals that no usable snapshot is stored.
var ErrNoSnapshot = errors.New("no snapshot stored")

// ErrCorruptSnapshot signals that a stored snapshot failed to parse. The
// store discards the snapshot before returning it, so the caller proceeds
// as if no cache existed; the error is informational.
var ErrCorruptSnapshot = fmt.Errorf("corrupt snapshot discarded: %w", ErrNoSnapshot)

// Snapshot is the persisted state: the full corpus plus facet selections
// and the active date window.
type Snapshot struct {
	Timestamp           time.Time           `json:"timestamp"`
	Papers              []types.PaperRecord `json:"papers"`
	AvailableCategories []string            `json:"available_categories"`
	AvailableSources    []string            `json:"available_sources"`
	SelectedCategories  []string            `json:"selected_categories"`
	SelectedSources     []string            `json:"selected_sources"`
	DateWindow          types.DateWindow    `json:"date_window"`
}

// Age returns how long ago the snapshot was saved.
func (s Snapshot) Age() time.Duration {
	return time.Since(s.Timestamp)
}

// Store manages the snapshot database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at TEXT NOT NULL,
		payload TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot, overwriting any prior one. The timestamp is
// set here so every saved snapshot carries its own save time.
func (s *Store) Save(snap Snapshot) error {
	snap.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshot (id, saved_at, payload) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at=excluded.saved_at, payload=excluded.payload`,
		snap.Timestamp.Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load restores the stored snapshot. A missing snapshot yields
// ErrNoSnapshot. A snapshot that fails to parse is treated as corruption:
// the row is deleted and Load returns ErrCorruptSnapshot, which also
// matches ErrNoSnapshot so callers fall back to a fresh aggregation.
func (s *Store) Load() (Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		s.Discard()
		return Snapshot{}, ErrCorruptSnapshot
	}
	return snap, nil
}

// Discard deletes the stored snapshot, if any.
func (s *Store) Discard() error {
	_, err := s.db.Exec(`DELETE FROM snapshot WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("discarding snapshot: %w", err)
	}
	return nil
}
