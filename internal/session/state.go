// Package session holds the lookup table state shared by every line of a run:
// the static main and player segments, the learned temp segment and their
// combination.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
	"github.com/MimeLyc/dialogue-translator/internal/persistence"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

// PersistError reports that a learned translation could not be written to
// the store. The in-memory table still holds it.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// State is the translation cache. All methods are safe for concurrent use.
type State struct {
	store persistence.TempStore
	key   string

	main   lookup.Table
	player lookup.Table

	// learnMu serializes read-modify-write-rebuild-flush in Learn
	learnMu sync.Mutex

	mu      sync.RWMutex
	temp    lookup.Table
	combine lookup.Table
}

// New creates a State over the static segments. Call Load to read the
// learned segment from the store.
func New(store persistence.TempStore, key string, main, player lookup.Table) *State {
	if key == "" {
		key = persistence.DefaultTempKey
	}
	s := &State{
		store:  store,
		key:    key,
		main:   main,
		player: player,
	}
	s.Rebuild()
	return s
}

// Load reads the learned segment and rebuilds the combined table.
func (s *State) Load(ctx context.Context) error {
	temp, err := s.store.ReadTemp(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.key, err)
	}
	s.mu.Lock()
	s.temp = temp
	s.mu.Unlock()
	s.Rebuild()
	return nil
}

// Rebuild re-derives the combined table from temp, player and main.
func (s *State) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combine = lookup.Compose(s.temp, s.player, s.main)
}

// Combined returns the current combined table. The returned slice must not
// be modified.
func (s *State) Combined() lookup.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.combine
}

// Temp returns a copy of the learned segment.
func (s *State) Temp() lookup.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(lookup.Table(nil), s.temp...)
}

// Persist writes the whole learned segment to the store.
func (s *State) Persist(ctx context.Context) error {
	temp := s.Temp()
	if err := s.store.WriteTemp(ctx, s.key, temp); err != nil {
		return &PersistError{Key: s.key, Err: err}
	}
	return nil
}

// Learn records name -> translation, and root -> rootTranslation when the
// root is not known yet. Nothing happens when the translation equals the
// name. The learned segment is re-read from the store first so entries
// written by other processes are kept.
func (s *State) Learn(ctx context.Context, name, translation, root, rootTranslation string) error {
	if name == translation {
		return nil
	}

	s.learnMu.Lock()
	defer s.learnMu.Unlock()

	temp, err := s.store.ReadTemp(ctx, s.key)
	if err != nil {
		log.Warn("Re-read %s failed, keeping in-memory entries: %v", s.key, err)
		temp = s.Temp()
	}

	temp = append(temp, lookup.Entry{
		Pattern:     lookup.MarkIfShort(name),
		Replacement: translation,
		Tag:         lookup.TagTemp,
	})
	if root != "" && !s.Combined().Has(root) {
		temp = append(temp, lookup.Entry{
			Pattern:     lookup.MarkIfShort(root),
			Replacement: rootTranslation,
			Tag:         lookup.TagTemp,
		})
	}

	s.mu.Lock()
	s.temp = temp
	s.mu.Unlock()
	s.Rebuild()

	log.Info("Learned name %s -> %s", name, translation)
	return s.Persist(ctx)
}
