// Package store persists the set of litters seen so far and answers
// which records in a freshly scraped batch are genuinely new.
//
// The backing file is a single JSON document rewritten wholesale on
// every mutation. Reads degrade instead of failing: a missing or
// unreadable file yields empty state, so a damaged store re-announces
// litters rather than silently dropping them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"litterwatch/lib/litter"
)

type fileState struct {
	Litters     map[string]litter.Litter `json:"litters"`
	LastUpdated time.Time                `json:"last_updated"`
}

// Store reads and writes one litter state file. Methods follow a full
// read-modify-write pattern; the process is assumed to be the only
// writer.
type Store struct {
	path string
}

func New(path string) Store {
	return Store{path: path}
}

// PreviousIdentities returns the IDs of every stored litter.
func (s Store) PreviousIdentities(ctx context.Context) map[string]struct{} {
	state := s.read(ctx)
	ids := make(map[string]struct{}, len(state.Litters))
	for id := range state.Litters {
		ids[id] = struct{}{}
	}
	return ids
}

// DetectNew returns the subset of litters whose ID has not been stored
// before, in input order. A duplicate ID within the batch keeps its
// first occurrence only. Litters without an ID are ignored.
func (s Store) DetectNew(ctx context.Context, current []litter.Litter) []litter.Litter {
	seen := s.PreviousIdentities(ctx)

	var fresh []litter.Litter
	for _, l := range current {
		if l.ID == "" {
			continue
		}
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		fresh = append(fresh, l)
	}
	return fresh
}

// Update merges the given litters into the stored state keyed by ID,
// bumps the last-updated timestamp and writes the whole state back in
// one atomic replace.
func (s Store) Update(ctx context.Context, litters []litter.Litter) error {
	state := s.read(ctx)

	stored := 0
	for _, l := range litters {
		if l.ID == "" {
			continue
		}
		state.Litters[l.ID] = l
		stored++
	}
	state.LastUpdated = time.Now()

	if err := s.write(state); err != nil {
		return fmt.Errorf("update litter store: %w", err)
	}
	slog.DebugContext(ctx, "updated litter store", "path", s.path, "litters", stored)
	return nil
}

// Prune drops every stored litter whose ID is not in keep. Nothing is
// written when nothing was removed.
func (s Store) Prune(ctx context.Context, keep map[string]struct{}) error {
	state := s.read(ctx)

	removed := 0
	for id := range state.Litters {
		if _, ok := keep[id]; !ok {
			delete(state.Litters, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}

	state.LastUpdated = time.Now()
	if err := s.write(state); err != nil {
		return fmt.Errorf("prune litter store: %w", err)
	}
	slog.InfoContext(ctx, "pruned stale litters", "path", s.path, "removed", removed)
	return nil
}

// All returns every stored litter keyed by ID.
func (s Store) All(ctx context.Context) map[string]litter.Litter {
	return s.read(ctx).Litters
}

func (s Store) read(ctx context.Context) fileState {
	state, err := s.readOnce()
	if err == nil {
		return state
	}
	if !os.IsNotExist(err) {
		// One retry in case a writer was mid-replace.
		state, err = s.readOnce()
		if err == nil {
			return state
		}
		slog.WarnContext(ctx, "litter store unreadable, continuing with empty state",
			"path", s.path, "err", err)
	}
	return fileState{Litters: map[string]litter.Litter{}}
}

func (s Store) readOnce() (fileState, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fileState{}, err
	}
	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fileState{}, fmt.Errorf("unmarshal %s: %w", s.path, err)
	}
	if state.Litters == nil {
		state.Litters = map[string]litter.Litter{}
	}
	return state, nil
}

func (s Store) write(state fileState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
