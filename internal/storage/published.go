package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrCorrupt reports that the published-ids snapshot exists but cannot be
// parsed. Callers must treat this as fatal for the cycle: reading a corrupt
// snapshot as an empty set would re-deliver every listing ever seen.
var ErrCorrupt = errors.New("published ids snapshot is corrupt")

// PublishedStore is the durable set of listing ids that were already
// delivered. The on-disk snapshot is the single source of truth and is
// reloaded at the start of every cycle.
type PublishedStore struct {
	path string
}

func NewPublishedStore(path string) *PublishedStore {
	return &PublishedStore{path: path}
}

// Load reads the full snapshot. A missing file is the normal first-run
// state and yields an empty set.
func (s *PublishedStore) Load() (map[string]struct{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, ErrCorrupt)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Commit atomically replaces the on-disk snapshot with the given set.
// It is called once per successful delivery: after a crash the snapshot
// reflects exactly the deliveries that completed.
func (s *PublishedStore) Commit(ids map[string]struct{}) error {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode published ids: %w", err)
	}

	// Write-then-rename keeps the previous snapshot intact if the process
	// dies mid-write.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".published-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
