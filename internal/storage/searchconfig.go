package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/user/listing-watcher/internal/domain"
)

// DefaultSearchConfig is written on first access when no config file exists.
func DefaultSearchConfig() domain.SearchConfig {
	return domain.SearchConfig{
		SearchParams: domain.SearchParams{
			Radius:         5,
			MinArea:        60,
			MaxPrice:       1200,
			DetailedSearch: 1,
			PetFriendly:    1,
		},
		City:        "vilniuje",
		ListingType: "butu-nuoma",
		MaxPages:    3,
	}
}

// SearchConfigStore persists the search definition as a small JSON file.
// The watcher only reads full snapshots; writes come from the admin surface.
type SearchConfigStore struct {
	path string
}

func NewSearchConfigStore(path string) *SearchConfigStore {
	return &SearchConfigStore{path: path}
}

// Load returns a snapshot of the current search definition, creating the
// file with defaults when it is absent.
func (s *SearchConfigStore) Load() (domain.SearchConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultSearchConfig()
			if err := s.Save(cfg); err != nil {
				return domain.SearchConfig{}, err
			}
			return cfg, nil
		}
		return domain.SearchConfig{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var cfg domain.SearchConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.SearchConfig{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save rewrites the config file.
func (s *SearchConfigStore) Save(cfg domain.SearchConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode search config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Set updates a single search parameter by its query key and persists the
// result. Unknown keys are rejected without touching the file.
func (s *SearchConfigStore) Set(param string, value int) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	switch param {
	case "FRadius":
		cfg.SearchParams.Radius = value
	case "FAreaOverAllMin":
		cfg.SearchParams.MinArea = value
	case "FPriceMax":
		cfg.SearchParams.MaxPrice = value
	case "detailed_search":
		cfg.SearchParams.DetailedSearch = value
	case "pet_friendly":
		cfg.SearchParams.PetFriendly = value
	default:
		return fmt.Errorf("unknown search parameter %q", param)
	}
	return s.Save(cfg)
}
