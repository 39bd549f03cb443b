package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchConfigCreatesDefaultsOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewSearchConfigStore(path)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchConfig(), cfg)

	// The defaults must now exist on disk.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSearchConfigSetUpdatesKnownParam(t *testing.T) {
	store := NewSearchConfigStore(filepath.Join(t.TempDir(), "config.json"))

	require.NoError(t, store.Set("FPriceMax", 900))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.SearchParams.MaxPrice)
	// Untouched params keep their defaults.
	assert.Equal(t, 5, cfg.SearchParams.Radius)
}

func TestSearchConfigSetRejectsUnknownParam(t *testing.T) {
	store := NewSearchConfigStore(filepath.Join(t.TempDir(), "config.json"))

	err := store.Set("FNoSuchParam", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search parameter")
}

func TestSearchConfigLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("???"), 0o644))

	store := NewSearchConfigStore(path)
	_, err := store.Load()
	assert.Error(t, err)
}

func TestSearchConfigFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewSearchConfigStore(path)
	_, err := store.Load()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"search_params": {
			"FRadius": 5,
			"FAreaOverAllMin": 60,
			"FPriceMax": 1200,
			"detailed_search": 1,
			"pet_friendly": 1
		},
		"city": "vilniuje",
		"type": "butu-nuoma",
		"max_pages": 3
	}`, string(data))
}
