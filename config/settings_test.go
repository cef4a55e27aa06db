package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"anivault/config"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := config.NewManager(path)

	s, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, 7070, s.Server.Port)
	require.Equal(t, "data", s.Storage.Directory)
	require.Equal(t, 15*time.Second, s.RequestTimeout())
	require.Equal(t, 7*24*time.Hour, s.TrendingWindow())
	require.Equal(t, 30*time.Second, s.ShelfCacheTTL())

	// Load must have written the defaults file.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadBackfillsOlderConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":9090}}`), 0o644))

	s, err := config.NewManager(path).Load()
	require.NoError(t, err)
	require.Equal(t, 9090, s.Server.Port)
	require.Equal(t, "0.0.0.0", s.Server.Host)
	require.Equal(t, 6, s.Discover.FeaturedLimit)
	require.Equal(t, 12, s.Discover.TrendingLimit)
	require.Equal(t, "info", s.Log.Level)
	require.Equal(t, 50, s.Log.MaxSize)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	m := config.NewManager(path)

	s := config.DefaultSettings()
	s.Server.Port = 8123
	s.Discover.TrendingWindowDays = 14
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, 8123, loaded.Server.Port)
	require.Equal(t, 14*24*time.Hour, loaded.TrendingWindow())

	// No temp file left behind after the atomic rename.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := config.NewManager(path).Load()
	require.Error(t, err)
}
