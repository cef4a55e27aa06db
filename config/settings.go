package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Storage  StorageSettings  `json:"storage"`
	Request  RequestSettings  `json:"request"`
	Discover DiscoverSettings `json:"discover"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageSettings defines where catalog and user state files live.
type StorageSettings struct {
	Directory string `json:"directory"`
}

// RequestSettings bounds request handling.
type RequestSettings struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// DiscoverSettings controls the derived shelf views.
type DiscoverSettings struct {
	FeaturedLimit      int `json:"featuredLimit"`
	TrendingLimit      int `json:"trendingLimit"`
	TrendingWindowDays int `json:"trendingWindowDays"`
	ShelfCacheTTLSec   int `json:"shelfCacheTtlSec"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:  ServerSettings{Host: "0.0.0.0", Port: 7070},
		Storage: StorageSettings{Directory: "data"},
		Request: RequestSettings{TimeoutSeconds: 15},
		Discover: DiscoverSettings{
			FeaturedLimit:      6,
			TrendingLimit:      12,
			TrendingWindowDays: 7,
			ShelfCacheTTLSec:   30,
		},
		Log: LogConfig{
			File:       "data/logs/backend.log",
			Level:      "info",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,  // keep 3 old files
			MaxAge:     7,  // 7 days
			Compress:   true,
		},
	}
}

// RequestTimeout returns the configured per-request deadline.
func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.Request.TimeoutSeconds) * time.Second
}

// TrendingWindow returns the activity window for the trending shelf.
func (s Settings) TrendingWindow() time.Duration {
	return time.Duration(s.Discover.TrendingWindowDays) * 24 * time.Hour
}

// ShelfCacheTTL returns how long computed shelves may be served from cache.
func (s Settings) ShelfCacheTTL() time.Duration {
	return time.Duration(s.Discover.ShelfCacheTTLSec) * time.Second
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for newly introduced settings when config predates them
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 7070
	}
	if strings.TrimSpace(s.Storage.Directory) == "" {
		s.Storage.Directory = "data"
	}
	if s.Request.TimeoutSeconds == 0 {
		s.Request.TimeoutSeconds = 15
	}
	if s.Discover.FeaturedLimit == 0 {
		s.Discover.FeaturedLimit = 6
	}
	if s.Discover.TrendingLimit == 0 {
		s.Discover.TrendingLimit = 12
	}
	if s.Discover.TrendingWindowDays == 0 {
		s.Discover.TrendingWindowDays = 7
	}
	if s.Discover.ShelfCacheTTLSec == 0 {
		s.Discover.ShelfCacheTTLSec = 30
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "data/logs/backend.log"
	}
	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = "info"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
