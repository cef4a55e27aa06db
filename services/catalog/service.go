package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"anivault/models"
	"anivault/utils"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")

	ErrTitleNotFound   = fmt.Errorf("title: %w", models.ErrNotFound)
	ErrEpisodeNotFound = fmt.Errorf("episode: %w", models.ErrNotFound)

	ErrSeasonTaken  = fmt.Errorf("series already has a title for that season number: %w", models.ErrConflict)
	ErrEpisodeTaken = fmt.Errorf("title already has that episode number in that season: %w", models.ErrConflict)

	ErrNameRequired       = fmt.Errorf("title is required: %w", models.ErrValidation)
	ErrSeriesNameRequired = fmt.Errorf("series_name is required: %w", models.ErrValidation)
	ErrBadSeasonNumber    = fmt.Errorf("season_number must be at least 1: %w", models.ErrValidation)
	ErrBadEpisodeNumber   = fmt.Errorf("episode_number must be at least 1: %w", models.ErrValidation)
	ErrBadStatus          = fmt.Errorf("status must be Ongoing or Completed: %w", models.ErrValidation)
	ErrBadContentType     = fmt.Errorf("content_type must be anime or cartoon: %w", models.ErrValidation)
	ErrBadTotalEpisodes   = fmt.Errorf("total_episodes must not be negative: %w", models.ErrValidation)
	ErrVideoURLRequired   = fmt.Errorf("video_url is required: %w", models.ErrValidation)
	ErrTitleIDRequired    = fmt.Errorf("title_id is required: %w", models.ErrValidation)
)

// Service is the durable store for titles and their episodes. Both live under
// one lock so a title and its episodes never disagree mid-write.
type Service struct {
	mu           sync.RWMutex
	titlesPath   string
	episodesPath string
	titles       map[string]models.Title
	episodes     map[string]models.Episode
}

// NewService creates a catalog service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	svc := &Service{
		titlesPath:   filepath.Join(storageDir, "titles.json"),
		episodesPath: filepath.Join(storageDir, "episodes.json"),
		titles:       make(map[string]models.Title),
		episodes:     make(map[string]models.Episode),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := loadMap(s.titlesPath, &s.titles); err != nil {
		return fmt.Errorf("load titles: %w", err)
	}
	if err := loadMap(s.episodesPath, &s.episodes); err != nil {
		return fmt.Errorf("load episodes: %w", err)
	}
	return nil
}

func loadMap[T any](path string, dst *map[string]T) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		*dst = make(map[string]T)
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*dst = make(map[string]T)
		return nil
	}
	return json.Unmarshal(data, dst)
}

func (s *Service) saveTitlesLocked() error {
	if err := utils.WriteJSONAtomic(s.titlesPath, s.titles); err != nil {
		return fmt.Errorf("write titles: %w", err)
	}
	return nil
}

func (s *Service) saveEpisodesLocked() error {
	if err := utils.WriteJSONAtomic(s.episodesPath, s.episodes); err != nil {
		return fmt.Errorf("write episodes: %w", err)
	}
	return nil
}
