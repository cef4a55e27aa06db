package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"anivault/models"
	"anivault/utils"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")

	ErrUserIDRequired    = fmt.Errorf("user id is required: %w", models.ErrValidation)
	ErrEpisodeIDRequired = fmt.Errorf("episode_id is required: %w", models.ErrValidation)
	ErrBadPosition       = fmt.Errorf("last_position must not be negative: %w", models.ErrValidation)
	ErrEntryNotFound     = fmt.Errorf("watch progress: %w", models.ErrNotFound)
	ErrEntryExists       = fmt.Errorf("progress already recorded for episode: %w", models.ErrConflict)
)

// Service manages persistence of per-user watch progress, keyed by user then
// episode so the (user_id, episode_id) pair is unique by construction. The
// integrity layer resolves the denormalized title_id before any write lands
// here.
type Service struct {
	mu      sync.RWMutex
	path    string
	entries map[string]map[string]models.WatchProgress
}

// NewService creates a progress service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}

	svc := &Service{
		path:    filepath.Join(storageDir, "progress.json"),
		entries: make(map[string]map[string]models.WatchProgress),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Create inserts a new progress entry. Two concurrent creates for the same
// (user, episode) pair are serialized by the lock; the loser gets a conflict
// and the stored record reflects the winner's payload only.
func (s *Service) Create(userID string, payload models.ProgressCreate) (models.WatchProgress, error) {
	userID = strings.TrimSpace(userID)
	episodeID := strings.TrimSpace(payload.EpisodeID)
	if userID == "" {
		return models.WatchProgress{}, ErrUserIDRequired
	}
	if episodeID == "" {
		return models.WatchProgress{}, ErrEpisodeIDRequired
	}
	if payload.LastPosition < 0 {
		return models.WatchProgress{}, ErrBadPosition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.entries[userID]
	if perUser == nil {
		perUser = make(map[string]models.WatchProgress)
		s.entries[userID] = perUser
	}
	if _, exists := perUser[episodeID]; exists {
		return models.WatchProgress{}, ErrEntryExists
	}

	entry := models.WatchProgress{
		ID:           uuid.NewString(),
		UserID:       userID,
		EpisodeID:    episodeID,
		TitleID:      strings.TrimSpace(payload.TitleID),
		Watched:      payload.Watched,
		LastPosition: payload.LastPosition,
		UpdatedAt:    time.Now().UTC(),
	}
	perUser[episodeID] = entry

	if err := s.saveLocked(); err != nil {
		delete(perUser, episodeID)
		return models.WatchProgress{}, err
	}

	return entry, nil
}

// Update applies a partial update to an existing entry and bumps UpdatedAt.
func (s *Service) Update(userID, episodeID string, payload models.ProgressUpdate) (models.WatchProgress, error) {
	userID = strings.TrimSpace(userID)
	episodeID = strings.TrimSpace(episodeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID][episodeID]
	if !ok {
		return models.WatchProgress{}, ErrEntryNotFound
	}
	prev := entry

	if payload.Watched != nil {
		entry.Watched = *payload.Watched
	}
	if payload.LastPosition != nil {
		if *payload.LastPosition < 0 {
			return models.WatchProgress{}, ErrBadPosition
		}
		entry.LastPosition = *payload.LastPosition
	}
	entry.UpdatedAt = time.Now().UTC()

	s.entries[userID][episodeID] = entry
	if err := s.saveLocked(); err != nil {
		s.entries[userID][episodeID] = prev
		return models.WatchProgress{}, err
	}

	return entry, nil
}

// Get returns the entry for (user, episode) if present.
func (s *Service) Get(userID, episodeID string) (models.WatchProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[strings.TrimSpace(userID)][strings.TrimSpace(episodeID)]
	if !ok {
		return models.WatchProgress{}, ErrEntryNotFound
	}
	return entry, nil
}

// ListByUser returns a user's progress entries, optionally narrowed to one
// title, most recently updated first.
func (s *Service) ListByUser(userID, titleID string) ([]models.WatchProgress, error) {
	userID = strings.TrimSpace(userID)
	titleID = strings.TrimSpace(titleID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.WatchProgress, 0, len(s.entries[userID]))
	for _, entry := range s.entries[userID] {
		if titleID != "" && entry.TitleID != titleID {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return entries, nil
}

// RecentActivity counts progress updates per title since the given time. The
// derivation engine feeds this into the trending score.
func (s *Service) RecentActivity(since time.Time) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, perUser := range s.entries {
		for _, entry := range perUser {
			if entry.UpdatedAt.After(since) {
				counts[entry.TitleID]++
			}
		}
	}
	return counts
}

// Remove deletes the entry for (user, episode) and returns it.
func (s *Service) Remove(userID, episodeID string) (models.WatchProgress, error) {
	userID = strings.TrimSpace(userID)
	episodeID = strings.TrimSpace(episodeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID][episodeID]
	if !ok {
		return models.WatchProgress{}, ErrEntryNotFound
	}

	delete(s.entries[userID], episodeID)
	if err := s.saveLocked(); err != nil {
		s.entries[userID][episodeID] = entry
		return models.WatchProgress{}, err
	}

	return entry, nil
}

// RemoveByEpisode deletes every user's entry for the episode and returns the
// removed records for cascade rollback.
func (s *Service) RemoveByEpisode(episodeID string) ([]models.WatchProgress, error) {
	episodeID = strings.TrimSpace(episodeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeMatchingLocked(func(entry models.WatchProgress) bool {
		return entry.EpisodeID == episodeID
	})
}

// RemoveByTitle deletes every user's entry for the title and returns the
// removed records for cascade rollback.
func (s *Service) RemoveByTitle(titleID string) ([]models.WatchProgress, error) {
	titleID = strings.TrimSpace(titleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeMatchingLocked(func(entry models.WatchProgress) bool {
		return entry.TitleID == titleID
	})
}

// RemoveByUser deletes all of a user's entries and returns the removed records
// for cascade rollback.
func (s *Service) RemoveByUser(userID string) ([]models.WatchProgress, error) {
	userID = strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeMatchingLocked(func(entry models.WatchProgress) bool {
		return entry.UserID == userID
	})
}

func (s *Service) removeMatchingLocked(match func(models.WatchProgress) bool) ([]models.WatchProgress, error) {
	removed := make([]models.WatchProgress, 0)
	for userID, perUser := range s.entries {
		for episodeID, entry := range perUser {
			if match(entry) {
				removed = append(removed, entry)
				delete(perUser, episodeID)
			}
		}
		if len(perUser) == 0 {
			delete(s.entries, userID)
		}
	}
	if len(removed) == 0 {
		return removed, nil
	}

	if err := s.saveLocked(); err != nil {
		s.restoreLocked(removed)
		return nil, err
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return removed, nil
}

// Restore reinserts entries removed by a cascade that later failed.
func (s *Service) Restore(entries []models.WatchProgress) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(entries)
	return s.saveLocked()
}

func (s *Service) restoreLocked(entries []models.WatchProgress) {
	for _, entry := range entries {
		perUser := s.entries[entry.UserID]
		if perUser == nil {
			perUser = make(map[string]models.WatchProgress)
			s.entries[entry.UserID] = perUser
		}
		perUser[entry.EpisodeID] = entry
	}
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decode progress: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := utils.WriteJSONAtomic(s.path, s.entries); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}
