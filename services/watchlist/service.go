package watchlist

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

	ErrUserIDRequired  = fmt.Errorf("user id is required: %w", models.ErrValidation)
	ErrTitleIDRequired = fmt.Errorf("title_id is required: %w", models.ErrValidation)
	ErrEntryNotFound   = fmt.Errorf("watchlist entry: %w", models.ErrNotFound)
	ErrEntryExists     = fmt.Errorf("title already on watchlist: %w", models.ErrConflict)
)

// Service manages persistence of per-user watchlist entries, keyed by user
// then title so the (user_id, title_id) pair is unique by construction.
type Service struct {
	mu      sync.RWMutex
	path    string
	entries map[string]map[string]models.WatchlistEntry
}

// NewService creates a watchlist service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}

	svc := &Service{
		path:    filepath.Join(storageDir, "watchlist.json"),
		entries: make(map[string]map[string]models.WatchlistEntry),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Add inserts a new entry. A second add for the same (user, title) pair fails
// with a conflict; the check and insert happen under one lock.
func (s *Service) Add(userID, titleID string) (models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	titleID = strings.TrimSpace(titleID)
	if userID == "" {
		return models.WatchlistEntry{}, ErrUserIDRequired
	}
	if titleID == "" {
		return models.WatchlistEntry{}, ErrTitleIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.entries[userID]
	if perUser == nil {
		perUser = make(map[string]models.WatchlistEntry)
		s.entries[userID] = perUser
	}
	if _, exists := perUser[titleID]; exists {
		return models.WatchlistEntry{}, ErrEntryExists
	}

	entry := models.WatchlistEntry{
		ID:      uuid.NewString(),
		UserID:  userID,
		TitleID: titleID,
		AddedAt: time.Now().UTC(),
	}
	perUser[titleID] = entry

	if err := s.saveLocked(); err != nil {
		delete(perUser, titleID)
		return models.WatchlistEntry{}, err
	}

	return entry, nil
}

// List returns a user's entries, most recently added first.
func (s *Service) List(userID string) ([]models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.WatchlistEntry, 0, len(s.entries[userID]))
	for _, entry := range s.entries[userID] {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].AddedAt.After(entries[j].AddedAt)
	})

	return entries, nil
}

// Get returns the entry for (user, title) if present.
func (s *Service) Get(userID, titleID string) (models.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[strings.TrimSpace(userID)][strings.TrimSpace(titleID)]
	if !ok {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

// Contains reports whether the title is on the user's watchlist.
func (s *Service) Contains(userID, titleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[strings.TrimSpace(userID)][strings.TrimSpace(titleID)]
	return ok
}

// Remove deletes the entry for (user, title) and returns it.
func (s *Service) Remove(userID, titleID string) (models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	titleID = strings.TrimSpace(titleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID][titleID]
	if !ok {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}

	delete(s.entries[userID], titleID)
	if err := s.saveLocked(); err != nil {
		s.entries[userID][titleID] = entry
		return models.WatchlistEntry{}, err
	}

	return entry, nil
}

// RemoveByTitle deletes every user's entry for the title and returns the
// removed records for cascade rollback.
func (s *Service) RemoveByTitle(titleID string) ([]models.WatchlistEntry, error) {
	titleID = strings.TrimSpace(titleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]models.WatchlistEntry, 0)
	for userID, perUser := range s.entries {
		if entry, ok := perUser[titleID]; ok {
			removed = append(removed, entry)
			delete(perUser, titleID)
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

	sortRemoved(removed)
	return removed, nil
}

// RemoveByUser deletes all of a user's entries and returns the removed records
// for cascade rollback.
func (s *Service) RemoveByUser(userID string) ([]models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]models.WatchlistEntry, 0, len(s.entries[userID]))
	for _, entry := range s.entries[userID] {
		removed = append(removed, entry)
	}
	delete(s.entries, userID)
	if len(removed) == 0 {
		return removed, nil
	}

	if err := s.saveLocked(); err != nil {
		s.restoreLocked(removed)
		return nil, err
	}

	sortRemoved(removed)
	return removed, nil
}

// Restore reinserts entries removed by a cascade that later failed.
func (s *Service) Restore(entries []models.WatchlistEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(entries)
	return s.saveLocked()
}

func (s *Service) restoreLocked(entries []models.WatchlistEntry) {
	for _, entry := range entries {
		perUser := s.entries[entry.UserID]
		if perUser == nil {
			perUser = make(map[string]models.WatchlistEntry)
			s.entries[entry.UserID] = perUser
		}
		perUser[entry.TitleID] = entry
	}
}

func sortRemoved(entries []models.WatchlistEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decode watchlist: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := utils.WriteJSONAtomic(s.path, s.entries); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}
