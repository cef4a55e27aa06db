package profiles

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

	ErrProfileNotFound = fmt.Errorf("profile: %w", models.ErrNotFound)
	ErrProfileExists   = fmt.Errorf("profile: %w", models.ErrConflict)
	ErrBadRole         = fmt.Errorf("role must be user or admin: %w", models.ErrValidation)
)

// DefaultAdminUsername is used when creating the initial admin profile.
const DefaultAdminUsername = "admin"

// Service manages persistence of user profiles. One profile exists per
// authenticated identity; the identity system may supply the profile ID.
type Service struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]models.Profile
}

// NewService creates a profiles service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "profiles.json"),
		profiles: make(map[string]models.Profile),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	if err := svc.ensureDefaultAdmin(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns all profiles sorted by creation time, then ID.
func (s *Service) List() []models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].ID < profiles[j].ID
		}
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})

	return profiles
}

// Get returns the profile with the given ID.
func (s *Service) Get(id string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[strings.TrimSpace(id)]
	if !ok {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

// Exists reports whether a profile with the provided ID is registered.
func (s *Service) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profiles[strings.TrimSpace(id)]
	return ok
}

// Role resolves the role for an identity. Unknown identities act as plain users.
func (s *Service) Role(id string) models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if profile, ok := s.profiles[strings.TrimSpace(id)]; ok {
		return profile.Role
	}
	return models.RoleUser
}

// Create registers a new profile. When the payload carries an ID (supplied by
// the identity system) a second create for the same identity fails with a
// conflict.
func (s *Service) Create(payload models.ProfileCreate) (models.Profile, error) {
	profile := models.Profile{
		ID:        strings.TrimSpace(payload.ID),
		Email:     strings.TrimSpace(payload.Email),
		Username:  strings.TrimSpace(payload.Username),
		AvatarURL: payload.AvatarURL,
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.ID]; exists {
		return models.Profile{}, ErrProfileExists
	}

	s.profiles[profile.ID] = profile
	if err := s.saveLocked(); err != nil {
		delete(s.profiles, profile.ID)
		return models.Profile{}, err
	}

	return profile, nil
}

// Update applies a partial update to the self-serviceable fields.
func (s *Service) Update(id string, payload models.ProfileUpdate) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, ErrProfileNotFound
	}
	prev := profile

	if payload.Email != nil {
		profile.Email = strings.TrimSpace(*payload.Email)
	}
	if payload.Username != nil {
		profile.Username = strings.TrimSpace(*payload.Username)
	}
	if payload.AvatarURL != nil {
		profile.AvatarURL = *payload.AvatarURL
	}

	s.profiles[id] = profile
	if err := s.saveLocked(); err != nil {
		s.profiles[id] = prev
		return models.Profile{}, err
	}

	return profile, nil
}

// UpdateRole sets the profile's role. Authorization happens at the façade; the
// store only validates the value.
func (s *Service) UpdateRole(id string, role models.Role) (models.Profile, error) {
	switch role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return models.Profile{}, ErrBadRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, ErrProfileNotFound
	}
	if profile.Role == role {
		return profile, nil
	}
	prev := profile

	profile.Role = role
	s.profiles[id] = profile
	if err := s.saveLocked(); err != nil {
		s.profiles[id] = prev
		return models.Profile{}, err
	}

	return profile, nil
}

// Delete removes a profile and returns it so a failed cascade can be undone.
func (s *Service) Delete(id string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, ErrProfileNotFound
	}

	delete(s.profiles, id)
	if err := s.saveLocked(); err != nil {
		s.profiles[id] = profile
		return models.Profile{}, err
	}

	return profile, nil
}

// Restore reinserts a profile removed by Delete.
func (s *Service) Restore(profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.ID] = profile
	return s.saveLocked()
}

func (s *Service) ensureDefaultAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.Role == models.RoleAdmin {
			return nil
		}
	}
	if len(s.profiles) > 0 {
		return nil
	}

	admin := models.Profile{
		ID:        uuid.NewString(),
		Username:  DefaultAdminUsername,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	s.profiles[admin.ID] = admin
	if err := s.saveLocked(); err != nil {
		delete(s.profiles, admin.ID)
		return err
	}
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.profiles); err != nil {
		return fmt.Errorf("decode profiles: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := utils.WriteJSONAtomic(s.path, s.profiles); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}
