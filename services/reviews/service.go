package reviews

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
	ErrBadRating       = fmt.Errorf("rating must be between 1 and 10: %w", models.ErrValidation)
	ErrReviewNotFound  = fmt.Errorf("review: %w", models.ErrNotFound)
	ErrReviewExists    = fmt.Errorf("title already reviewed by user: %w", models.ErrConflict)
)

// Service manages persistence of reviews, keyed by user then title so the
// (user_id, title_id) pair is unique by construction.
type Service struct {
	mu      sync.RWMutex
	path    string
	reviews map[string]map[string]models.Review
}

// NewService creates a reviews service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reviews dir: %w", err)
	}

	svc := &Service{
		path:    filepath.Join(storageDir, "reviews.json"),
		reviews: make(map[string]map[string]models.Review),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Create inserts a new review. A rating outside the allowed bound fails before
// anything is stored; a second review for the same (user, title) pair fails
// with a conflict.
func (s *Service) Create(userID string, payload models.ReviewCreate) (models.Review, error) {
	userID = strings.TrimSpace(userID)
	titleID := strings.TrimSpace(payload.TitleID)
	if userID == "" {
		return models.Review{}, ErrUserIDRequired
	}
	if titleID == "" {
		return models.Review{}, ErrTitleIDRequired
	}
	if payload.Rating < models.ReviewRatingMin || payload.Rating > models.ReviewRatingMax {
		return models.Review{}, ErrBadRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.reviews[userID]
	if perUser == nil {
		perUser = make(map[string]models.Review)
		s.reviews[userID] = perUser
	}
	if _, exists := perUser[titleID]; exists {
		return models.Review{}, ErrReviewExists
	}

	now := time.Now().UTC()
	review := models.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		TitleID:   titleID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	perUser[titleID] = review

	if err := s.saveLocked(); err != nil {
		delete(perUser, titleID)
		return models.Review{}, err
	}

	return review, nil
}

// GetByID returns the review with the given ID.
func (s *Service) GetByID(id string) (models.Review, error) {
	id = strings.TrimSpace(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, perUser := range s.reviews {
		for _, review := range perUser {
			if review.ID == id {
				return review, nil
			}
		}
	}
	return models.Review{}, ErrReviewNotFound
}

// GetUserReview returns the user's review of the title if present.
func (s *Service) GetUserReview(userID, titleID string) (models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.reviews[strings.TrimSpace(userID)][strings.TrimSpace(titleID)]
	if !ok {
		return models.Review{}, ErrReviewNotFound
	}
	return review, nil
}

// ListByTitle returns all reviews of a title, newest first.
func (s *Service) ListByTitle(titleID string) ([]models.Review, error) {
	titleID = strings.TrimSpace(titleID)
	if titleID == "" {
		return nil, ErrTitleIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := make([]models.Review, 0)
	for _, perUser := range s.reviews {
		if review, ok := perUser[titleID]; ok {
			reviews = append(reviews, review)
		}
	}

	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID < reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})

	return reviews, nil
}

// Update applies a partial update to a review and bumps UpdatedAt. Re-applying
// the same payload leaves the record equal apart from that timestamp.
func (s *Service) Update(id string, payload models.ReviewUpdate) (models.Review, error) {
	if payload.Rating != nil && (*payload.Rating < models.ReviewRatingMin || *payload.Rating > models.ReviewRatingMax) {
		return models.Review{}, ErrBadRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.findByIDLocked(id)
	if !ok {
		return models.Review{}, ErrReviewNotFound
	}
	prev := review

	if payload.Rating != nil {
		review.Rating = *payload.Rating
	}
	if payload.Comment != nil {
		review.Comment = *payload.Comment
	}
	review.UpdatedAt = time.Now().UTC()

	s.reviews[review.UserID][review.TitleID] = review
	if err := s.saveLocked(); err != nil {
		s.reviews[review.UserID][review.TitleID] = prev
		return models.Review{}, err
	}

	return review, nil
}

// Delete removes a review by ID and returns it.
func (s *Service) Delete(id string) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.findByIDLocked(id)
	if !ok {
		return models.Review{}, ErrReviewNotFound
	}

	delete(s.reviews[review.UserID], review.TitleID)
	if len(s.reviews[review.UserID]) == 0 {
		delete(s.reviews, review.UserID)
	}

	if err := s.saveLocked(); err != nil {
		s.restoreLocked([]models.Review{review})
		return models.Review{}, err
	}

	return review, nil
}

// AverageRating returns the mean review rating for the title, 0 when it has
// no reviews.
func (s *Service) AverageRating(titleID string) float64 {
	titleID = strings.TrimSpace(titleID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, count := 0, 0
	for _, perUser := range s.reviews {
		if review, ok := perUser[titleID]; ok {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// RemoveByTitle deletes every user's review of the title and returns the
// removed records for cascade rollback.
func (s *Service) RemoveByTitle(titleID string) ([]models.Review, error) {
	titleID = strings.TrimSpace(titleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]models.Review, 0)
	for userID, perUser := range s.reviews {
		if review, ok := perUser[titleID]; ok {
			removed = append(removed, review)
			delete(perUser, titleID)
		}
		if len(perUser) == 0 {
			delete(s.reviews, userID)
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

// RemoveByUser deletes all of a user's reviews and returns the removed records
// for cascade rollback.
func (s *Service) RemoveByUser(userID string) ([]models.Review, error) {
	userID = strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]models.Review, 0, len(s.reviews[userID]))
	for _, review := range s.reviews[userID] {
		removed = append(removed, review)
	}
	delete(s.reviews, userID)
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

// Restore reinserts reviews removed by a cascade that later failed.
func (s *Service) Restore(entries []models.Review) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(entries)
	return s.saveLocked()
}

func (s *Service) restoreLocked(entries []models.Review) {
	for _, review := range entries {
		perUser := s.reviews[review.UserID]
		if perUser == nil {
			perUser = make(map[string]models.Review)
			s.reviews[review.UserID] = perUser
		}
		perUser[review.TitleID] = review
	}
}

func (s *Service) findByIDLocked(id string) (models.Review, bool) {
	id = strings.TrimSpace(id)
	for _, perUser := range s.reviews {
		for _, review := range perUser {
			if review.ID == id {
				return review, true
			}
		}
	}
	return models.Review{}, false
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read reviews: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.reviews); err != nil {
		return fmt.Errorf("decode reviews: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := utils.WriteJSONAtomic(s.path, s.reviews); err != nil {
		return fmt.Errorf("write reviews: %w", err)
	}
	return nil
}
