// Package integrity is the relationship layer: it validates foreign keys
// before writes that link entities and runs cascade deletes across the
// stores. Cascades remove dependents first so a dangling reference is never
// observable, and roll the already-removed dependents back when a later step
// fails.
package integrity

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"anivault/models"
)

// Catalog is the slice of the title/episode store the relationship layer needs.
type Catalog interface {
	TitleExists(id string) bool
	GetEpisode(id string) (models.Episode, error)
	EpisodeOwner(episodeID string) (string, error)
	SetRating(id string, rating float64) error
	DeleteTitle(id string) (models.Title, []models.Episode, error)
	RestoreTitle(title models.Title, episodes []models.Episode) error
	DeleteEpisode(id string) (models.Episode, error)
	RestoreEpisode(episode models.Episode) error
}

// Profiles is the slice of the profile store the relationship layer needs.
type Profiles interface {
	Exists(id string) bool
	Delete(id string) (models.Profile, error)
	Restore(profile models.Profile) error
}

// Watchlist is the slice of the watchlist store the relationship layer needs.
type Watchlist interface {
	Add(userID, titleID string) (models.WatchlistEntry, error)
	Remove(userID, titleID string) (models.WatchlistEntry, error)
	RemoveByTitle(titleID string) ([]models.WatchlistEntry, error)
	RemoveByUser(userID string) ([]models.WatchlistEntry, error)
	Restore(entries []models.WatchlistEntry) error
}

// Progress is the slice of the progress store the relationship layer needs.
type Progress interface {
	Create(userID string, payload models.ProgressCreate) (models.WatchProgress, error)
	Remove(userID, episodeID string) (models.WatchProgress, error)
	RemoveByEpisode(episodeID string) ([]models.WatchProgress, error)
	RemoveByTitle(titleID string) ([]models.WatchProgress, error)
	RemoveByUser(userID string) ([]models.WatchProgress, error)
	Restore(entries []models.WatchProgress) error
}

// Reviews is the slice of the review store the relationship layer needs.
type Reviews interface {
	Create(userID string, payload models.ReviewCreate) (models.Review, error)
	Update(id string, payload models.ReviewUpdate) (models.Review, error)
	Delete(id string) (models.Review, error)
	RemoveByTitle(titleID string) ([]models.Review, error)
	RemoveByUser(userID string) ([]models.Review, error)
	Restore(entries []models.Review) error
	AverageRating(titleID string) float64
}

var (
	ErrProfileNotFound = fmt.Errorf("profile: %w", models.ErrNotFound)
	ErrTitleNotFound   = fmt.Errorf("title: %w", models.ErrNotFound)
)

// Service coordinates relationship rules across the entity stores.
type Service struct {
	catalog   Catalog
	profiles  Profiles
	watchlist Watchlist
	progress  Progress
	reviews   Reviews
	logger    *logrus.Logger
}

// NewService wires the relationship layer over the entity stores.
func NewService(catalog Catalog, profiles Profiles, watchlist Watchlist, progress Progress, reviews Reviews, logger *logrus.Logger) *Service {
	return &Service{
		catalog:   catalog,
		profiles:  profiles,
		watchlist: watchlist,
		progress:  progress,
		reviews:   reviews,
		logger:    logger,
	}
}

// AddToWatchlist validates both parents, inserts the entry, and re-checks the
// parents afterwards: a parent deleted concurrently means the cascade may have
// already swept past us, so the insert is undone.
func (s *Service) AddToWatchlist(userID, titleID string) (models.WatchlistEntry, error) {
	if !s.profiles.Exists(userID) {
		return models.WatchlistEntry{}, ErrProfileNotFound
	}
	if !s.catalog.TitleExists(titleID) {
		return models.WatchlistEntry{}, ErrTitleNotFound
	}

	entry, err := s.watchlist.Add(userID, titleID)
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	if !s.catalog.TitleExists(titleID) || !s.profiles.Exists(userID) {
		_, _ = s.watchlist.Remove(userID, titleID)
		return models.WatchlistEntry{}, fmt.Errorf("parent deleted during watchlist add: %w", models.ErrIntegrity)
	}

	return entry, nil
}

// CreateProgress validates the profile and episode, rewrites the denormalized
// title reference from the episode's actual owner, and inserts the entry.
func (s *Service) CreateProgress(userID string, payload models.ProgressCreate) (models.WatchProgress, error) {
	if !s.profiles.Exists(userID) {
		return models.WatchProgress{}, ErrProfileNotFound
	}
	owner, err := s.catalog.EpisodeOwner(payload.EpisodeID)
	if err != nil {
		return models.WatchProgress{}, err
	}
	// Never trust the caller's title_id; the episode link is authoritative.
	payload.TitleID = owner

	entry, err := s.progress.Create(userID, payload)
	if err != nil {
		return models.WatchProgress{}, err
	}

	if _, err := s.catalog.GetEpisode(payload.EpisodeID); err != nil || !s.profiles.Exists(userID) {
		_, _ = s.progress.Remove(userID, payload.EpisodeID)
		return models.WatchProgress{}, fmt.Errorf("parent deleted during progress create: %w", models.ErrIntegrity)
	}

	return entry, nil
}

// CreateReview validates both parents, inserts the review, and refreshes the
// title's derived rating.
func (s *Service) CreateReview(userID string, payload models.ReviewCreate) (models.Review, error) {
	if !s.profiles.Exists(userID) {
		return models.Review{}, ErrProfileNotFound
	}
	if !s.catalog.TitleExists(payload.TitleID) {
		return models.Review{}, ErrTitleNotFound
	}

	review, err := s.reviews.Create(userID, payload)
	if err != nil {
		return models.Review{}, err
	}

	if !s.catalog.TitleExists(payload.TitleID) || !s.profiles.Exists(userID) {
		_, _ = s.reviews.Delete(review.ID)
		return models.Review{}, fmt.Errorf("parent deleted during review create: %w", models.ErrIntegrity)
	}

	s.refreshRating(review.TitleID)
	return review, nil
}

// UpdateReview edits a review and refreshes the title's derived rating.
func (s *Service) UpdateReview(id string, payload models.ReviewUpdate) (models.Review, error) {
	review, err := s.reviews.Update(id, payload)
	if err != nil {
		return models.Review{}, err
	}
	s.refreshRating(review.TitleID)
	return review, nil
}

// DeleteReview removes a review and refreshes the title's derived rating.
func (s *Service) DeleteReview(id string) error {
	review, err := s.reviews.Delete(id)
	if err != nil {
		return err
	}
	s.refreshRating(review.TitleID)
	return nil
}

// DeleteTitle removes a title, its episodes, and every record referencing
// either, as one logical operation.
func (s *Service) DeleteTitle(id string) error {
	if !s.catalog.TitleExists(id) {
		return ErrTitleNotFound
	}

	removedProgress, err := s.progress.RemoveByTitle(id)
	if err != nil {
		return fmt.Errorf("title cascade (progress): %w: %w", models.ErrIntegrity, err)
	}

	removedWatchlist, err := s.watchlist.RemoveByTitle(id)
	if err != nil {
		s.undoProgress(removedProgress)
		return fmt.Errorf("title cascade (watchlist): %w: %w", models.ErrIntegrity, err)
	}

	removedReviews, err := s.reviews.RemoveByTitle(id)
	if err != nil {
		s.undoWatchlist(removedWatchlist)
		s.undoProgress(removedProgress)
		return fmt.Errorf("title cascade (reviews): %w: %w", models.ErrIntegrity, err)
	}

	if _, _, err := s.catalog.DeleteTitle(id); err != nil {
		s.undoReviews(removedReviews)
		s.undoWatchlist(removedWatchlist)
		s.undoProgress(removedProgress)
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("title cascade (catalog): %w: %w", models.ErrIntegrity, err)
	}

	// Close the window against writers that saw the title alive before the
	// catalog removal landed.
	s.sweepTitle(id)

	s.logger.WithFields(logrus.Fields{
		"title_id":  id,
		"progress":  len(removedProgress),
		"watchlist": len(removedWatchlist),
		"reviews":   len(removedReviews),
	}).Info("Title cascade delete complete")

	return nil
}

// DeleteProfile removes a profile and every record the user created.
func (s *Service) DeleteProfile(id string) error {
	if !s.profiles.Exists(id) {
		return ErrProfileNotFound
	}

	removedProgress, err := s.progress.RemoveByUser(id)
	if err != nil {
		return fmt.Errorf("profile cascade (progress): %w: %w", models.ErrIntegrity, err)
	}

	removedWatchlist, err := s.watchlist.RemoveByUser(id)
	if err != nil {
		s.undoProgress(removedProgress)
		return fmt.Errorf("profile cascade (watchlist): %w: %w", models.ErrIntegrity, err)
	}

	removedReviews, err := s.reviews.RemoveByUser(id)
	if err != nil {
		s.undoWatchlist(removedWatchlist)
		s.undoProgress(removedProgress)
		return fmt.Errorf("profile cascade (reviews): %w: %w", models.ErrIntegrity, err)
	}

	if _, err := s.profiles.Delete(id); err != nil {
		s.undoReviews(removedReviews)
		s.undoWatchlist(removedWatchlist)
		s.undoProgress(removedProgress)
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("profile cascade (profiles): %w: %w", models.ErrIntegrity, err)
	}

	s.sweepUser(id)

	for _, review := range removedReviews {
		s.refreshRating(review.TitleID)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   id,
		"progress":  len(removedProgress),
		"watchlist": len(removedWatchlist),
		"reviews":   len(removedReviews),
	}).Info("Profile cascade delete complete")

	return nil
}

// DeleteEpisode removes an episode and the progress entries referencing it.
func (s *Service) DeleteEpisode(id string) error {
	if _, err := s.catalog.GetEpisode(id); err != nil {
		return err
	}

	removedProgress, err := s.progress.RemoveByEpisode(id)
	if err != nil {
		return fmt.Errorf("episode cascade (progress): %w: %w", models.ErrIntegrity, err)
	}

	if _, err := s.catalog.DeleteEpisode(id); err != nil {
		s.undoProgress(removedProgress)
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("episode cascade (catalog): %w: %w", models.ErrIntegrity, err)
	}

	_, _ = s.progress.RemoveByEpisode(id)

	s.logger.WithFields(logrus.Fields{
		"episode_id": id,
		"progress":   len(removedProgress),
	}).Info("Episode cascade delete complete")

	return nil
}

func (s *Service) refreshRating(titleID string) {
	if err := s.catalog.SetRating(titleID, s.reviews.AverageRating(titleID)); err != nil {
		s.logger.WithError(err).WithField("title_id", titleID).Warn("Failed to refresh title rating")
	}
}

func (s *Service) sweepTitle(id string) {
	_, _ = s.progress.RemoveByTitle(id)
	_, _ = s.watchlist.RemoveByTitle(id)
	_, _ = s.reviews.RemoveByTitle(id)
}

func (s *Service) sweepUser(id string) {
	_, _ = s.progress.RemoveByUser(id)
	_, _ = s.watchlist.RemoveByUser(id)
	_, _ = s.reviews.RemoveByUser(id)
}

func (s *Service) undoProgress(entries []models.WatchProgress) {
	if err := s.progress.Restore(entries); err != nil {
		s.logger.WithError(err).Error("Failed to roll back progress cascade")
	}
}

func (s *Service) undoWatchlist(entries []models.WatchlistEntry) {
	if err := s.watchlist.Restore(entries); err != nil {
		s.logger.WithError(err).Error("Failed to roll back watchlist cascade")
	}
}

func (s *Service) undoReviews(entries []models.Review) {
	if err := s.reviews.Restore(entries); err != nil {
		s.logger.WithError(err).Error("Failed to roll back review cascade")
	}
}
