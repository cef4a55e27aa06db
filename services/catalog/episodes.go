package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"anivault/models"
)

// CreateEpisode validates and stores a new episode. The owning title must
// exist and the (title_id, season_number, episode_number) triple is checked
// and inserted under one lock.
func (s *Service) CreateEpisode(payload models.EpisodeCreate) (models.Episode, error) {
	episode := models.Episode{
		ID:            uuid.NewString(),
		TitleID:       strings.TrimSpace(payload.TitleID),
		EpisodeNumber: payload.EpisodeNumber,
		SeasonNumber:  payload.SeasonNumber,
		Title:         payload.Title,
		Description:   payload.Description,
		VideoURL:      strings.TrimSpace(payload.VideoURL),
		Duration:      payload.Duration,
		ThumbnailURL:  payload.ThumbnailURL,
		CreatedAt:     time.Now().UTC(),
	}
	if episode.SeasonNumber == 0 {
		episode.SeasonNumber = 1
	}

	if err := validateEpisode(episode); err != nil {
		return models.Episode{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[episode.TitleID]; !ok {
		return models.Episode{}, ErrTitleNotFound
	}
	if s.episodeTakenLocked(episode.TitleID, episode.SeasonNumber, episode.EpisodeNumber, "") {
		return models.Episode{}, ErrEpisodeTaken
	}

	s.episodes[episode.ID] = episode
	if err := s.saveEpisodesLocked(); err != nil {
		delete(s.episodes, episode.ID)
		return models.Episode{}, err
	}

	return episode, nil
}

// GetEpisode returns the stored episode or ErrEpisodeNotFound.
func (s *Service) GetEpisode(id string) (models.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episode, ok := s.episodes[strings.TrimSpace(id)]
	if !ok {
		return models.Episode{}, ErrEpisodeNotFound
	}
	return episode, nil
}

// EpisodeOwner resolves the title owning the episode. The integrity layer uses
// it to keep denormalized title references honest.
func (s *Service) EpisodeOwner(episodeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episode, ok := s.episodes[strings.TrimSpace(episodeID)]
	if !ok {
		return "", ErrEpisodeNotFound
	}
	return episode.TitleID, nil
}

// UpdateEpisode applies a partial update. Re-applying the same payload yields
// the same record.
func (s *Service) UpdateEpisode(id string, payload models.EpisodeUpdate) (models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	episode, ok := s.episodes[id]
	if !ok {
		return models.Episode{}, ErrEpisodeNotFound
	}
	prev := episode

	if payload.EpisodeNumber != nil {
		episode.EpisodeNumber = *payload.EpisodeNumber
	}
	if payload.SeasonNumber != nil {
		episode.SeasonNumber = *payload.SeasonNumber
	}
	if payload.Title != nil {
		episode.Title = *payload.Title
	}
	if payload.Description != nil {
		episode.Description = *payload.Description
	}
	if payload.VideoURL != nil {
		episode.VideoURL = strings.TrimSpace(*payload.VideoURL)
	}
	if payload.Duration != nil {
		episode.Duration = *payload.Duration
	}
	if payload.ThumbnailURL != nil {
		episode.ThumbnailURL = *payload.ThumbnailURL
	}

	if err := validateEpisode(episode); err != nil {
		return models.Episode{}, err
	}
	if s.episodeTakenLocked(episode.TitleID, episode.SeasonNumber, episode.EpisodeNumber, id) {
		return models.Episode{}, ErrEpisodeTaken
	}

	s.episodes[id] = episode
	if err := s.saveEpisodesLocked(); err != nil {
		s.episodes[id] = prev
		return models.Episode{}, err
	}

	return episode, nil
}

// DeleteEpisode removes one episode and returns it so a failed cascade can be
// undone.
func (s *Service) DeleteEpisode(id string) (models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	episode, ok := s.episodes[id]
	if !ok {
		return models.Episode{}, ErrEpisodeNotFound
	}

	delete(s.episodes, id)
	if err := s.saveEpisodesLocked(); err != nil {
		s.episodes[id] = episode
		return models.Episode{}, err
	}

	return episode, nil
}

// RestoreEpisode reinserts an episode removed by DeleteEpisode.
func (s *Service) RestoreEpisode(episode models.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.episodes[episode.ID] = episode
	return s.saveEpisodesLocked()
}

// ListEpisodesByTitle returns a title's episodes ordered by season then
// episode number.
func (s *Service) ListEpisodesByTitle(titleID string) ([]models.Episode, error) {
	titleID = strings.TrimSpace(titleID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.titles[titleID]; !ok {
		return nil, ErrTitleNotFound
	}

	episodes := make([]models.Episode, 0)
	for _, ep := range s.episodes {
		if ep.TitleID == titleID {
			episodes = append(episodes, ep)
		}
	}

	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].SeasonNumber != episodes[j].SeasonNumber {
			return episodes[i].SeasonNumber < episodes[j].SeasonNumber
		}
		if episodes[i].EpisodeNumber != episodes[j].EpisodeNumber {
			return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
		}
		return episodes[i].ID < episodes[j].ID
	})

	return episodes, nil
}

// EpisodeIDsForTitle returns the IDs of all episodes owned by the title.
func (s *Service) EpisodeIDsForTitle(titleID string) []string {
	titleID = strings.TrimSpace(titleID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, ep := range s.episodes {
		if ep.TitleID == titleID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) episodeTakenLocked(titleID string, season, number int, excludeID string) bool {
	for id, existing := range s.episodes {
		if id == excludeID {
			continue
		}
		if existing.TitleID == titleID && existing.SeasonNumber == season && existing.EpisodeNumber == number {
			return true
		}
	}
	return false
}

func validateEpisode(episode models.Episode) error {
	if episode.TitleID == "" {
		return ErrTitleIDRequired
	}
	if episode.VideoURL == "" {
		return ErrVideoURLRequired
	}
	if episode.EpisodeNumber < 1 {
		return ErrBadEpisodeNumber
	}
	if episode.SeasonNumber < 1 {
		return ErrBadSeasonNumber
	}
	return nil
}
