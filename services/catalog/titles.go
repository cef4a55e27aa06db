package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"anivault/models"
)

// CreateTitle validates and stores a new title. The (series_name, season_number)
// pair is checked and inserted under one lock.
func (s *Service) CreateTitle(payload models.TitleCreate) (models.Title, error) {
	title := models.Title{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(payload.Title),
		Description:     payload.Description,
		ThumbnailURL:    payload.ThumbnailURL,
		BannerURL:       payload.BannerURL,
		Genres:          normalizeSet(payload.Genres),
		Languages:       normalizeSet(payload.Languages),
		Season:          payload.Season,
		ReleaseYear:     payload.ReleaseYear,
		Status:          payload.Status,
		TotalEpisodes:   payload.TotalEpisodes,
		NextEpisodeDate: payload.NextEpisodeDate,
		SeriesName:      strings.TrimSpace(payload.SeriesName),
		SeasonNumber:    payload.SeasonNumber,
		ContentType:     payload.ContentType,
		CreatedAt:       time.Now().UTC(),
	}

	if title.Status == "" {
		title.Status = models.StatusOngoing
	}
	if title.ContentType == "" {
		title.ContentType = models.ContentTypeAnime
	}
	if title.SeasonNumber == 0 {
		title.SeasonNumber = 1
	}
	if title.Genres == nil {
		title.Genres = []string{}
	}

	if err := validateTitle(title); err != nil {
		return models.Title{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seasonTakenLocked(title.SeriesName, title.SeasonNumber, "") {
		return models.Title{}, ErrSeasonTaken
	}

	s.titles[title.ID] = title
	if err := s.saveTitlesLocked(); err != nil {
		delete(s.titles, title.ID)
		return models.Title{}, err
	}

	return title, nil
}

// GetTitle returns the stored title or ErrTitleNotFound.
func (s *Service) GetTitle(id string) (models.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	title, ok := s.titles[strings.TrimSpace(id)]
	if !ok {
		return models.Title{}, ErrTitleNotFound
	}
	return title, nil
}

// TitleExists reports whether a title with the given ID is stored.
func (s *Service) TitleExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.titles[strings.TrimSpace(id)]
	return ok
}

// UpdateTitle applies a partial update. Re-applying the same payload yields the
// same record.
func (s *Service) UpdateTitle(id string, payload models.TitleUpdate) (models.Title, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	title, ok := s.titles[id]
	if !ok {
		return models.Title{}, ErrTitleNotFound
	}
	prev := title

	if payload.Title != nil {
		title.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		title.Description = *payload.Description
	}
	if payload.ThumbnailURL != nil {
		title.ThumbnailURL = *payload.ThumbnailURL
	}
	if payload.BannerURL != nil {
		title.BannerURL = *payload.BannerURL
	}
	if payload.Genres != nil {
		title.Genres = normalizeSet(payload.Genres)
		if title.Genres == nil {
			title.Genres = []string{}
		}
	}
	if payload.Languages != nil {
		title.Languages = normalizeSet(payload.Languages)
	}
	if payload.Season != nil {
		title.Season = *payload.Season
	}
	if payload.ReleaseYear != nil {
		title.ReleaseYear = *payload.ReleaseYear
	}
	if payload.Status != nil {
		title.Status = *payload.Status
	}
	if payload.TotalEpisodes != nil {
		title.TotalEpisodes = *payload.TotalEpisodes
	}
	if payload.NextEpisodeDate != nil {
		title.NextEpisodeDate = payload.NextEpisodeDate
	}
	if payload.SeriesName != nil {
		title.SeriesName = strings.TrimSpace(*payload.SeriesName)
	}
	if payload.SeasonNumber != nil {
		title.SeasonNumber = *payload.SeasonNumber
	}
	if payload.ContentType != nil {
		title.ContentType = *payload.ContentType
	}

	if err := validateTitle(title); err != nil {
		return models.Title{}, err
	}
	if s.seasonTakenLocked(title.SeriesName, title.SeasonNumber, id) {
		return models.Title{}, ErrSeasonTaken
	}

	s.titles[id] = title
	if err := s.saveTitlesLocked(); err != nil {
		s.titles[id] = prev
		return models.Title{}, err
	}

	return title, nil
}

// SetRating stores the derived review average on the title. A missing title is
// not an error here; the review cascade may have already removed it.
func (s *Service) SetRating(id string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title, ok := s.titles[strings.TrimSpace(id)]
	if !ok {
		return nil
	}
	if title.Rating == rating {
		return nil
	}
	prev := title
	title.Rating = rating
	s.titles[title.ID] = title
	if err := s.saveTitlesLocked(); err != nil {
		s.titles[title.ID] = prev
		return err
	}
	return nil
}

// DeleteTitle removes the title and all of its episodes in one locked
// operation and returns the removed records so a failed cascade can be undone.
func (s *Service) DeleteTitle(id string) (models.Title, []models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	title, ok := s.titles[id]
	if !ok {
		return models.Title{}, nil, ErrTitleNotFound
	}

	removed := make([]models.Episode, 0)
	for epID, ep := range s.episodes {
		if ep.TitleID == id {
			removed = append(removed, ep)
			delete(s.episodes, epID)
		}
	}
	delete(s.titles, id)

	if err := s.saveEpisodesLocked(); err != nil {
		s.restoreLocked(title, removed)
		return models.Title{}, nil, err
	}
	if err := s.saveTitlesLocked(); err != nil {
		s.restoreLocked(title, removed)
		// episodes.json was already rewritten without the removed episodes;
		// bring it back in line with the restored in-memory state.
		_ = s.saveEpisodesLocked()
		return models.Title{}, nil, err
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return title, removed, nil
}

// RestoreTitle reinserts a title and its episodes removed by DeleteTitle.
func (s *Service) RestoreTitle(title models.Title, episodes []models.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoreLocked(title, episodes)
	if err := s.saveTitlesLocked(); err != nil {
		return err
	}
	return s.saveEpisodesLocked()
}

func (s *Service) restoreLocked(title models.Title, episodes []models.Episode) {
	s.titles[title.ID] = title
	for _, ep := range episodes {
		s.episodes[ep.ID] = ep
	}
}

// ListTitles returns titles matching all set filters, newest first.
func (s *Service) ListTitles(ctx context.Context, filters models.TitleFilters) ([]models.Title, error) {
	titles := s.SnapshotTitles()

	matched := make([]models.Title, 0, len(titles))
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list titles: %w", models.ErrTimeout)
		}
		if matchesFilters(title, filters) {
			matched = append(matched, title)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filters.Limit, filters.Offset), nil
}

// SnapshotTitles copies all titles under the read lock for derivations.
func (s *Service) SnapshotTitles() []models.Title {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]models.Title, 0, len(s.titles))
	for _, title := range s.titles {
		titles = append(titles, title)
	}
	return titles
}

func (s *Service) seasonTakenLocked(seriesName string, seasonNumber int, excludeID string) bool {
	for id, existing := range s.titles {
		if id == excludeID {
			continue
		}
		if existing.SeriesName == seriesName && existing.SeasonNumber == seasonNumber {
			return true
		}
	}
	return false
}

func validateTitle(title models.Title) error {
	if title.Title == "" {
		return ErrNameRequired
	}
	if title.SeriesName == "" {
		return ErrSeriesNameRequired
	}
	if title.SeasonNumber < 1 {
		return ErrBadSeasonNumber
	}
	if title.TotalEpisodes < 0 {
		return ErrBadTotalEpisodes
	}
	switch title.Status {
	case models.StatusOngoing, models.StatusCompleted:
	default:
		return ErrBadStatus
	}
	switch title.ContentType {
	case models.ContentTypeAnime, models.ContentTypeCartoon:
	default:
		return ErrBadContentType
	}
	return nil
}

func normalizeSet(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func matchesFilters(title models.Title, filters models.TitleFilters) bool {
	if filters.Season != "" && !strings.EqualFold(title.Season, filters.Season) {
		return false
	}
	if filters.Year != 0 && title.ReleaseYear != filters.Year {
		return false
	}
	if filters.Status != "" && title.Status != filters.Status {
		return false
	}
	if filters.ContentType != "" && title.ContentType != filters.ContentType {
		return false
	}
	for _, genre := range filters.Genres {
		if !containsFold(title.Genres, genre) {
			return false
		}
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(title.Title), needle) &&
			!strings.Contains(strings.ToLower(title.Description), needle) {
			return false
		}
	}
	return true
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func paginate(titles []models.Title, limit, offset int) []models.Title {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(titles) {
		return []models.Title{}
	}
	end := offset + limit
	if end > len(titles) {
		end = len(titles)
	}
	return titles[offset:end]
}
