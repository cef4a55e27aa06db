// Package discover computes the read-only aggregate views: series groupings,
// featured and trending shelves, and per-user completion state. Every view is
// a pure function of store snapshots; equal inputs over equal state always
// produce the same output.
package discover

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"anivault/models"
)

var (
	ErrSeriesNameRequired = fmt.Errorf("series name is required: %w", models.ErrValidation)
	ErrUserIDRequired     = fmt.Errorf("user id is required: %w", models.ErrValidation)
)

// TitleSource supplies catalog snapshots for derivations.
type TitleSource interface {
	SnapshotTitles() []models.Title
	ListEpisodesByTitle(titleID string) ([]models.Episode, error)
}

// ProgressSource supplies per-user and aggregate progress for derivations.
type ProgressSource interface {
	ListByUser(userID, titleID string) ([]models.WatchProgress, error)
	RecentActivity(since time.Time) map[string]int
}

// Options tune shelf sizes and cache behavior.
type Options struct {
	DefaultFeaturedLimit int
	DefaultTrendingLimit int
	TrendingWindow       time.Duration
	CacheTTL             time.Duration
}

type cachedShelf struct {
	titles    []models.Title
	expiresAt time.Time
}

// Service derives aggregate views over the entity stores.
type Service struct {
	titles   TitleSource
	progress ProgressSource
	opts     Options

	mu            sync.Mutex
	featuredCache map[int]cachedShelf
	trendingCache map[int]cachedShelf
}

// NewService creates a derivation service over the given sources.
func NewService(titles TitleSource, progress ProgressSource, opts Options) *Service {
	if opts.DefaultFeaturedLimit <= 0 {
		opts.DefaultFeaturedLimit = 6
	}
	if opts.DefaultTrendingLimit <= 0 {
		opts.DefaultTrendingLimit = 12
	}
	if opts.TrendingWindow <= 0 {
		opts.TrendingWindow = 7 * 24 * time.Hour
	}
	// CacheTTL zero disables shelf caching; views recompute on demand.

	return &Service{
		titles:        titles,
		progress:      progress,
		opts:          opts,
		featuredCache: make(map[int]cachedShelf),
		trendingCache: make(map[int]cachedShelf),
	}
}

// BySeries returns all titles sharing the series name, ascending by season
// number. The ordering is stable regardless of insertion order.
func (s *Service) BySeries(ctx context.Context, seriesName string) ([]models.Title, error) {
	seriesName = strings.TrimSpace(seriesName)
	if seriesName == "" {
		return nil, ErrSeriesNameRequired
	}

	matched := make([]models.Title, 0)
	for _, title := range s.titles.SnapshotTitles() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("series grouping: %w", models.ErrTimeout)
		}
		if title.SeriesName == seriesName {
			matched = append(matched, title)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SeasonNumber != matched[j].SeasonNumber {
			return matched[i].SeasonNumber < matched[j].SeasonNumber
		}
		return matched[i].ID < matched[j].ID
	})

	return matched, nil
}

// Featured returns the top titles by rating, ties broken by most recent
// creation, then ID.
func (s *Service) Featured(ctx context.Context, limit int) ([]models.Title, error) {
	if limit <= 0 {
		limit = s.opts.DefaultFeaturedLimit
	}

	if shelf, ok := s.cached(s.featuredCache, limit); ok {
		return shelf, nil
	}

	titles := s.titles.SnapshotTitles()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("featured: %w", models.ErrTimeout)
	}

	sort.Slice(titles, func(i, j int) bool {
		if titles[i].Rating != titles[j].Rating {
			return titles[i].Rating > titles[j].Rating
		}
		if !titles[i].CreatedAt.Equal(titles[j].CreatedAt) {
			return titles[i].CreatedAt.After(titles[j].CreatedAt)
		}
		return titles[i].ID < titles[j].ID
	})

	shelf := clampShelf(titles, limit)
	s.store(s.featuredCache, limit, shelf)
	return shelf, nil
}

// Trending returns titles ranked by recent watch activity weighted with
// rating, a policy distinct from Featured.
func (s *Service) Trending(ctx context.Context, limit int) ([]models.Title, error) {
	if limit <= 0 {
		limit = s.opts.DefaultTrendingLimit
	}

	if shelf, ok := s.cached(s.trendingCache, limit); ok {
		return shelf, nil
	}

	titles := s.titles.SnapshotTitles()
	activity := s.progress.RecentActivity(time.Now().Add(-s.opts.TrendingWindow))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("trending: %w", models.ErrTimeout)
	}

	score := func(t models.Title) float64 {
		return float64(activity[t.ID]) + t.Rating/10
	}

	sort.Slice(titles, func(i, j int) bool {
		si, sj := score(titles[i]), score(titles[j])
		if si != sj {
			return si > sj
		}
		if !titles[i].CreatedAt.Equal(titles[j].CreatedAt) {
			return titles[i].CreatedAt.After(titles[j].CreatedAt)
		}
		return titles[i].ID < titles[j].ID
	})

	shelf := clampShelf(titles, limit)
	s.store(s.trendingCache, limit, shelf)
	return shelf, nil
}

// Completion reports which of a title's episodes the user has watched and the
// watched/total ratio in [0,1].
func (s *Service) Completion(ctx context.Context, userID, titleID string) (models.CompletionState, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.CompletionState{}, ErrUserIDRequired
	}

	episodes, err := s.titles.ListEpisodesByTitle(titleID)
	if err != nil {
		return models.CompletionState{}, err
	}
	entries, err := s.progress.ListByUser(userID, strings.TrimSpace(titleID))
	if err != nil {
		return models.CompletionState{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.CompletionState{}, fmt.Errorf("completion: %w", models.ErrTimeout)
	}

	watched := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Watched {
			watched[entry.EpisodeID] = true
		}
	}

	state := models.CompletionState{
		TitleID:           strings.TrimSpace(titleID),
		UserID:            userID,
		WatchedEpisodeIDs: make([]string, 0, len(watched)),
		TotalEpisodes:     len(episodes),
	}
	// Only episodes that still exist count toward the ratio.
	for _, ep := range episodes {
		if watched[ep.ID] {
			state.WatchedEpisodeIDs = append(state.WatchedEpisodeIDs, ep.ID)
		}
	}
	sort.Strings(state.WatchedEpisodeIDs)
	state.WatchedCount = len(state.WatchedEpisodeIDs)
	if state.TotalEpisodes > 0 {
		state.Ratio = float64(state.WatchedCount) / float64(state.TotalEpisodes)
	}

	return state, nil
}

func (s *Service) cached(cache map[int]cachedShelf, limit int) ([]models.Title, bool) {
	if s.opts.CacheTTL <= 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shelf, ok := cache[limit]
	if !ok || time.Now().After(shelf.expiresAt) {
		return nil, false
	}
	return shelf.titles, true
}

func (s *Service) store(cache map[int]cachedShelf, limit int, titles []models.Title) {
	if s.opts.CacheTTL <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cache[limit] = cachedShelf{titles: titles, expiresAt: time.Now().Add(s.opts.CacheTTL)}
}

func clampShelf(titles []models.Title, limit int) []models.Title {
	if limit > len(titles) {
		limit = len(titles)
	}
	shelf := make([]models.Title, limit)
	copy(shelf, titles[:limit])
	return shelf
}
