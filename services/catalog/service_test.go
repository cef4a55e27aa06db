package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"anivault/models"
	"anivault/services/catalog"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func createTitle(t *testing.T, svc *catalog.Service, series string, season int) models.Title {
	t.Helper()
	title, err := svc.CreateTitle(models.TitleCreate{
		Title:        series + " Season",
		SeriesName:   series,
		SeasonNumber: season,
	})
	if err != nil {
		t.Fatalf("create title returned error: %v", err)
	}
	return title
}

func TestCreateTitleAppliesDefaults(t *testing.T) {
	svc := newService(t)

	title, err := svc.CreateTitle(models.TitleCreate{
		Title:      "Moon Courier",
		SeriesName: "Moon Courier",
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if title.ID == "" {
		t.Fatal("expected created title to have an id")
	}
	if title.Status != models.StatusOngoing {
		t.Fatalf("expected default status %q, got %q", models.StatusOngoing, title.Status)
	}
	if title.ContentType != models.ContentTypeAnime {
		t.Fatalf("expected default content type %q, got %q", models.ContentTypeAnime, title.ContentType)
	}
	if title.SeasonNumber != 1 {
		t.Fatalf("expected default season number 1, got %d", title.SeasonNumber)
	}
	if title.Genres == nil {
		t.Fatal("expected genres to be an empty slice, got nil")
	}
	if title.Rating != 0 {
		t.Fatalf("expected new title rating 0, got %v", title.Rating)
	}
}

func TestCreateTitleValidation(t *testing.T) {
	svc := newService(t)

	cases := []struct {
		name    string
		payload models.TitleCreate
	}{
		{"missing title", models.TitleCreate{SeriesName: "X"}},
		{"missing series name", models.TitleCreate{Title: "X"}},
		{"negative season", models.TitleCreate{Title: "X", SeriesName: "X", SeasonNumber: -1}},
		{"negative episodes", models.TitleCreate{Title: "X", SeriesName: "X", TotalEpisodes: -3}},
		{"unknown status", models.TitleCreate{Title: "X", SeriesName: "X", Status: "paused"}},
		{"unknown content type", models.TitleCreate{Title: "X", SeriesName: "X", ContentType: "movie"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTitle(tc.payload)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateTitleSeasonConflict(t *testing.T) {
	svc := newService(t)
	createTitle(t, svc, "Moon Courier", 1)

	_, err := svc.CreateTitle(models.TitleCreate{
		Title:        "Moon Courier S1 again",
		SeriesName:   "Moon Courier",
		SeasonNumber: 1,
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict for duplicate (series, season), got %v", err)
	}

	// A different season of the same series is fine.
	if _, err := svc.CreateTitle(models.TitleCreate{
		Title:        "Moon Courier S2",
		SeriesName:   "Moon Courier",
		SeasonNumber: 2,
	}); err != nil {
		t.Fatalf("expected second season to be accepted, got %v", err)
	}
}

func TestConcurrentDuplicateCreateHasOneWinner(t *testing.T) {
	svc := newService(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateTitle(models.TitleCreate{
				Title:        "Racing Hearts",
				SeriesName:   "Racing Hearts",
				SeasonNumber: 1,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, models.ErrConflict):
		default:
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestUpdateTitleIsIdempotent(t *testing.T) {
	svc := newService(t)
	title := createTitle(t, svc, "Moon Courier", 1)

	desc := "a courier crosses the lunar wastes"
	status := models.StatusCompleted
	payload := models.TitleUpdate{Description: &desc, Status: &status}

	first, err := svc.UpdateTitle(title.ID, payload)
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	second, err := svc.UpdateTitle(title.ID, payload)
	if err != nil {
		t.Fatalf("replayed update returned error: %v", err)
	}

	if first.Description != second.Description || first.Status != second.Status {
		t.Fatalf("expected replayed update to yield same record, got %+v vs %+v", first, second)
	}
}

func TestUpdateTitleSeasonConflict(t *testing.T) {
	svc := newService(t)
	createTitle(t, svc, "Moon Courier", 1)
	other := createTitle(t, svc, "Moon Courier", 2)

	one := 1
	_, err := svc.UpdateTitle(other.ID, models.TitleUpdate{SeasonNumber: &one})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict moving onto taken season, got %v", err)
	}
}

func TestGetTitleNotFound(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetTitle("missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTitlesFilters(t *testing.T) {
	svc := newService(t)

	if _, err := svc.CreateTitle(models.TitleCreate{
		Title:       "Moon Courier",
		Description: "lunar delivery drama",
		SeriesName:  "Moon Courier",
		Genres:      []string{"Drama", "Sci-Fi"},
		ReleaseYear: 2023,
		ContentType: models.ContentTypeAnime,
	}); err != nil {
		t.Fatalf("seed title: %v", err)
	}
	if _, err := svc.CreateTitle(models.TitleCreate{
		Title:       "Paper Town Tales",
		SeriesName:  "Paper Town Tales",
		Genres:      []string{"Comedy"},
		ReleaseYear: 2021,
		ContentType: models.ContentTypeCartoon,
	}); err != nil {
		t.Fatalf("seed title: %v", err)
	}

	ctx := context.Background()

	got, err := svc.ListTitles(ctx, models.TitleFilters{Genres: []string{"sci-fi", "drama"}})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Moon Courier" {
		t.Fatalf("expected genre filter to match only Moon Courier, got %+v", got)
	}

	got, err = svc.ListTitles(ctx, models.TitleFilters{Search: "LUNAR"})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Moon Courier" {
		t.Fatalf("expected search to match description case-insensitively, got %+v", got)
	}

	got, err = svc.ListTitles(ctx, models.TitleFilters{ContentType: models.ContentTypeCartoon, Year: 2021})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Paper Town Tales" {
		t.Fatalf("expected ANDed filters to match only Paper Town Tales, got %+v", got)
	}

	got, err = svc.ListTitles(ctx, models.TitleFilters{ContentType: models.ContentTypeCartoon, Year: 2023})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected conflicting filters to match nothing, got %+v", got)
	}
}

func TestListTitlesPagination(t *testing.T) {
	svc := newService(t)
	for i := 1; i <= 5; i++ {
		createTitle(t, svc, "Series", i)
	}

	ctx := context.Background()

	page, err := svc.ListTitles(ctx, models.TitleFilters{Limit: 2})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page))
	}

	rest, err := svc.ListTitles(ctx, models.TitleFilters{Limit: 10, Offset: 4})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 result past offset 4, got %d", len(rest))
	}

	empty, err := svc.ListTitles(ctx, models.TitleFilters{Offset: 99})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(empty))
	}
}

func TestListTitlesHonoursContext(t *testing.T) {
	svc := newService(t)
	createTitle(t, svc, "Series", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListTitles(ctx, models.TitleFilters{})
	if !errors.Is(err, models.ErrTimeout) {
		t.Fatalf("expected timeout error for cancelled context, got %v", err)
	}
}

func TestCreateEpisodeRequiresTitle(t *testing.T) {
	svc := newService(t)

	_, err := svc.CreateEpisode(models.EpisodeCreate{
		TitleID:       "missing",
		EpisodeNumber: 1,
		VideoURL:      "https://cdn.example/ep1.m3u8",
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for orphan episode, got %v", err)
	}
}

func TestCreateEpisodeValidation(t *testing.T) {
	svc := newService(t)
	title := createTitle(t, svc, "Moon Courier", 1)

	_, err := svc.CreateEpisode(models.EpisodeCreate{
		TitleID:       title.ID,
		EpisodeNumber: 1,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for empty video_url, got %v", err)
	}

	_, err = svc.CreateEpisode(models.EpisodeCreate{
		TitleID:  title.ID,
		VideoURL: "https://cdn.example/ep0.m3u8",
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for episode number < 1, got %v", err)
	}
}

func TestCreateEpisodeUniqueWithinTitle(t *testing.T) {
	svc := newService(t)
	title := createTitle(t, svc, "Moon Courier", 1)

	payload := models.EpisodeCreate{
		TitleID:       title.ID,
		EpisodeNumber: 1,
		SeasonNumber:  1,
		VideoURL:      "https://cdn.example/ep1.m3u8",
	}
	if _, err := svc.CreateEpisode(payload); err != nil {
		t.Fatalf("create episode returned error: %v", err)
	}
	if _, err := svc.CreateEpisode(payload); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict for duplicate episode slot, got %v", err)
	}

	// Same slot under a different title is fine.
	other := createTitle(t, svc, "Paper Town Tales", 1)
	payload.TitleID = other.ID
	if _, err := svc.CreateEpisode(payload); err != nil {
		t.Fatalf("expected same slot under other title to be accepted, got %v", err)
	}
}

func TestListEpisodesByTitleOrdering(t *testing.T) {
	svc := newService(t)
	title := createTitle(t, svc, "Moon Courier", 1)

	for _, slot := range []struct{ season, episode int }{{2, 1}, {1, 2}, {1, 1}} {
		if _, err := svc.CreateEpisode(models.EpisodeCreate{
			TitleID:       title.ID,
			SeasonNumber:  slot.season,
			EpisodeNumber: slot.episode,
			VideoURL:      "https://cdn.example/ep.m3u8",
		}); err != nil {
			t.Fatalf("seed episode: %v", err)
		}
	}

	episodes, err := svc.ListEpisodesByTitle(title.ID)
	if err != nil {
		t.Fatalf("list episodes returned error: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(episodes))
	}

	want := []struct{ season, episode int }{{1, 1}, {1, 2}, {2, 1}}
	for i, w := range want {
		if episodes[i].SeasonNumber != w.season || episodes[i].EpisodeNumber != w.episode {
			t.Fatalf("expected position %d to be s%de%d, got s%de%d",
				i, w.season, w.episode, episodes[i].SeasonNumber, episodes[i].EpisodeNumber)
		}
	}
}

func TestListEpisodesByTitleUnknownTitle(t *testing.T) {
	svc := newService(t)

	_, err := svc.ListEpisodesByTitle("missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for unknown title, got %v", err)
	}
}

func TestDeleteTitleRemovesEpisodes(t *testing.T) {
	svc := newService(t)
	title := createTitle(t, svc, "Moon Courier", 1)

	ep, err := svc.CreateEpisode(models.EpisodeCreate{
		TitleID:       title.ID,
		EpisodeNumber: 1,
		VideoURL:      "https://cdn.example/ep1.m3u8",
	})
	if err != nil {
		t.Fatalf("create episode returned error: %v", err)
	}

	_, removed, err := svc.DeleteTitle(title.ID)
	if err != nil {
		t.Fatalf("delete title returned error: %v", err)
	}
	if len(removed) != 1 || removed[0].ID != ep.ID {
		t.Fatalf("expected delete to report the removed episode, got %+v", removed)
	}

	if _, err := svc.GetEpisode(ep.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected episode to vanish with its title, got %v", err)
	}
}

func TestDataSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	svc, err := catalog.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	title, err := svc.CreateTitle(models.TitleCreate{Title: "Moon Courier", SeriesName: "Moon Courier"})
	if err != nil {
		t.Fatalf("create title returned error: %v", err)
	}

	reopened, err := catalog.NewService(dir)
	if err != nil {
		t.Fatalf("failed to reopen service: %v", err)
	}
	got, err := reopened.GetTitle(title.ID)
	if err != nil {
		t.Fatalf("expected title to survive restart, got %v", err)
	}
	if !got.CreatedAt.Equal(title.CreatedAt) || got.Title != title.Title {
		t.Fatalf("expected identical record after restart, got %+v", got)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	svc, err := catalog.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	title, err := svc.CreateTitle(models.TitleCreate{Title: "Moon Courier", SeriesName: "Moon Courier"})
	if err != nil {
		t.Fatalf("create title returned error: %v", err)
	}
	if _, err := svc.CreateEpisode(models.EpisodeCreate{
		TitleID:       title.ID,
		EpisodeNumber: 1,
		SeasonNumber:  1,
		VideoURL:      "https://cdn/e1.m3u8",
	}); err != nil {
		t.Fatalf("create episode returned error: %v", err)
	}

	for _, name := range []string{"titles.json.tmp", "episodes.json.tmp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be gone after save, stat err = %v", name, err)
		}
	}

	// The store files themselves must be valid JSON after the rename.
	data, err := os.ReadFile(filepath.Join(dir, "titles.json"))
	if err != nil {
		t.Fatalf("read titles store: %v", err)
	}
	var stored map[string]models.Title
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("titles store is not valid JSON: %v", err)
	}
	if _, ok := stored[title.ID]; !ok {
		t.Fatalf("expected stored title %s, got %v", title.ID, stored)
	}
}
