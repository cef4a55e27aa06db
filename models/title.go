package models

import "time"

// TitleStatus describes whether a title is still airing.
type TitleStatus string

const (
	StatusOngoing   TitleStatus = "Ongoing"
	StatusCompleted TitleStatus = "Completed"
)

// ContentType distinguishes the two catalog categories.
type ContentType string

const (
	ContentTypeAnime   ContentType = "anime"
	ContentTypeCartoon ContentType = "cartoon"
)

// Title is one catalog entry: a single season of a series.
// Seasons of the same series share SeriesName and carry distinct SeasonNumbers.
type Title struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	BannerURL       string      `json:"banner_url,omitempty"`
	Genres          []string    `json:"genres"`
	Languages       []string    `json:"languages,omitempty"`
	Season          string      `json:"season,omitempty"`
	ReleaseYear     int         `json:"release_year,omitempty"`
	Status          TitleStatus `json:"status"`
	TotalEpisodes   int         `json:"total_episodes"`
	Rating          float64     `json:"rating"`
	NextEpisodeDate *time.Time  `json:"next_episode_date,omitempty"`
	SeriesName      string      `json:"series_name"`
	SeasonNumber    int         `json:"season_number"`
	ContentType     ContentType `json:"content_type"`
	CreatedAt       time.Time   `json:"created_at"`
}

// TitleCreate captures the writable fields for a new title.
type TitleCreate struct {
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	BannerURL       string      `json:"banner_url,omitempty"`
	Genres          []string    `json:"genres,omitempty"`
	Languages       []string    `json:"languages,omitempty"`
	Season          string      `json:"season,omitempty"`
	ReleaseYear     int         `json:"release_year,omitempty"`
	Status          TitleStatus `json:"status,omitempty"`
	TotalEpisodes   int         `json:"total_episodes,omitempty"`
	NextEpisodeDate *time.Time  `json:"next_episode_date,omitempty"`
	SeriesName      string      `json:"series_name"`
	SeasonNumber    int         `json:"season_number,omitempty"`
	ContentType     ContentType `json:"content_type,omitempty"`
}

// TitleUpdate carries a partial update; nil fields are left untouched.
type TitleUpdate struct {
	Title           *string      `json:"title,omitempty"`
	Description     *string      `json:"description,omitempty"`
	ThumbnailURL    *string      `json:"thumbnail_url,omitempty"`
	BannerURL       *string      `json:"banner_url,omitempty"`
	Genres          []string     `json:"genres,omitempty"`
	Languages       []string     `json:"languages,omitempty"`
	Season          *string      `json:"season,omitempty"`
	ReleaseYear     *int         `json:"release_year,omitempty"`
	Status          *TitleStatus `json:"status,omitempty"`
	TotalEpisodes   *int         `json:"total_episodes,omitempty"`
	NextEpisodeDate *time.Time   `json:"next_episode_date,omitempty"`
	SeriesName      *string      `json:"series_name,omitempty"`
	SeasonNumber    *int         `json:"season_number,omitempty"`
	ContentType     *ContentType `json:"content_type,omitempty"`
}

// TitleFilters narrows a catalog listing. All set filters are ANDed together.
type TitleFilters struct {
	Genres      []string
	Season      string
	Year        int
	Status      TitleStatus
	Search      string
	ContentType ContentType
	Limit       int
	Offset      int
}
