package models

import "time"

// Episode belongs to exactly one Title and is unique within it by
// (season_number, episode_number).
type Episode struct {
	ID            string    `json:"id"`
	TitleID       string    `json:"title_id"`
	EpisodeNumber int       `json:"episode_number"`
	SeasonNumber  int       `json:"season_number"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	VideoURL      string    `json:"video_url"`
	Duration      int       `json:"duration,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EpisodeCreate captures the writable fields for a new episode.
type EpisodeCreate struct {
	TitleID       string `json:"title_id"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	VideoURL      string `json:"video_url"`
	Duration      int    `json:"duration,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
}

// EpisodeUpdate carries a partial update; nil fields are left untouched.
// The owning title cannot be changed after creation.
type EpisodeUpdate struct {
	EpisodeNumber *int    `json:"episode_number,omitempty"`
	SeasonNumber  *int    `json:"season_number,omitempty"`
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	VideoURL      *string `json:"video_url,omitempty"`
	Duration      *int    `json:"duration,omitempty"`
	ThumbnailURL  *string `json:"thumbnail_url,omitempty"`
}
