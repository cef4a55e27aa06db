package models

import "time"

// WatchProgress tracks a user's playback state for a single episode.
// TitleID duplicates the episode's owning title; the integrity layer always
// rewrites it from the episode link so it can be read without a join.
type WatchProgress struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	EpisodeID    string    `json:"episode_id"`
	TitleID      string    `json:"title_id"`
	Watched      bool      `json:"watched"`
	LastPosition int       `json:"last_position"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProgressCreate captures the writable fields for a new progress entry.
// TitleID is accepted for wire compatibility but derived from the episode.
type ProgressCreate struct {
	EpisodeID    string `json:"episode_id"`
	TitleID      string `json:"title_id,omitempty"`
	Watched      bool   `json:"watched,omitempty"`
	LastPosition int    `json:"last_position,omitempty"`
}

// ProgressUpdate carries a partial update; nil fields are left untouched.
type ProgressUpdate struct {
	Watched      *bool `json:"watched,omitempty"`
	LastPosition *int  `json:"last_position,omitempty"`
}

// CompletionState is the derived per-user view over a title's episodes.
type CompletionState struct {
	TitleID           string   `json:"title_id"`
	UserID            string   `json:"user_id"`
	WatchedEpisodeIDs []string `json:"watched_episode_ids"`
	WatchedCount      int      `json:"watched_count"`
	TotalEpisodes     int      `json:"total_episodes"`
	Ratio             float64  `json:"ratio"`
}
