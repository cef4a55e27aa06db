package models

import "time"

// WatchlistEntry marks a title as saved by a user. A user holds at most one
// entry per title.
type WatchlistEntry struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	TitleID string    `json:"title_id"`
	AddedAt time.Time `json:"added_at"`
}
