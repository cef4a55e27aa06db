package models

import "time"

// Review rating bounds, inclusive.
const (
	ReviewRatingMin = 1
	ReviewRatingMax = 10
)

// Review is a user's single rating of a title. Edits bump UpdatedAt.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TitleID   string    `json:"title_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewCreate captures the writable fields for a new review.
type ReviewCreate struct {
	TitleID string `json:"title_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// ReviewUpdate carries a partial update; nil fields are left untouched.
type ReviewUpdate struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}
