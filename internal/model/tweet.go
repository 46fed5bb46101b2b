package model

import (
	"errors"
	"time"
)

// MaxTweetLength is the content limit in characters (not bytes).
const MaxTweetLength = 280

// Tweet is an append-only short text post. Author attributes are denormalized
// onto the row at write time so timeline rendering needs no extra lookup.
// Tweets are never edited or deleted.
type Tweet struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"`
	UserHandle   string    `db:"user_handle" json:"user_handle"`
	UserName     string    `db:"user_name" json:"user_name"`
	UserPhotoURL string    `db:"user_photo_url" json:"user_photo_url"`
	LikeCount    int       `db:"like_count" json:"likes"`
	RetweetCount int       `db:"retweet_count" json:"retweets"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CreateTweetRequest is the request body for POST /tweets.
type CreateTweetRequest struct {
	Content string `json:"content"`
}

// Timeline modes for GET /timeline.
const (
	TimelineModeAll       = "all"
	TimelineModeFollowing = "following"
)

// TimelineResponse is the paginated timeline response.
type TimelineResponse struct {
	Tweets     []Tweet `json:"tweets"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

var (
	ErrTweetNotFound   = errors.New("tweet not found")
	ErrContentEmpty    = errors.New("tweet content is empty")
	ErrContentTooLong  = errors.New("tweet content exceeds 280 characters")
	ErrInvalidTimeline = errors.New("invalid timeline mode")
)
