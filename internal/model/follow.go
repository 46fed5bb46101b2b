package model

import (
	"errors"
	"time"
)

// Follow is a directed edge: follower follows followee. The composite primary
// key (follower_id, followee_id) makes duplicate edges impossible.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type UserSummary struct {
	ID          int64  `db:"id" json:"id"`
	Handle      string `db:"handle" json:"handle"`
	DisplayName string `db:"display_name" json:"display_name"`
	PhotoURL    string `db:"photo_url" json:"photo_url"`
	IsFollowing bool   `json:"is_following"`
}

type FollowListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
