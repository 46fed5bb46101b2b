package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mweet/internal/cache"
	"mweet/internal/model"
)

type UserRepository interface {
	// CreateWithHandle inserts the user row and its handle reservation in one
	// transaction. Returns model.ErrHandleTaken or model.ErrEmailExists.
	CreateWithHandle(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByHandle(ctx context.Context, handle string) (*model.User, error)
	// HandleAvailable is the advisory pre-check; the transactional re-check in
	// CreateWithHandle/UpdateProfile is the correctness guarantee.
	HandleAvailable(ctx context.Context, handle string) (bool, error)
	// UpdateProfile updates name/bio fields and, when the handle changed,
	// atomically moves the handle reservation. Handle must be pre-normalized.
	UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	TouchLastSeen(ctx context.Context, userID int64) error
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type TweetRepository interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error)
	// GetByIDs returns tweets in the same order as the input ids.
	GetByIDs(ctx context.Context, tweetIDs []int64) ([]model.Tweet, error)
	// GetRecent is the "all" timeline: every tweet, newest first.
	GetRecent(ctx context.Context, cursor *string, limit int) ([]model.Tweet, *string, error)
	GetByUser(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Tweet, *string, error)
	// GetTimelineTweetScores feeds the timeline cache warmer: newest tweets
	// authored by any of the given users, as (id, timestamp) pairs.
	GetTimelineTweetScores(ctx context.Context, userIDs []int64, limit int) ([]cache.TweetScore, error)
	// GetRecentScoresByUser supports follow backfill and unfollow pruning.
	GetRecentScoresByUser(ctx context.Context, userID int64, limit int) ([]cache.TweetScore, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}
