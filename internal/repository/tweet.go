package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mweet/internal/cache"
	"mweet/internal/model"
)

const tweetColumns = `id, user_id, content, user_handle, user_name, user_photo_url, like_count, retweet_count, created_at`

type tweetRepository struct {
	db *sqlx.DB
}

func NewTweetRepository(db *sqlx.DB) TweetRepository {
	return &tweetRepository{db: db}
}

// Create inserts a tweet. Tweets are append-only; there is no update or
// delete path anywhere in the repository.
func (r *tweetRepository) Create(ctx context.Context, t *model.Tweet) error {
	query := `
		INSERT INTO tweets (user_id, content, user_handle, user_name, user_photo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, like_count, retweet_count, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		t.UserID,
		t.Content,
		t.UserHandle,
		t.UserName,
		t.UserPhotoURL,
	).Scan(&t.ID, &t.LikeCount, &t.RetweetCount, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`

	var t model.Tweet
	err := r.db.GetContext(ctx, &t, query, tweetID)
	if err == sql.ErrNoRows {
		return nil, model.ErrTweetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tweet: %w", err)
	}
	return &t, nil
}

// GetByIDs retrieves multiple tweets and re-orders them to match the input
// order, which carries the timeline ordering decided by the cache.
func (r *tweetRepository) GetByIDs(ctx context.Context, tweetIDs []int64) ([]model.Tweet, error) {
	if len(tweetIDs) == 0 {
		return []model.Tweet{}, nil
	}

	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = ANY($1)`
	var tweets []model.Tweet
	err := r.db.SelectContext(ctx, &tweets, query, pq.Array(tweetIDs))
	if err != nil {
		return nil, fmt.Errorf("get tweets by ids: %w", err)
	}

	byID := make(map[int64]model.Tweet, len(tweets))
	for _, t := range tweets {
		byID[t.ID] = t
	}
	ordered := make([]model.Tweet, 0, len(tweetIDs))
	for _, id := range tweetIDs {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}

	return ordered, nil
}

// GetRecent is the "all" timeline: every tweet, newest first, with compound
// (created_at, id) cursor pagination.
func (r *tweetRepository) GetRecent(ctx context.Context, cursor *string, limit int) ([]model.Tweet, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT ` + tweetColumns + `
			FROM tweets
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		args = []interface{}{limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT ` + tweetColumns + `
			FROM tweets
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []interface{}{ts, id, limit + 1}
	}

	return r.selectTweets(ctx, query, args, limit)
}

// GetByUser returns a single user's tweets, newest first.
func (r *tweetRepository) GetByUser(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Tweet, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT ` + tweetColumns + `
			FROM tweets
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT ` + tweetColumns + `
			FROM tweets
			WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{userID, ts, id, limit + 1}
	}

	return r.selectTweets(ctx, query, args, limit)
}

func (r *tweetRepository) selectTweets(ctx context.Context, query string, args []interface{}, limit int) ([]model.Tweet, *string, error) {
	var tweets []model.Tweet
	err := r.db.SelectContext(ctx, &tweets, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("select tweets: %w", err)
	}

	var nextCursor *string
	if len(tweets) > limit {
		tweets = tweets[:limit]
		last := tweets[len(tweets)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return tweets, nextCursor, nil
}

// GetTimelineTweetScores returns (id, timestamp) pairs for tweets authored by
// any of the given users, for warming a timeline cache. Timestamps are Unix
// microseconds so same-second tweets keep distinct cache scores.
func (r *tweetRepository) GetTimelineTweetScores(ctx context.Context, userIDs []int64, limit int) ([]cache.TweetScore, error) {
	if len(userIDs) == 0 {
		return []cache.TweetScore{}, nil
	}

	query := `
		SELECT id, (EXTRACT(EPOCH FROM created_at) * 1000000)::bigint AS timestamp
		FROM tweets
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, pq.Array(userIDs), limit)
}

// GetRecentScoresByUser returns a single author's recent tweets as
// (id, timestamp) pairs, for follow backfill and unfollow pruning.
func (r *tweetRepository) GetRecentScoresByUser(ctx context.Context, userID int64, limit int) ([]cache.TweetScore, error) {
	query := `
		SELECT id, (EXTRACT(EPOCH FROM created_at) * 1000000)::bigint AS timestamp
		FROM tweets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, userID, limit)
}

func (r *tweetRepository) selectScores(ctx context.Context, query string, arg interface{}, limit int) ([]cache.TweetScore, error) {
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("select tweet scores: %w", err)
	}

	scores := make([]cache.TweetScore, len(rows))
	for i, r := range rows {
		scores[i] = cache.TweetScore{TweetID: r.ID, Timestamp: r.Timestamp}
	}
	return scores, nil
}
