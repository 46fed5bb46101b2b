package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineCachePrefix is the key prefix for per-user timeline caches
	TimelineCachePrefix = "timeline:user:"

	// TimelineCacheCap is the maximum number of tweets cached per user
	TimelineCacheCap = 500

	// TimelineCacheTTL is the TTL for a timeline cache entry (7 days)
	TimelineCacheTTL = 7 * 24 * time.Hour
)

// TweetScore represents a tweet with its timestamp score for caching.
// Timestamps are Unix microseconds, so tweets created within the same second
// still get distinct scores and the exclusive cursor bound cannot skip them.
type TweetScore struct {
	TweetID   int64
	Timestamp int64 // Unix timestamp in microseconds
}

// TimelineCache holds, per user, the ids of tweets visible in their
// "following" timeline (followees plus the user themself), scored by creation
// time. The fan-out worker keeps it current; a missing key means the service
// layer should warm it from the database.
type TimelineCache interface {
	// AddTweet adds a tweet to a user's timeline cache.
	AddTweet(ctx context.Context, userID, tweetID int64, timestamp int64) error

	// RemoveTweet removes a tweet from a user's timeline cache.
	RemoveTweet(ctx context.Context, userID, tweetID int64) error

	// GetTimeline retrieves tweet ids from a user's timeline cache, newest
	// first. With a cursor score, only tweets strictly older are returned.
	GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) (tweetIDs []int64, scores []float64, err error)

	// WarmCache bulk-inserts tweets into a user's timeline cache.
	WarmCache(ctx context.Context, userID int64, tweets []TweetScore) error

	// Invalidate drops a user's timeline cache entirely. The next read warms
	// it from the database against the current follow set.
	Invalidate(ctx context.Context, userID int64) error

	// Exists checks if a user has a timeline cache entry.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RedisTimelineCache implements TimelineCache using Redis Sorted Sets.
type RedisTimelineCache struct {
	client *redis.Client
}

// NewTimelineCache creates a TimelineCache backed by Redis.
func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client}
}

func timelineKey(userID int64) string {
	return fmt.Sprintf("%s%d", TimelineCachePrefix, userID)
}

// AddTweet adds a tweet using a pipeline: ZADD, trim to cap, refresh TTL.
func (c *RedisTimelineCache) AddTweet(ctx context.Context, userID, tweetID int64, timestamp int64) error {
	key := timelineKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(tweetID, 10),
	})
	// ZREMRANGEBYRANK keeps the TimelineCacheCap newest scores and drops the rest
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCacheCap-1))
	pipe.Expire(ctx, key, TimelineCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] AddTweet FAILED: user=%d tweet=%d err=%v", userID, tweetID, err)
		return fmt.Errorf("add tweet to timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) RemoveTweet(ctx context.Context, userID, tweetID int64) error {
	key := timelineKey(userID)
	member := strconv.FormatInt(tweetID, 10)

	if err := c.client.ZRem(ctx, key, member).Err(); err != nil {
		log.Printf("[TimelineCache] RemoveTweet FAILED: user=%d tweet=%d err=%v", userID, tweetID, err)
		return fmt.Errorf("remove tweet from timeline: %w", err)
	}
	return nil
}

// GetTimeline retrieves tweet ids newest first. With no cursor this is a
// plain ZREVRANGE; with a cursor it is an exclusive ZREVRANGEBYSCORE below
// the cursor score.
func (c *RedisTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	key := timelineKey(userID)

	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore), // "(" prefix makes the bound exclusive
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}

	if err != nil {
		log.Printf("[TimelineCache] GetTimeline FAILED: user=%d err=%v", userID, err)
		return nil, nil, fmt.Errorf("get timeline: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, TimelineCacheTTL)

	tweetIDs := make([]int64, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse tweet id: %w", err)
		}
		tweetIDs[i] = id
		scores[i] = z.Score
	}

	return tweetIDs, scores, nil
}

// WarmCache bulk-inserts tweets using a pipeline.
func (c *RedisTimelineCache) WarmCache(ctx context.Context, userID int64, tweets []TweetScore) error {
	if len(tweets) == 0 {
		return nil
	}

	key := timelineKey(userID)

	members := make([]redis.Z, len(tweets))
	for i, t := range tweets {
		members[i] = redis.Z{
			Score:  float64(t.Timestamp),
			Member: strconv.FormatInt(t.TweetID, 10),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCacheCap-1))
	pipe.Expire(ctx, key, TimelineCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] WarmCache FAILED: user=%d tweets=%d err=%v", userID, len(tweets), err)
		return fmt.Errorf("warm timeline cache: %w", err)
	}

	log.Printf("[TimelineCache] WarmCache OK: user=%d tweets=%d", userID, len(tweets))
	return nil
}

func (c *RedisTimelineCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, timelineKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate timeline cache: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, timelineKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check timeline cache exists: %w", err)
	}
	return exists > 0, nil
}
