package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"mweet/internal/cache"
	"mweet/internal/model"
	"mweet/internal/repository"
)

const (
	// TimelineDefaultLimit is the default number of tweets per page
	TimelineDefaultLimit = 10

	// TimelineMaxLimit is the maximum number of tweets per page
	TimelineMaxLimit = 50

	// CacheWarmLimit is max tweets to fetch when warming a timeline cache
	CacheWarmLimit = 500
)

// TimelineService serves the home timeline in two modes. "all" reads straight
// from the tweets table; "following" reads the viewer's Redis timeline cache
// (followees plus the viewer themself), warming it from the database on a
// miss.
type TimelineService struct {
	timelineCache cache.TimelineCache
	tweetRepo     repository.TweetRepository
	followRepo    repository.FollowRepository
}

func NewTimelineService(
	timelineCache cache.TimelineCache,
	tweetRepo repository.TweetRepository,
	followRepo repository.FollowRepository,
) *TimelineService {
	return &TimelineService{
		timelineCache: timelineCache,
		tweetRepo:     tweetRepo,
		followRepo:    followRepo,
	}
}

// GetTimeline retrieves the timeline for a user with cursor-based pagination.
// An unrecognized mode is rejected with model.ErrInvalidTimeline.
func (s *TimelineService) GetTimeline(ctx context.Context, userID int64, mode string, cursor *string, limit int) (*model.TimelineResponse, error) {
	if limit <= 0 {
		limit = TimelineDefaultLimit
	}
	if limit > TimelineMaxLimit {
		limit = TimelineMaxLimit
	}

	switch mode {
	case model.TimelineModeAll:
		return s.getAllTimeline(ctx, cursor, limit)
	case model.TimelineModeFollowing:
		return s.getFollowingTimeline(ctx, userID, cursor, limit)
	default:
		return nil, model.ErrInvalidTimeline
	}
}

// getAllTimeline is a plain newest-first scan over every tweet.
func (s *TimelineService) getAllTimeline(ctx context.Context, cursor *string, limit int) (*model.TimelineResponse, error) {
	tweets, nextCursor, err := s.tweetRepo.GetRecent(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.TimelineResponse{
		Tweets:     tweets,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// getFollowingTimeline serves tweets by the viewer's followees and the viewer
// themself from the timeline cache.
//
// Flow:
// 1. Check if the cache exists for this user
// 2. If not, warm it (tweets from followees + self, up to 500)
// 3. Read tweet IDs from the cache (using cursor if provided)
// 4. Hydrate: fetch full tweets from DB, preserving cache order
// 5. Build next cursor from the last score
func (s *TimelineService) getFollowingTimeline(ctx context.Context, userID int64, cursor *string, limit int) (*model.TimelineResponse, error) {
	startTime := time.Now()

	exists, err := s.timelineCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[TimelineService] Cache check failed for user=%d: %v", userID, err)
	}

	if !exists {
		log.Printf("[TimelineService] Cache miss for user=%d, warming...", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			log.Printf("[TimelineService] Cache warm failed for user=%d: %v", userID, err)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseTimelineCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursorScore = &score
	}

	tweetIDs, scores, err := s.timelineCache.GetTimeline(ctx, userID, cursorScore, limit)
	if err != nil {
		return nil, fmt.Errorf("get timeline from cache: %w", err)
	}

	if len(tweetIDs) == 0 {
		return &model.TimelineResponse{Tweets: []model.Tweet{}}, nil
	}

	tweets, err := s.tweetRepo.GetByIDs(ctx, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate tweets: %w", err)
	}

	var nextCursor *string
	hasMore := len(tweets) == limit
	if hasMore && len(scores) > 0 {
		lastTweet := tweets[len(tweets)-1]
		c := formatTimelineCursor(scores[len(scores)-1], lastTweet.ID)
		nextCursor = &c
	}

	log.Printf("[TimelineService] GetTimeline OK: user=%d tweets=%d hasMore=%v duration=%v",
		userID, len(tweets), hasMore, time.Since(startTime))

	return &model.TimelineResponse{
		Tweets:     tweets,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the user's timeline cache from the database.
func (s *TimelineService) warmCache(ctx context.Context, userID int64) error {
	startTime := time.Now()

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get followee ids: %w", err)
	}

	// The viewer's own tweets belong in their "following" timeline too
	followeeIDs = append(followeeIDs, userID)

	scores, err := s.tweetRepo.GetTimelineTweetScores(ctx, followeeIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get timeline tweet scores: %w", err)
	}

	if len(scores) == 0 {
		log.Printf("[TimelineService] No tweets to warm for user=%d", userID)
		return nil
	}

	if err := s.timelineCache.WarmCache(ctx, userID, scores); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[TimelineService] Cache warmed: user=%d tweets=%d duration=%v",
		userID, len(scores), time.Since(startTime))

	return nil
}

// parseTimelineCursor parses an "id:timestamp" cursor into its score and
// tweet id.
func parseTimelineCursor(cursor string) (float64, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format, expected id:timestamp")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid tweet id in cursor: %w", err)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	return score, id, nil
}

// formatTimelineCursor creates an "id:timestamp" cursor.
func formatTimelineCursor(score float64, id int64) string {
	return fmt.Sprintf("%d:%.0f", id, score)
}
