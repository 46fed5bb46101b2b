package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"mweet/internal/cache"
	"mweet/internal/queue"
)

// FollowerProvider defines the interface for fetching followers.
// This abstracts the repository layer so workers don't depend on DB directly.
type FollowerProvider interface {
	// GetFollowerIDs returns all follower IDs for a given user.
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentTweetsProvider defines the interface for fetching recent tweets.
// Used for backfilling timelines when a user follows someone.
type RecentTweetsProvider interface {
	// GetRecentScoresByUser returns a user's recent tweets as
	// (tweetID, timestamp) pairs.
	GetRecentScoresByUser(ctx context.Context, userID int64, limit int) ([]cache.TweetScore, error)
}

// Handler processes timeline events from the queue.
type Handler struct {
	timelineCache  cache.TimelineCache
	followers      FollowerProvider
	tweetsProvider RecentTweetsProvider
}

// NewHandler creates a new event handler.
func NewHandler(
	timelineCache cache.TimelineCache,
	followers FollowerProvider,
	tweetsProvider RecentTweetsProvider,
) *Handler {
	return &Handler{
		timelineCache:  timelineCache,
		followers:      followers,
		tweetsProvider: tweetsProvider,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.TimelineEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventTweetCreated:
		err = h.handleTweetCreated(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleTweetCreated fans out a new tweet to all followers' timeline caches.
func (h *Handler) handleTweetCreated(ctx context.Context, event queue.TimelineEvent) error {
	log.Printf("[Worker] TweetCreated: tweet=%d author=%d", event.TweetID, event.AuthorID)

	followers, err := h.followers.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	log.Printf("[Worker] TweetCreated: fanning out to %d followers", len(followers))

	// Fan-out: add tweet to each follower's timeline cache
	var failCount int
	for _, followerID := range followers {
		err := h.timelineCache.AddTweet(ctx, followerID, event.TweetID, event.Timestamp)
		if err != nil {
			log.Printf("[Worker] TweetCreated: failed to add to user=%d err=%v", followerID, err)
			failCount++
			// Continue with other followers - don't fail entire fan-out
		}
	}

	// Also add to the author's own timeline (they see their own tweets)
	if err := h.timelineCache.AddTweet(ctx, event.AuthorID, event.TweetID, event.Timestamp); err != nil {
		log.Printf("[Worker] TweetCreated: failed to add to author's own timeline err=%v", err)
	}

	log.Printf("[Worker] TweetCreated DONE: tweet=%d fanout=%d failed=%d",
		event.TweetID, len(followers)+1, failCount)

	return nil
}

// handleUserFollowed backfills the follower's timeline with the followee's
// recent tweets.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.TimelineEvent) error {
	log.Printf("[Worker] UserFollowed: follower=%d followee=%d", event.FollowerID, event.FolloweeID)

	const backfillLimit = 20 // How many recent tweets to backfill
	tweets, err := h.tweetsProvider.GetRecentScoresByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent tweets: %w", err)
	}

	if len(tweets) == 0 {
		log.Printf("[Worker] UserFollowed: followee=%d has no tweets to backfill", event.FolloweeID)
		return nil
	}

	log.Printf("[Worker] UserFollowed: backfilling %d tweets to follower=%d", len(tweets), event.FollowerID)

	var failCount int
	for _, t := range tweets {
		err := h.timelineCache.AddTweet(ctx, event.FollowerID, t.TweetID, t.Timestamp)
		if err != nil {
			log.Printf("[Worker] UserFollowed: failed to add tweet=%d err=%v", t.TweetID, err)
			failCount++
		}
	}

	log.Printf("[Worker] UserFollowed DONE: follower=%d backfilled=%d failed=%d",
		event.FollowerID, len(tweets), failCount)

	return nil
}

// handleUserUnfollowed removes the followee's tweets from the follower's
// timeline cache.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.TimelineEvent) error {
	log.Printf("[Worker] UserUnfollowed: follower=%d followee=%d", event.FollowerID, event.FolloweeID)

	// Higher limit than backfill since all of their cached tweets should go
	const removeLimit = 100
	tweets, err := h.tweetsProvider.GetRecentScoresByUser(ctx, event.FolloweeID, removeLimit)
	if err != nil {
		return fmt.Errorf("get tweets to remove: %w", err)
	}

	if len(tweets) == 0 {
		log.Printf("[Worker] UserUnfollowed: followee=%d has no tweets to remove", event.FolloweeID)
		return nil
	}

	log.Printf("[Worker] UserUnfollowed: removing %d tweets from follower=%d", len(tweets), event.FollowerID)

	var failCount int
	for _, t := range tweets {
		err := h.timelineCache.RemoveTweet(ctx, event.FollowerID, t.TweetID)
		if err != nil {
			log.Printf("[Worker] UserUnfollowed: failed to remove tweet=%d err=%v", t.TweetID, err)
			failCount++
		}
	}

	log.Printf("[Worker] UserUnfollowed DONE: follower=%d removed=%d failed=%d",
		event.FollowerID, len(tweets), failCount)

	return nil
}
