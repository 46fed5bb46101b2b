package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the timeline stream
const (
	EventTweetCreated   = "tweet_created"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

// Stream names
const (
	StreamTimeline = "stream:timeline"
)

// Consumer group name for timeline workers
const (
	ConsumerGroupTimeline = "timeline_workers"
)

// TimelineEvent represents an event published to the timeline stream.
// All timeline-related events share this structure.
type TimelineEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix microseconds when event occurred; doubles as the cache score

	// Tweet event
	TweetID  int64 `json:"tweet_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// Follow events
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
}

// NewTweetCreatedEvent creates an event for a freshly composed tweet.
// The worker fans it out to every follower's timeline cache.
func NewTweetCreatedEvent(tweetID, authorID int64) TimelineEvent {
	return TimelineEvent{
		Type:      EventTweetCreated,
		Timestamp: time.Now().UnixMicro(),
		TweetID:   tweetID,
		AuthorID:  authorID,
	}
}

// NewUserFollowedEvent creates an event for a new follow edge.
// The worker backfills the followee's recent tweets into the follower's cache.
func NewUserFollowedEvent(followerID, followeeID int64) TimelineEvent {
	return TimelineEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().UnixMicro(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserUnfollowedEvent creates an event for a removed follow edge.
// The worker prunes the followee's tweets from the follower's cache.
func NewUserUnfollowedEvent(followerID, followeeID int64) TimelineEvent {
	return TimelineEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().UnixMicro(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so the event is serialized to JSON
// in a "data" field with the type duplicated for quick inspection.
func (e TimelineEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseTimelineEvent parses a TimelineEvent from Redis stream message values.
func ParseTimelineEvent(values map[string]interface{}) (TimelineEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return TimelineEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event TimelineEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return TimelineEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
