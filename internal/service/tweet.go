package service

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"mweet/internal/model"
	"mweet/internal/queue"
	"mweet/internal/repository"
)

// TweetService handles composing and reading tweets. Tweets are append-only:
// there is no edit or delete path, so the denormalized author fields capture
// the author as they were at post time.
type TweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
}

func NewTweetService(
	tweetRepo repository.TweetRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Compose validates and stores a new tweet. Content length is measured in
// runes, so a 280-character tweet is valid regardless of how many bytes it
// takes. Validation runs before any write: an over-limit tweet never reaches
// the database.
func (s *TweetService) Compose(ctx context.Context, userID int64, req *model.CreateTweetRequest) (*model.Tweet, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > model.MaxTweetLength {
		return nil, model.ErrContentTooLong
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tweet := &model.Tweet{
		UserID:       userID,
		Content:      content,
		UserHandle:   author.Handle,
		UserName:     author.DisplayName,
		UserPhotoURL: author.PhotoURL,
	}

	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		return nil, err
	}

	// Publish event for async timeline fan-out (after the insert succeeded!)
	if s.publisher != nil {
		event := queue.NewTweetCreatedEvent(tweet.ID, userID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamTimeline, event)
		if err != nil {
			log.Printf("[TweetService] Failed to publish TweetCreated event: tweet=%d author=%d err=%v",
				tweet.ID, userID, err)
		} else {
			log.Printf("[TweetService] Published TweetCreated: tweet=%d author=%d msgID=%s",
				tweet.ID, userID, msgID)
		}
	}

	return tweet, nil
}

// GetByID retrieves a single tweet.
func (s *TweetService) GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error) {
	return s.tweetRepo.GetByID(ctx, tweetID)
}

// GetUserTweets retrieves a user's tweets, newest first, with cursor-based
// pagination. The user must exist; an unknown id is a not-found, not an empty
// list.
func (s *TweetService) GetUserTweets(ctx context.Context, userID int64, cursor *string, limit int) (*model.TimelineResponse, error) {
	if limit <= 0 {
		limit = TimelineDefaultLimit
	}
	if limit > TimelineMaxLimit {
		limit = TimelineMaxLimit
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tweets, nextCursor, err := s.tweetRepo.GetByUser(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.TimelineResponse{
		Tweets:     tweets,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}
