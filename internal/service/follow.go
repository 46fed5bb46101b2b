package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"mweet/internal/model"
	"mweet/internal/queue"
	"mweet/internal/repository"
)

// FollowService manages follow edges and the denormalized follower counters.
// Edge insert/delete and both counter updates always share one transaction,
// so the counters can never drift from the edges they summarize.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
	}
}

// Follow creates the edge follower->followee and bumps both counters.
// Following yourself or someone you already follow is rejected; a concurrent
// duplicate loses on the primary key and sees ErrAlreadyFollowing too, so the
// counters move at most once per edge.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	_, err := s.userRepo.GetByID(ctx, followeeID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async timeline backfill (after commit!)
	if s.publisher != nil {
		event := queue.NewUserFollowedEvent(followerID, followeeID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamTimeline, event)
		if err != nil {
			log.Printf("[FollowService] Failed to publish UserFollowed event: follower=%d followee=%d err=%v",
				followerID, followeeID, err)
		} else {
			log.Printf("[FollowService] Published UserFollowed: follower=%d followee=%d msgID=%s",
				followerID, followeeID, msgID)
		}
	}

	return nil
}

// Unfollow removes the edge and decrements both counters. A missing edge
// returns model.ErrNotFollowing before any counter moves, so repeated
// unfollows decrement exactly once.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.followRepo.Delete(ctx, tx, followerID, followeeID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async timeline pruning (after commit!)
	if s.publisher != nil {
		event := queue.NewUserUnfollowedEvent(followerID, followeeID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamTimeline, event)
		if err != nil {
			log.Printf("[FollowService] Failed to publish UserUnfollowed event: follower=%d followee=%d err=%v",
				followerID, followeeID, err)
		} else {
			log.Printf("[FollowService] Published UserUnfollowed: follower=%d followee=%d msgID=%s",
				followerID, followeeID, msgID)
		}
	}

	return nil
}

// IsFollowing reports whether follower currently follows followee.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

// GetFollowers retrieves users who follow the specified user with cursor-based
// pagination, newest edges first. We fetch limit+1 rows to decide whether a
// next cursor exists.
//
// Follow-status enrichment is a second, batched query (ANY($1) in the WHERE
// clause, not N+1). A failed enrichment degrades to is_following=false rather
// than failing the listing.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	return buildFollowListResponse(users, nextCursor), nil
}

// GetFollowing retrieves users that the specified user follows. See
// GetFollowers for the pagination and enrichment behavior.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowing(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	return buildFollowListResponse(users, nextCursor), nil
}

func buildFollowListResponse(users []model.UserSummary, nextCursor *time.Time) *model.FollowListResponse {
	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}
}

func (s *FollowService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	userIDs := make([]int64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, userIDs)
	if err != nil {
		return users
	}

	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}

	return users
}
