package handler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mweet/internal/model"
)

// Thin repository stubs so handler tests can drive real services through the
// HTTP layer. Only the methods a test overrides matter; the rest return
// not-found / empty results.

type stubUserRepository struct {
	createWithHandleFn func(ctx context.Context, user *model.User) error
	updateProfileFn    func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error)
	handleAvailableFn  func(ctx context.Context, handle string) (bool, error)

	createCalls        int
	updateProfileCalls int
}

func (s *stubUserRepository) CreateWithHandle(ctx context.Context, user *model.User) error {
	s.createCalls++
	if s.createWithHandleFn != nil {
		return s.createWithHandleFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (s *stubUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepository) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepository) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	if s.handleAvailableFn != nil {
		return s.handleAvailableFn(ctx, handle)
	}
	return true, nil
}

func (s *stubUserRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	s.updateProfileCalls++
	if s.updateProfileFn != nil {
		return s.updateProfileFn(ctx, userID, req)
	}
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (s *stubUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (s *stubUserRepository) TouchLastSeen(ctx context.Context, userID int64) error {
	return nil
}

type stubFollowRepository struct{}

func (s *stubFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return true, nil
}

func (s *stubFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	return nil
}

func (s *stubFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return false, nil
}

func (s *stubFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (s *stubFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (s *stubFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

func (s *stubFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (s *stubFollowRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

type stubRefreshTokenRepository struct{}

func (s *stubRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	token.ID = "stub-token-id"
	return nil
}

func (s *stubRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	return nil, model.ErrRefreshTokenNotFound
}

func (s *stubRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	return nil
}

func (s *stubRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	return nil
}

func (s *stubRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
