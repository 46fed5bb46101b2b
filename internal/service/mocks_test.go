package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"mweet/internal/cache"
	"mweet/internal/model"
	"mweet/internal/queue"
)

// Mocks implement the repository and cache interfaces with function fields so
// each test defines only the behavior it cares about. Zero-value mocks return
// not-found / empty results.

// counterCall records one denormalized-counter mutation (userID, delta).
type counterCall struct {
	userID int64
	delta  int
}

type mockUserRepository struct {
	createWithHandleFn func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	getByHandleFn      func(ctx context.Context, handle string) (*model.User, error)
	handleAvailableFn  func(ctx context.Context, handle string) (bool, error)
	updateProfileFn    func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error)

	// Track calls for assertions
	createCalls             []*model.User
	updateProfileCalls      []*model.UpdateProfileRequest
	incrementFollowerCalls  []counterCall
	incrementFollowingCalls []counterCall
}

func (m *mockUserRepository) CreateWithHandle(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createWithHandleFn != nil {
		return m.createWithHandleFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	if m.getByHandleFn != nil {
		return m.getByHandleFn(ctx, handle)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	if m.handleAvailableFn != nil {
		return m.handleAvailableFn(ctx, handle)
	}
	return true, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	m.updateProfileCalls = append(m.updateProfileCalls, req)
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, req)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	m.incrementFollowerCalls = append(m.incrementFollowerCalls, counterCall{userID: userID, delta: delta})
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	m.incrementFollowingCalls = append(m.incrementFollowingCalls, counterCall{userID: userID, delta: delta})
	return nil
}

func (m *mockUserRepository) TouchLastSeen(ctx context.Context, userID int64) error {
	return nil
}

type mockFollowRepository struct {
	createFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	deleteFn         func(ctx context.Context, followerID, followeeID int64) error
	existsFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	getFolloweeIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	getFollowersFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	getFollowingFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followeeID)
	}
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockFollowRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	return nil, nil
}

type mockTweetRepository struct {
	createFn                 func(ctx context.Context, tweet *model.Tweet) error
	getByIDFn                func(ctx context.Context, tweetID int64) (*model.Tweet, error)
	getByIDsFn               func(ctx context.Context, tweetIDs []int64) ([]model.Tweet, error)
	getRecentFn              func(ctx context.Context, cursor *string, limit int) ([]model.Tweet, *string, error)
	getByUserFn              func(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Tweet, *string, error)
	getTimelineTweetScoresFn func(ctx context.Context, userIDs []int64, limit int) ([]cache.TweetScore, error)

	createCalls []*model.Tweet
}

func (m *mockTweetRepository) Create(ctx context.Context, tweet *model.Tweet) error {
	m.createCalls = append(m.createCalls, tweet)
	if m.createFn != nil {
		return m.createFn(ctx, tweet)
	}
	return nil
}

func (m *mockTweetRepository) GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, tweetID)
	}
	return nil, model.ErrTweetNotFound
}

func (m *mockTweetRepository) GetByIDs(ctx context.Context, tweetIDs []int64) ([]model.Tweet, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, tweetIDs)
	}
	return nil, nil
}

func (m *mockTweetRepository) GetRecent(ctx context.Context, cursor *string, limit int) ([]model.Tweet, *string, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(ctx, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockTweetRepository) GetByUser(ctx context.Context, userID int64, cursor *string, limit int) ([]model.Tweet, *string, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockTweetRepository) GetTimelineTweetScores(ctx context.Context, userIDs []int64, limit int) ([]cache.TweetScore, error) {
	if m.getTimelineTweetScoresFn != nil {
		return m.getTimelineTweetScoresFn(ctx, userIDs, limit)
	}
	return nil, nil
}

func (m *mockTweetRepository) GetRecentScoresByUser(ctx context.Context, userID int64, limit int) ([]cache.TweetScore, error) {
	return nil, nil
}

type mockRefreshTokenRepository struct {
	createFn          func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	revokeCalls        []string
	revokeAllCalls     []int64
	createdTokenHashes []string
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	m.createdTokenHashes = append(m.createdTokenHashes, token.TokenHash)
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	token.ID = "mock-token-id"
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	m.revokeCalls = append(m.revokeCalls, id)
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllCalls = append(m.revokeAllCalls, userID)
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// mockTimelineCache is an in-memory TimelineCache for timeline service tests.
type mockTimelineCache struct {
	entries map[int64][]cache.TweetScore // userID -> scores, unordered
}

func newMockTimelineCache() *mockTimelineCache {
	return &mockTimelineCache{entries: make(map[int64][]cache.TweetScore)}
}

func (m *mockTimelineCache) AddTweet(ctx context.Context, userID, tweetID int64, timestamp int64) error {
	m.entries[userID] = append(m.entries[userID], cache.TweetScore{TweetID: tweetID, Timestamp: timestamp})
	return nil
}

func (m *mockTimelineCache) RemoveTweet(ctx context.Context, userID, tweetID int64) error {
	scores := m.entries[userID]
	out := scores[:0]
	for _, s := range scores {
		if s.TweetID != tweetID {
			out = append(out, s)
		}
	}
	m.entries[userID] = out
	return nil
}

func (m *mockTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	scores := append([]cache.TweetScore(nil), m.entries[userID]...)
	// Newest first, like ZREVRANGE
	for i := 0; i < len(scores); i++ {
		for j := i + 1; j < len(scores); j++ {
			if scores[j].Timestamp > scores[i].Timestamp {
				scores[i], scores[j] = scores[j], scores[i]
			}
		}
	}

	var ids []int64
	var outScores []float64
	for _, s := range scores {
		if cursorScore != nil && float64(s.Timestamp) >= *cursorScore {
			continue
		}
		ids = append(ids, s.TweetID)
		outScores = append(outScores, float64(s.Timestamp))
		if len(ids) == limit {
			break
		}
	}
	return ids, outScores, nil
}

func (m *mockTimelineCache) WarmCache(ctx context.Context, userID int64, tweets []cache.TweetScore) error {
	m.entries[userID] = append(m.entries[userID], tweets...)
	return nil
}

func (m *mockTimelineCache) Invalidate(ctx context.Context, userID int64) error {
	delete(m.entries, userID)
	return nil
}

func (m *mockTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	_, ok := m.entries[userID]
	return ok, nil
}

// mockPublisher records published events.
type mockPublisher struct {
	published []queue.TimelineEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.TimelineEvent) (string, error) {
	m.published = append(m.published, event)
	return "0-0", nil
}

// newTestDB returns an sqlx.DB over a no-op driver, so services that open
// transactions around mocked repositories can Begin/Commit/Rollback without a
// real database. Any query would fail; the repositories are mocked, so none
// is issued.
func newTestDB() *sqlx.DB {
	return sqlx.NewDb(sql.OpenDB(nopConnector{}), "postgres")
}

type nopConnector struct{}

func (nopConnector) Connect(ctx context.Context) (driver.Conn, error) { return nopConn{}, nil }
func (nopConnector) Driver() driver.Driver                            { return nopDriver{} }

type nopDriver struct{}

func (nopDriver) Open(name string) (driver.Conn, error) { return nopConn{}, nil }

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("no queries on test db") }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }
