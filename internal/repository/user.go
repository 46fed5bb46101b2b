package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mweet/internal/model"
)

const userColumns = `id, email, password_hashed, handle, first_name, last_name, display_name, bio,
	       photo_url, follower_count, following_count, is_verified, last_seen, created_at, updated_at`

// userRepository implements UserRepository using sqlx. It owns the handles
// table as well: a handle reservation is never written outside a transaction
// that also writes the matching users row.
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateWithHandle inserts the user and reserves its handle atomically.
//
// The advisory availability check the caller may have done is not trusted
// here: the handle is re-checked inside the transaction with FOR UPDATE, and
// the handles primary key is the backstop for the insert-insert race that
// row locking cannot see (no row exists yet to lock). Either way a lost race
// surfaces as model.ErrHandleTaken and nothing is committed.
func (r *userRepository) CreateWithHandle(ctx context.Context, u *model.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var takenBy int64
	err = tx.GetContext(ctx, &takenBy, `SELECT user_id FROM handles WHERE handle = $1 FOR UPDATE`, u.Handle)
	if err == nil {
		return model.ErrHandleTaken
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check handle reservation: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hashed, handle, first_name, last_name, display_name, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, bio, follower_count, following_count, is_verified, last_seen, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		u.Email,
		u.PasswordHashed,
		u.Handle,
		u.FirstName,
		u.LastName,
		u.DisplayName,
		u.PhotoURL,
	).Scan(
		&u.ID,
		&u.Bio,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.IsVerified,
		&u.LastSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return translateUserConstraint(err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO handles (handle, user_id) VALUES ($1, $2)`, u.Handle, u.ID)
	if err != nil {
		return translateUserConstraint(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// GetByHandle retrieves a user by their handle (expects lowercase input)
func (r *userRepository) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE handle = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, handle)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by handle: %w", err)
	}

	return &u, nil
}

// HandleAvailable checks the handles table outside any transaction. Callers
// use it for fast feedback only; a positive answer can go stale immediately.
func (r *userRepository) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM handles WHERE handle = $1)`, handle)
	if err != nil {
		return false, fmt.Errorf("failed to check handle availability: %w", err)
	}
	return !exists, nil
}

// UpdateProfile updates name/bio fields and moves the handle reservation when
// the handle changed. Both the old-reservation delete and the new-reservation
// insert happen in the same transaction as the users row update, so there is
// no instant where users.handle and the handles table disagree.
//
// When the requested handle equals the current one (case-insensitively, since
// both sides are normalized) the handles table is left untouched.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current model.User
	err = tx.GetContext(ctx, &current, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.Handle != current.Handle {
		var takenBy int64
		err = tx.GetContext(ctx, &takenBy, `SELECT user_id FROM handles WHERE handle = $1 FOR UPDATE`, req.Handle)
		if err == nil {
			return nil, model.ErrHandleTaken
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("check handle reservation: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM handles WHERE handle = $1`, current.Handle); err != nil {
			return nil, fmt.Errorf("release old handle: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO handles (handle, user_id) VALUES ($1, $2)`, req.Handle, userID); err != nil {
			return nil, translateUserConstraint(err)
		}
	}

	displayName := req.FirstName + " " + req.LastName
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, handle = $4, display_name = $5, bio = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	var updated model.User
	err = tx.GetContext(ctx, &updated, query, userID, req.FirstName, req.LastName, req.Handle, displayName, req.Bio)
	if err != nil {
		return nil, translateUserConstraint(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &updated, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET follower_count = follower_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment following count: %w", err)
	}
	return nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

// translateUserConstraint maps unique-violation errors onto the domain
// sentinels so services never see driver-level errors for expected conflicts.
func translateUserConstraint(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return model.ErrEmailExists
		case "users_handle_key", "handles_pkey":
			return model.ErrHandleTaken
		}
	}
	return fmt.Errorf("write user: %w", err)
}
