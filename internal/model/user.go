package model

import (
	"errors"
	"time"
)

// User represents a user account. The handle is stored lowercase and is
// globally unique; follower_count/following_count are denormalized counters
// kept consistent with the follows table inside one transaction.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Handle         string    `db:"handle" json:"handle"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Bio            string    `db:"bio" json:"bio"`
	PhotoURL       string    `db:"photo_url" json:"photo_url"`
	FollowerCount  int       `db:"follower_count" json:"followers"`
	FollowingCount int       `db:"following_count" json:"following"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// HandleReservation is a row in the handles table. A reservation exists iff
// the handle is taken, and its UserID must match the user whose handle field
// carries the same value. Both sides are only ever written together.
type HandleReservation struct {
	Handle    string    `db:"handle" json:"handle"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Handle    string `json:"handle"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for PUT /me/profile.
// Handle changes atomically move the reservation in the handles table.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Handle    string `json:"handle"`
	Bio       string `json:"bio"`
}

// ProfileResponse is a user profile enriched with the viewer's follow status.
type ProfileResponse struct {
	User        *User `json:"user"`
	IsFollowing bool  `json:"is_following"`
}

// ValidationError marks request-level input problems (missing or malformed
// fields) so handlers can map them to 400 instead of a generic failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an email already in use
	ErrEmailExists = errors.New("email already in use")

	// ErrHandleTaken is returned when a handle reservation already exists
	ErrHandleTaken = errors.New("handle already taken")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
