package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mweet/internal/model"
	"mweet/internal/repository"
	"mweet/internal/validate"
)

const defaultPhotoURL = "/default-profile.jpg"

// UserService handles signup, login and profile mutation. Signup is the one
// place where identity and profile come into existence, and they are written
// in a single repository transaction together with the handle reservation.
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
}

func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
	}
}

// Register creates a new account and reserves its handle.
//
// The availability check before the write is advisory: it exists for fast
// feedback, but the transactional re-check inside CreateWithHandle is what
// actually prevents two signups racing for the same handle. Exactly one of
// them commits; the other gets model.ErrHandleTaken.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, model.NewValidationError("email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, model.NewValidationError("password is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, model.NewValidationError("first and last name are required")
	}

	if err := validate.Handle(strings.TrimSpace(req.Handle)); err != nil {
		return nil, err
	}
	handle := validate.NormalizeHandle(req.Handle)

	available, err := s.repo.HandleAvailable(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to check handle: %w", err)
	}
	if !available {
		return nil, model.ErrHandleTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	user := &model.User{
		Email:          email,
		PasswordHashed: string(hashedPassword),
		Handle:         handle,
		FirstName:      firstName,
		LastName:       lastName,
		DisplayName:    firstName + " " + lastName,
		PhotoURL:       defaultPhotoURL,
	}

	if err := s.repo.CreateWithHandle(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the email exists or not
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	// Best effort; a failed last_seen update shouldn't block login
	if err := s.repo.TouchLastSeen(ctx, user.ID); err != nil {
		log.Printf("[UserService] failed to update last_seen: userID=%d err=%v", user.ID, err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile retrieves a user's profile with the viewer's follow status.
// The follow check is skipped for anonymous viewers and self-views, and a
// failed check degrades to is_following=false instead of failing the request.
func (s *UserService) GetProfile(ctx context.Context, userID int64, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.buildProfile(ctx, user, viewerID), nil
}

// GetProfileByHandle is the same lookup keyed by handle. The input is
// normalized, so "Alice" and "alice" resolve to the same profile.
func (s *UserService) GetProfileByHandle(ctx context.Context, handle string, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByHandle(ctx, validate.NormalizeHandle(handle))
	if err != nil {
		return nil, err
	}

	return s.buildProfile(ctx, user, viewerID), nil
}

func (s *UserService) buildProfile(ctx context.Context, user *model.User, viewerID *int64) *model.ProfileResponse {
	profile := &model.ProfileResponse{
		User:        user,
		IsFollowing: false,
	}

	if viewerID != nil && *viewerID != user.ID {
		isFollowing, err := s.followRepo.Exists(ctx, *viewerID, user.ID)
		if err == nil {
			profile.IsFollowing = isFollowing
		}
	}

	return profile
}

// UpdateProfile edits name/bio fields and, when the handle actually changed,
// atomically moves the handle reservation. Requesting the handle the user
// already holds (in any letter case) is not a registry mutation.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, model.NewValidationError("first and last name are required")
	}

	if err := validate.Handle(strings.TrimSpace(req.Handle)); err != nil {
		return nil, err
	}

	normalized := &model.UpdateProfileRequest{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Handle:    validate.NormalizeHandle(req.Handle),
		Bio:       req.Bio,
	}

	return s.repo.UpdateProfile(ctx, userID, normalized)
}
