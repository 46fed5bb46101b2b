package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mweet/internal/model"
	"mweet/internal/validate"
)

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		handleAvailableFn: func(ctx context.Context, handle string) (bool, error) {
			return true, nil
		},
		createWithHandleFn: func(ctx context.Context, user *model.User) error {
			// Simulate database setting ID and timestamps
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Email:     "alice@example.com",
		Password:  "securepassword123",
		Handle:    "Alice_99",
		FirstName: "Alice",
		LastName:  "Nguyen",
	}

	user, err := svc.Register(context.Background(), req)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}

	// Handle is normalized to lowercase before storage
	if user.Handle != "alice_99" {
		t.Errorf("handle = %q, want %q", user.Handle, "alice_99")
	}

	if user.DisplayName != "Alice Nguyen" {
		t.Errorf("display_name = %q, want %q", user.DisplayName, "Alice Nguyen")
	}

	// Verify password was hashed, not stored in plain text
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if len(mockRepo.createCalls) != 1 {
		t.Errorf("CreateWithHandle called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_HandleTaken(t *testing.T) {
	mockRepo := &mockUserRepository{
		handleAvailableFn: func(ctx context.Context, handle string) (bool, error) {
			return false, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Email:     "bob@example.com",
		Password:  "password123",
		Handle:    "taken",
		FirstName: "Bob",
		LastName:  "Tran",
	}

	user, err := svc.Register(context.Background(), req)

	if !errors.Is(err, model.ErrHandleTaken) {
		t.Errorf("error = %v, want %v", err, model.ErrHandleTaken)
	}
	if user != nil {
		t.Error("user should be nil when registration fails")
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("CreateWithHandle should not be called when handle is taken")
	}
}

func TestUserService_Register_HandleTakenCaseInsensitive(t *testing.T) {
	// "Alice" and "alice" are the same handle: the availability check must
	// receive the normalized form.
	var checkedHandle string
	mockRepo := &mockUserRepository{
		handleAvailableFn: func(ctx context.Context, handle string) (bool, error) {
			checkedHandle = handle
			return false, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Email:     "alice2@example.com",
		Password:  "password123",
		Handle:    "Alice",
		FirstName: "Alice",
		LastName:  "Pham",
	}

	_, err := svc.Register(context.Background(), req)

	if !errors.Is(err, model.ErrHandleTaken) {
		t.Errorf("error = %v, want %v", err, model.ErrHandleTaken)
	}
	if checkedHandle != "alice" {
		t.Errorf("availability checked for %q, want normalized %q", checkedHandle, "alice")
	}
}

func TestUserService_Register_InvalidHandle(t *testing.T) {
	tests := []struct {
		name   string
		handle string
	}{
		{"too short", "ab"},
		{"too long", "sixteen_chars_xx"},
		{"bad characters", "has-dash"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo, &mockFollowRepository{})

			req := &model.RegisterRequest{
				Email:     "x@example.com",
				Password:  "password123",
				Handle:    tt.handle,
				FirstName: "X",
				LastName:  "Y",
			}

			_, err := svc.Register(context.Background(), req)

			if !validate.IsHandleError(err) {
				t.Errorf("error = %v, want a handle validation error", err)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("CreateWithHandle should not be called for invalid handle")
			}
		})
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		createWithHandleFn: func(ctx context.Context, user *model.User) error {
			return model.ErrEmailExists
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.RegisterRequest{
		Email:     "dup@example.com",
		Password:  "password123",
		Handle:    "newhandle",
		FirstName: "Dup",
		LastName:  "User",
	}

	_, err := svc.Register(context.Background(), req)

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want %v", err, model.ErrEmailExists)
	}
}

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		ID:             1,
		Email:          "alice@example.com",
		Handle:         "alice",
		PasswordHashed: string(validHash),
	}

	tests := []struct {
		name          string
		email         string
		password      string
		mockGetByMail func(ctx context.Context, email string) (*model.User, error)
		wantErr       error
		wantUser      bool
	}{
		{
			name:     "successful login",
			email:    "alice@example.com",
			password: validPassword,
			mockGetByMail: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  nil,
			wantUser: true,
		},
		{
			name:     "user not found",
			email:    "nobody@example.com",
			password: "anypassword",
			mockGetByMail: func(ctx context.Context, email string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal the email doesn't exist
			wantUser: false,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrongpassword",
			mockGetByMail: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
		{
			name:     "database error",
			email:    "alice@example.com",
			password: validPassword,
			mockGetByMail: func(ctx context.Context, email string) (*model.User, error) {
				return nil, errors.New("database error")
			},
			wantErr:  model.ErrInvalidCredentials, // Don't reveal internal errors
			wantUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByEmailFn: tt.mockGetByMail,
			}
			svc := NewUserService(mockRepo, &mockFollowRepository{})

			req := &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			}

			user, err := svc.Login(context.Background(), req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
		})
	}
}

func TestUserService_GetProfile_FollowStatus(t *testing.T) {
	target := &model.User{ID: 2, Handle: "bob"}
	viewerID := int64(1)

	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return target, nil
		},
	}
	mockFollows := &mockFollowRepository{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return followerID == 1 && followeeID == 2, nil
		},
	}
	svc := NewUserService(mockRepo, mockFollows)

	profile, err := svc.GetProfile(context.Background(), 2, &viewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.IsFollowing {
		t.Error("expected is_following=true for a followed profile")
	}

	// Anonymous viewers never get follow status
	profile, err = svc.GetProfile(context.Background(), 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.IsFollowing {
		t.Error("expected is_following=false for anonymous viewer")
	}
}

func TestUserService_GetProfileByHandle_Normalizes(t *testing.T) {
	var lookedUp string
	mockRepo := &mockUserRepository{
		getByHandleFn: func(ctx context.Context, handle string) (*model.User, error) {
			lookedUp = handle
			return &model.User{ID: 3, Handle: handle}, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	if _, err := svc.GetProfileByHandle(context.Background(), "CaRoL", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookedUp != "carol" {
		t.Errorf("looked up %q, want normalized %q", lookedUp, "carol")
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	mockRepo := &mockUserRepository{
		updateProfileFn: func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
			return &model.User{
				ID:          userID,
				Handle:      req.Handle,
				FirstName:   req.FirstName,
				LastName:    req.LastName,
				DisplayName: req.FirstName + " " + req.LastName,
				Bio:         req.Bio,
			}, nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.UpdateProfileRequest{
		FirstName: "Alice",
		LastName:  "Nguyen",
		Handle:    "NewAlice",
		Bio:       "hello",
	}

	user, err := svc.UpdateProfile(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Handle != "newalice" {
		t.Errorf("handle = %q, want normalized %q", user.Handle, "newalice")
	}

	if len(mockRepo.updateProfileCalls) != 1 {
		t.Fatalf("UpdateProfile called %d times, want 1", len(mockRepo.updateProfileCalls))
	}
	if got := mockRepo.updateProfileCalls[0].Handle; got != "newalice" {
		t.Errorf("repo received handle %q, want %q", got, "newalice")
	}
}

func TestUserService_UpdateProfile_InvalidHandle(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, &mockFollowRepository{})

	req := &model.UpdateProfileRequest{
		FirstName: "Alice",
		LastName:  "Nguyen",
		Handle:    "no spaces",
	}

	_, err := svc.UpdateProfile(context.Background(), 1, req)

	if !validate.IsHandleError(err) {
		t.Errorf("error = %v, want a handle validation error", err)
	}
	if len(mockRepo.updateProfileCalls) != 0 {
		t.Error("UpdateProfile should not reach the repository for invalid handle")
	}
}
