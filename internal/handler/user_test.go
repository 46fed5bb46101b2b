package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mweet/internal/httputil"
	"mweet/internal/model"
	"mweet/internal/service"
	"mweet/internal/transport/http/middleware"
)

func newUpdateProfileRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/me/profile", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(7))
	return req.WithContext(ctx)
}

func TestUserHandler_UpdateProfile_BackendErrorIsOpaque(t *testing.T) {
	users := &stubUserRepository{
		updateProfileFn: func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
			return nil, errors.New("begin transaction: dial tcp 127.0.0.1:5432: connect: connection refused")
		},
	}
	h := NewUserHandler(service.NewUserService(users, &stubFollowRepository{}))

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, newUpdateProfileRequest(`{"first_name":"Alice","last_name":"Lee","handle":"alice","bio":"hi"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "begin transaction") || strings.Contains(raw, "connection refused") {
		t.Errorf("response leaked backend error detail: %s", raw)
	}

	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != httputil.ErrCodeInternal {
		t.Errorf("error code = %q, want %q", resp.Error.Code, httputil.ErrCodeInternal)
	}
}

func TestUserHandler_UpdateProfile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing names",
			body: `{"handle":"alice","bio":"hi"}`,
		},
		{
			name: "invalid handle",
			body: `{"first_name":"Alice","last_name":"Lee","handle":"bad handle","bio":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUserRepository{}
			h := NewUserHandler(service.NewUserService(users, &stubFollowRepository{}))

			rec := httptest.NewRecorder()
			h.UpdateProfile(rec, newUpdateProfileRequest(tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			resp := decodeErrorResponse(t, rec)
			if resp.Error.Code != httputil.ErrCodeBadRequest {
				t.Errorf("error code = %q, want %q", resp.Error.Code, httputil.ErrCodeBadRequest)
			}
			if users.updateProfileCalls != 0 {
				t.Errorf("invalid input reached the repository: %d update calls", users.updateProfileCalls)
			}
		})
	}
}

func TestUserHandler_UpdateProfile_HandleTakenConflict(t *testing.T) {
	users := &stubUserRepository{
		updateProfileFn: func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
			return nil, model.ErrHandleTaken
		},
	}
	h := NewUserHandler(service.NewUserService(users, &stubFollowRepository{}))

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, newUpdateProfileRequest(`{"first_name":"Alice","last_name":"Lee","handle":"taken","bio":""}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
