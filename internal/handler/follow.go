package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mweet/internal/httputil"
	"mweet/internal/model"
	"mweet/internal/service"
	"mweet/internal/transport/http/middleware"
)

const (
	followListDefaultLimit = 20
	followListMaxLimit     = 100
)

// FollowHandler groups follow-related HTTP endpoints.
type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Follow creates a follow edge from the authenticated user to the target
// POST /users/{userID}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, followeeID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, "Cannot follow yourself")
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteConflict(w, "Already following this user")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Followed successfully",
	})
}

// Unfollow removes the follow edge
// DELETE /users/{userID}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, followeeID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFollowing):
			httputil.WriteNotFound(w, "Not following this user")
		default:
			httputil.WriteInternalError(w, "Failed to unfollow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Unfollowed successfully",
	})
}

// GetFollowers lists the users following the target user
// GET /users/{userID}/followers?cursor=<RFC3339>&limit=20
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.followService.GetFollowers)
}

// GetFollowing lists the users the target user follows
// GET /users/{userID}/following?cursor=<RFC3339>&limit=20
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.followService.GetFollowing)
}

type edgeLister func(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error)

func (h *FollowHandler) listEdges(w http.ResponseWriter, r *http.Request, list edgeLister) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	cursor, err := parseTimeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid cursor")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), followListDefaultLimit, followListMaxLimit)

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	resp, err := list(r.Context(), userID, cursor, limit, viewerID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseTimeCursor(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
