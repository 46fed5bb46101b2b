package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mweet/internal/httputil"
	"mweet/internal/model"
	"mweet/internal/service"
	"mweet/internal/transport/http/middleware"
)

// TweetHandler groups tweet-related HTTP endpoints.
type TweetHandler struct {
	tweetService *service.TweetService
}

func NewTweetHandler(tweetService *service.TweetService) *TweetHandler {
	return &TweetHandler{tweetService: tweetService}
}

// Compose creates a new tweet
// POST /tweets
func (h *TweetHandler) Compose(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	tweet, err := h.tweetService.Compose(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrContentEmpty):
			httputil.WriteBadRequest(w, "Tweet content is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Tweet exceeds 280 characters")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			httputil.WriteInternalError(w, "Failed to create tweet")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, tweet)
}

// GetByID returns a single tweet
// GET /tweets/{tweetID}
func (h *TweetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tweetID, err := strconv.ParseInt(chi.URLParam(r, "tweetID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid tweet ID")
		return
	}

	tweet, err := h.tweetService.GetByID(r.Context(), tweetID)
	if err != nil {
		if errors.Is(err, model.ErrTweetNotFound) {
			httputil.WriteNotFound(w, "Tweet not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get tweet")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tweet)
}

// GetUserTweets lists a user's tweets, newest first
// GET /users/{userID}/tweets?cursor=<c>&limit=10
func (h *TweetHandler) GetUserTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := parseLimit(r.URL.Query().Get("limit"), service.TimelineDefaultLimit, service.TimelineMaxLimit)

	resp, err := h.tweetService.GetUserTweets(r.Context(), userID, cursor, limit)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to list tweets")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
