package handler

import (
	"errors"
	"net/http"

	"mweet/internal/httputil"
	"mweet/internal/model"
	"mweet/internal/service"
	"mweet/internal/transport/http/middleware"
)

// TimelineHandler serves the home timeline.
type TimelineHandler struct {
	timelineService *service.TimelineService
}

func NewTimelineHandler(timelineService *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

// GetTimeline returns the home timeline in "all" or "following" mode
// GET /timeline?mode=all&cursor=<c>&limit=10
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = model.TimelineModeAll
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := parseLimit(r.URL.Query().Get("limit"), service.TimelineDefaultLimit, service.TimelineMaxLimit)

	resp, err := h.timelineService.GetTimeline(r.Context(), userID, mode, cursor, limit)
	if err != nil {
		if errors.Is(err, model.ErrInvalidTimeline) {
			httputil.WriteBadRequest(w, "Invalid timeline mode, expected 'all' or 'following'")
			return
		}
		httputil.WriteInternalError(w, "Failed to get timeline")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
