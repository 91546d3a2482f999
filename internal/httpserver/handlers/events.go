package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

type eventsResponse struct {
	Count  int            `json:"count"`
	Events []domain.Event `json:"events"`
}

// Events returns the newest mirrored outcome events, ?limit= (default 100).
// It needs the Redis mirror; the full history is the event log file.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Mirror == nil {
			writeError(w, http.StatusServiceUnavailable, "redis mirror disabled")
			return
		}

		limit := defaultEventsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxEventsLimit)
		}

		events, err := d.Mirror.RecentEvents(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("failed to read events from redis", logger.Error(err))
			writeError(w, http.StatusBadGateway, "redis mirror unavailable")
			return
		}
		if events == nil {
			events = []domain.Event{}
		}
		writeJSON(w, http.StatusOK, eventsResponse{Count: len(events), Events: events})
	}
}
