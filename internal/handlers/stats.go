package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/calendar"
)

type CalendarResponse struct {
	Month string          `json:"month"`
	Days  []calendar.Cell `json:"days"`
}

// location resolves ?tz=, defaulting to UTC.
func location(r *http.Request) (*time.Location, bool) {
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// Stats handles GET /api/diaries/stats?tz=.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	loc, ok := location(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid time zone")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Diaries.Stats(ctx, uid, loc)
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Calendar handles GET /api/diaries/calendar?month=YYYY-MM&tz=. The month defaults to the current one.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	loc, ok := location(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid time zone")
		return
	}

	month := time.Now().In(loc)
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.ParseInLocation("2006-01", m, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		month = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	days, err := h.Diaries.Month(ctx, uid, month)
	if err != nil {
		respondError(w, r, err, msgDiaryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, CalendarResponse{Month: month.Format("2006-01"), Days: days})
}
