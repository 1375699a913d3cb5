package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/internal/ratings"
)

// RateRequest is the body of POST /api/ratings.
type RateRequest struct {
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
	NameID   int64 `json:"name_id" validate:"required,gt=0"`
	CoupleID int64 `json:"couple_id" validate:"required,gt=0"`
	Rating   int   `json:"rating" validate:"required,min=1,max=5"`
}

// handleRate records a rating and reports the short-list change.
func (s *Service) handleRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.deps.Ratings.Rate(r.Context(), req.UserID, req.NameID, req.CoupleID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, ratings.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrNotFound):
			writeError(w, http.StatusNotFound, "couple or name not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to record rating")
		}
		return
	}

	writeJSON(w, result)
}

// handleRecentRatings returns the user's most recent rated names.
func (s *Service) handleRecentRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	recent, err := s.deps.Ratings.Recent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recent ratings")
		return
	}
	writeJSON(w, map[string]interface{}{"ratings": recent})
}

// handleRatingStats returns rating and short-list counts.
func (s *Service) handleRatingStats(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	coupleID, err := queryInt64(r, "couple_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid couple_id")
		return
	}

	stats, err := s.deps.Ratings.GetStats(r.Context(), userID, coupleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rating stats")
		return
	}
	writeJSON(w, stats)
}

// handleShortList returns the couple's agreed names.
func (s *Service) handleShortList(w http.ResponseWriter, r *http.Request) {
	coupleID, err := queryInt64(r, "couple_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid couple_id")
		return
	}

	entries, err := s.deps.Ratings.ShortList(r.Context(), coupleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load short list")
		return
	}
	writeJSON(w, map[string]interface{}{"short_list": entries})
}
