package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// NextNameResponse carries the suggested name, or exhausted=true when the
// filtered catalog has been fully rated.
type NextNameResponse struct {
	Name      *models.Name `json:"name"`
	Exhausted bool         `json:"exhausted"`
}

// handleNextName runs the selection engine for one suggestion.
func (s *Service) handleNextName(w http.ResponseWriter, r *http.Request) {
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

	var excludeNameID int64
	if raw := r.URL.Query().Get("exclude_name_id"); raw != "" {
		excludeNameID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid exclude_name_id")
			return
		}
	}

	name, err := s.deps.Selector.SelectNext(r.Context(), userID, coupleID, excludeNameID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "couple not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to select next name")
		return
	}

	writeJSON(w, NextNameResponse{Name: name, Exhausted: name == nil})
}

// queryInt64 parses a required positive integer query parameter.
func queryInt64(r *http.Request, key string) (int64, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}
