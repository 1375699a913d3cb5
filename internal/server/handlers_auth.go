package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// userCookieMaxAge keeps the identity cookie for a year.
const userCookieMaxAge = int(365 * 24 * time.Hour / time.Second)

// IdentifyRequest is the body of POST /api/auth/identify.
type IdentifyRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// IdentifyResponse returns the user and their couple, if any.
type IdentifyResponse struct {
	User   *models.User   `json:"user"`
	Couple *models.Couple `json:"couple"`
}

// handleIdentify finds or creates a user by email and reports their couple.
func (s *Service) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.deps.Users.FindOrCreateUser(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to identify user")
		return
	}

	couple, err := s.deps.Couples.GetCoupleByMember(r.Context(), user.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to load couple")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "userId",
		Value:    strconv.FormatInt(user.ID, 10),
		Path:     "/",
		MaxAge:   userCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, IdentifyResponse{User: user, Couple: couple})
}
