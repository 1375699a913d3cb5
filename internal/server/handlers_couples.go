package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// CreateCoupleRequest is the body of POST /api/couples.
type CreateCoupleRequest struct {
	PartnerEmail string `json:"partner_email" validate:"required,email"`
	UserID       int64  `json:"user_id" validate:"required,gt=0"`
}

// UpdateCoupleRequest is the body of PATCH /api/couples/{coupleID}. Absent
// fields leave the current setting untouched.
type UpdateCoupleRequest struct {
	GenderFilter      *string `json:"gender_filter,omitempty"`
	FirstLetterFilter *string `json:"first_letter_filter,omitempty"`
}

// CoupleResponse is a couple joined with its member emails.
type CoupleResponse struct {
	Couple     *models.Couple `json:"couple"`
	User1Email string         `json:"user_1_email"`
	User2Email string         `json:"user_2_email,omitempty"`
}

// handleCreateCouple pairs the caller with a partner by email. Joining a
// couple the partner already created wins over creating a new one, so two
// people who each submit the other's email end up in a single couple.
func (s *Service) handleCreateCouple(w http.ResponseWriter, r *http.Request) {
	var req CreateCoupleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	user, err := s.deps.Users.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	partner, err := s.deps.Users.FindOrCreateUser(ctx, req.PartnerEmail)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve partner")
		return
	}
	if partner.ID == user.ID {
		writeError(w, http.StatusBadRequest, "cannot pair with yourself")
		return
	}

	// Re-pairing replaces any previous couple.
	if err := s.deps.Couples.DeleteCouplesByMember(ctx, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to dissolve previous couple")
		return
	}

	var couple *models.Couple
	waiting, err := s.deps.Couples.GetWaitingCoupleByCreator(ctx, partner.ID)
	switch {
	case err == nil:
		couple, err = s.deps.Couples.JoinCouple(ctx, waiting.ID, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to join couple")
			return
		}
	case errors.Is(err, db.ErrNotFound):
		couple = &models.Couple{
			User1ID:           user.ID,
			GenderFilter:      models.GenderAll,
			FirstLetterFilter: models.LetterFilterAll,
		}
		if err := s.deps.Couples.CreateCouple(ctx, couple); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create couple")
			return
		}
	default:
		writeError(w, http.StatusInternalServerError, "failed to look up partner's couple")
		return
	}

	log.Info().
		Int64("couple_id", couple.ID).
		Int64("user_id", user.ID).
		Int64("partner_id", partner.ID).
		Msg("couple pairing updated")

	resp, err := s.coupleResponse(r, couple)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load couple members")
		return
	}
	writeJSON(w, resp)
}

// handleGetCouple returns a couple with its member emails.
func (s *Service) handleGetCouple(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "coupleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid couple id")
		return
	}

	couple, err := s.deps.Couples.GetCoupleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "couple not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load couple")
		return
	}

	resp, err := s.coupleResponse(r, couple)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load couple members")
		return
	}
	writeJSON(w, resp)
}

// handleUpdateCouple applies a validated settings patch.
func (s *Service) handleUpdateCouple(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "coupleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid couple id")
		return
	}

	var req UpdateCoupleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var gender *models.GenderFilter
	if req.GenderFilter != nil {
		g := models.GenderFilter(strings.ToLower(*req.GenderFilter))
		if !g.Valid() {
			writeError(w, http.StatusBadRequest, "gender_filter must be boy, girl, or all")
			return
		}
		gender = &g
	}

	var letter *string
	if req.FirstLetterFilter != nil {
		l, ok := normalizeLetterFilter(*req.FirstLetterFilter)
		if !ok {
			writeError(w, http.StatusBadRequest, "first_letter_filter must be a single letter or all")
			return
		}
		letter = &l
	}

	couple, err := s.deps.Couples.UpdateCoupleFilters(r.Context(), id, gender, letter)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "couple not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update couple")
		return
	}

	resp, err := s.coupleResponse(r, couple)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load couple members")
		return
	}
	writeJSON(w, resp)
}

// normalizeLetterFilter accepts "all" or one A-Z letter, case-insensitive.
func normalizeLetterFilter(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, models.LetterFilterAll) {
		return models.LetterFilterAll, true
	}
	if len(raw) != 1 {
		return "", false
	}
	upper := strings.ToUpper(raw)
	if upper[0] < 'A' || upper[0] > 'Z' {
		return "", false
	}
	return upper, true
}

// coupleResponse joins a couple with its member emails.
func (s *Service) coupleResponse(r *http.Request, couple *models.Couple) (*CoupleResponse, error) {
	resp := &CoupleResponse{Couple: couple}

	user1, err := s.deps.Users.GetUserByID(r.Context(), couple.User1ID)
	if err != nil {
		return nil, err
	}
	resp.User1Email = user1.Email

	if couple.User2ID != 0 {
		user2, err := s.deps.Users.GetUserByID(r.Context(), couple.User2ID)
		if err != nil {
			return nil, err
		}
		resp.User2Email = user2.Email
	}
	return resp, nil
}
