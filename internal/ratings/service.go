// Package ratings implements the rating ledger and the short-list
// maintenance that runs on every rating write.
package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// ErrInvalidRating is returned when a rating value is outside [1, 5].
var ErrInvalidRating = fmt.Errorf("rating must be between %d and %d", models.RatingMin, models.RatingMax)

// Service coordinates rating writes with short-list maintenance. The short
// list is denormalized state: it only ever changes here, as a side effect of
// a rating write, so it can never drift from the ratings that justify it.
type Service struct {
	ratings   db.RatingStore
	couples   db.CoupleReader
	names     db.NameReader
	shortList db.ShortListStore
}

// NewService creates a rating service over the given stores.
func NewService(ratings db.RatingStore, couples db.CoupleReader, names db.NameReader, shortList db.ShortListStore) *Service {
	return &Service{
		ratings:   ratings,
		couples:   couples,
		names:     names,
		shortList: shortList,
	}
}

// Result describes what a rating write did.
type Result struct {
	Name            string                 `json:"name"`
	ShortListChange models.ShortListChange `json:"short_list_change,omitempty"`
	NameID          int64                  `json:"name_id"`
	Rating          int                    `json:"rating"`
}

// Rate records the user's verdict and reconciles the couple's short list.
// Both partners at or above the threshold adds (or refreshes) the entry;
// anything else removes it. Re-rating overwrites, never duplicates.
func (s *Service) Rate(ctx context.Context, userID, nameID, coupleID int64, value int) (*Result, error) {
	if value < models.RatingMin || value > models.RatingMax {
		return nil, ErrInvalidRating
	}

	couple, err := s.couples.GetCoupleByID(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("load couple %d: %w", coupleID, err)
	}

	name, err := s.names.GetNameByID(ctx, nameID)
	if err != nil {
		return nil, fmt.Errorf("load name %d: %w", nameID, err)
	}

	rating := &models.Rating{UserID: userID, NameID: nameID, CoupleID: coupleID, Value: value}
	if err := s.ratings.UpsertRating(ctx, rating); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	change, err := s.reconcileShortList(ctx, couple, userID, nameID, value)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("user_id", userID).
		Int64("name_id", nameID).
		Int("rating", value).
		Str("short_list_change", string(change)).
		Msg("rating recorded")

	return &Result{
		Name:            name.Name,
		ShortListChange: change,
		NameID:          nameID,
		Rating:          value,
	}, nil
}

// reconcileShortList applies the both-partners-agree rule after a write.
func (s *Service) reconcileShortList(ctx context.Context, couple *models.Couple, userID, nameID int64, value int) (models.ShortListChange, error) {
	partnerID := couple.PartnerOf(userID)
	if partnerID == 0 {
		// Single-member couple: nothing can reach the short list yet.
		return models.ShortListNone, nil
	}

	partnerRating, err := s.ratings.GetRating(ctx, partnerID, nameID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return models.ShortListNone, fmt.Errorf("load partner rating: %w", err)
	}

	agree := value >= models.ShortListThreshold &&
		partnerRating != nil && partnerRating.Value >= models.ShortListThreshold

	if agree {
		entry := &models.ShortListEntry{CoupleID: couple.ID, NameID: nameID}
		// Store the ratings in member-slot order, not writer order.
		if userID == couple.User1ID {
			entry.User1Rating, entry.User2Rating = value, partnerRating.Value
		} else {
			entry.User1Rating, entry.User2Rating = partnerRating.Value, value
		}
		if err := s.shortList.UpsertShortListEntry(ctx, entry); err != nil {
			return models.ShortListNone, fmt.Errorf("upsert short list entry: %w", err)
		}
		return models.ShortListAdded, nil
	}

	existed, err := s.shortList.DeleteShortListEntry(ctx, couple.ID, nameID)
	if err != nil {
		return models.ShortListNone, fmt.Errorf("delete short list entry: %w", err)
	}
	if existed {
		return models.ShortListRemoved, nil
	}
	return models.ShortListNone, nil
}

// Recent returns the user's most recent ratings joined with their names.
// A non-positive limit falls back to the default page size.
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]models.RatedName, error) {
	if limit <= 0 {
		limit = models.RecentRatingsLimit
	}
	return s.ratings.RecentRatings(ctx, userID, limit)
}

// Stats summarizes a user's rating activity within their couple.
type Stats struct {
	TotalRatings   int64 `json:"total_ratings"`
	ShortListCount int64 `json:"short_list_count"`
}

// GetStats returns the user's rating count and the couple's short-list size.
func (s *Service) GetStats(ctx context.Context, userID, coupleID int64) (*Stats, error) {
	total, err := s.ratings.CountRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	listed, err := s.shortList.CountShortList(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("count short list: %w", err)
	}
	return &Stats{TotalRatings: total, ShortListCount: listed}, nil
}

// ShortList returns the couple's short list, oldest agreement first.
func (s *Service) ShortList(ctx context.Context, coupleID int64) ([]models.ShortListedName, error) {
	return s.shortList.GetShortList(ctx, coupleID)
}
