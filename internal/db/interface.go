// Package db defines database interfaces for the namematch stores.
package db

import (
	"context"
	"errors"

	"github.com/noahshaw/namematch/pkg/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// NameReader defines read operations on the name catalog. The catalog is
// immutable reference data; there is no writer interface.
type NameReader interface {
	GetNameByID(ctx context.Context, id int64) (*models.Name, error)

	// SampleCandidates draws a uniform random sample from the filtered
	// catalog, excluding the given name IDs. The sample is taken at call
	// time, never precomputed.
	SampleCandidates(ctx context.Context, f models.NameFilter, excludeIDs []int64, limit int) ([]models.Candidate, error)

	// CountNames returns the unfiltered catalog size, used for the
	// popularity percentile bounds.
	CountNames(ctx context.Context) (int64, error)
}

// RatingReader defines the read operations the selection engine needs.
type RatingReader interface {
	// RatedNameIDs returns every name ID the user has rated.
	RatedNameIDs(ctx context.Context, userID int64) ([]int64, error)

	// RatingsForNames returns the user's ratings restricted to the given
	// name IDs, keyed by name ID.
	RatingsForNames(ctx context.Context, userID int64, nameIDs []int64) (map[int64]int, error)

	// TopRatedTraits returns the letter/origin/tag attributes of names the
	// user rated at or above minRating.
	TopRatedTraits(ctx context.Context, userID int64, minRating int) ([]models.NameTraits, error)

	// RecentRatedNameIDs returns up to limit name IDs ordered by rating
	// recency, most recent first.
	RecentRatedNameIDs(ctx context.Context, userID int64, limit int) ([]int64, error)
}

// RatingStore combines the engine's read surface with the write operations
// used by the rating service.
type RatingStore interface {
	RatingReader

	// UpsertRating inserts or overwrites the (user, name) rating. Re-rating
	// never creates a duplicate row.
	UpsertRating(ctx context.Context, r *models.Rating) error

	GetRating(ctx context.Context, userID, nameID int64) (*models.Rating, error)
	RecentRatings(ctx context.Context, userID int64, limit int) ([]models.RatedName, error)
	CountRatings(ctx context.Context, userID int64) (int64, error)
}

// CoupleReader defines couple lookups.
type CoupleReader interface {
	GetCoupleByID(ctx context.Context, id int64) (*models.Couple, error)
	GetCoupleByMember(ctx context.Context, userID int64) (*models.Couple, error)
}

// CoupleStore combines couple reads with pairing and settings writes.
type CoupleStore interface {
	CoupleReader

	CreateCouple(ctx context.Context, c *models.Couple) error
	DeleteCouplesByMember(ctx context.Context, userID int64) error

	// JoinCouple fills the empty second slot of a waiting couple.
	JoinCouple(ctx context.Context, coupleID, userID int64) (*models.Couple, error)

	UpdateCoupleFilters(ctx context.Context, id int64, gender *models.GenderFilter, firstLetter *string) (*models.Couple, error)

	// GetWaitingCoupleByCreator finds a couple the given user created that
	// still has an empty second slot.
	GetWaitingCoupleByCreator(ctx context.Context, userID int64) (*models.Couple, error)
}

// UserStore defines user lookups and the find-or-create used by identify.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindOrCreateUser(ctx context.Context, email string) (*models.User, error)
}

// ShortListStore maintains the denormalized couple short list.
type ShortListStore interface {
	UpsertShortListEntry(ctx context.Context, e *models.ShortListEntry) error

	// DeleteShortListEntry removes the entry and reports whether one existed.
	DeleteShortListEntry(ctx context.Context, coupleID, nameID int64) (bool, error)

	GetShortList(ctx context.Context, coupleID int64) ([]models.ShortListedName, error)
	CountShortList(ctx context.Context, coupleID int64) (int64, error)
}
