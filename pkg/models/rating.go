package models

import "time"

// Rating bounds. A rating is always an integer in [RatingMin, RatingMax].
const (
	RatingMin = 1
	RatingMax = 5
)

// ShortListThreshold is the minimum rating at which a name counts as "loved".
// Shared by the short-list maintenance logic and the selection engine's
// partner-agreement and taste-similarity terms.
const ShortListThreshold = 4

// RecentRatingsLimit is the default page size for the recent-ratings sidebar.
const RecentRatingsLimit = 5

// Rating is one user's verdict on one name. One row per (user, name);
// re-rating overwrites the value and bumps UpdatedAt.
type Rating struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	NameID    int64     `json:"name_id"`
	CoupleID  int64     `json:"couple_id"`
	Value     int       `json:"rating"`
}

// RatedName is a rating joined with the name it refers to, for recency views.
type RatedName struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	NameID    int64     `json:"name_id"`
	Value     int       `json:"rating"`
}

// ShortListEntry is the denormalized record of a name both partners rated at
// or above ShortListThreshold. Maintained by the rating service on every
// rating write, never by the selection engine.
type ShortListEntry struct {
	AddedAt     time.Time `json:"added_at"`
	ID          int64     `json:"id"`
	CoupleID    int64     `json:"couple_id"`
	NameID      int64     `json:"name_id"`
	User1Rating int       `json:"user_1_rating"`
	User2Rating int       `json:"user_2_rating"`
}

// ShortListedName is a short-list entry joined with its name.
type ShortListedName struct {
	Name        string    `json:"name"`
	AddedAt     time.Time `json:"added_at"`
	NameID      int64     `json:"name_id"`
	User1Rating int       `json:"user_1_rating"`
	User2Rating int       `json:"user_2_rating"`
}

// ShortListChange describes what a rating write did to the couple's short list.
type ShortListChange string

const (
	ShortListAdded   ShortListChange = "added"
	ShortListRemoved ShortListChange = "removed"
	ShortListNone    ShortListChange = ""
)
