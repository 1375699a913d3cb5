package models

import "time"

// User is identified by email only. There is no password auth; the identify
// endpoint finds-or-creates by normalized email.
type User struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

// Couple links two users and holds their shared catalog filters. User2ID is
// zero while the couple is waiting for the partner to identify.
type Couple struct {
	GenderFilter      GenderFilter `json:"gender_filter"`
	FirstLetterFilter string       `json:"first_letter_filter"`
	CreatedAt         time.Time    `json:"created_at"`
	ID                int64        `json:"id"`
	User1ID           int64        `json:"user_1_id"`
	User2ID           int64        `json:"user_2_id,omitempty"`
}

// PartnerOf returns the other member's ID, or 0 when the couple has a single
// member or userID is not a member at all.
func (c *Couple) PartnerOf(userID int64) int64 {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	default:
		return 0
	}
}

// Filter returns the couple's catalog restriction.
func (c *Couple) Filter() NameFilter {
	return NameFilter{Gender: c.GenderFilter, FirstLetter: c.FirstLetterFilter}
}
