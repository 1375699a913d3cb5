// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/noahshaw/namematch/pkg/models"
)

// GORM Models

// NameRow is the catalog table. Reference data seeded from the national name
// dataset; the application never writes to it.
type NameRow struct {
	Name                 string                 `gorm:"not null"`
	NameLower            string                 `gorm:"uniqueIndex;not null"`
	Origin               string                 `gorm:"index:idx_names_origin"`
	Meaning              string                 `gorm:"type:text"`
	FamousPerson1        string                 `gorm:"column:famous_person_1"`
	FamousPerson2        string                 `gorm:"column:famous_person_2"`
	FamousPerson3        string                 `gorm:"column:famous_person_3"`
	Phonetic             string                 ``
	StartingLetter       string                 `gorm:"type:char(1);index:idx_names_starting_letter;not null"`
	AlternativeSpellings models.JSONStringArray `gorm:"type:text"`
	MeaningTags          models.JSONStringArray `gorm:"type:text"`
	CreatedAt            time.Time              `gorm:"not null"`
	ID                   int64                  `gorm:"primaryKey;autoIncrement"`
	USRank               int                    `gorm:"column:us_rank;default:0;index:idx_names_us_rank;not null"`
	WorldRank            int                    `gorm:"default:0;not null"`
	SyllableCount        int                    `gorm:"default:0"`
	IsBoy                bool                   `gorm:"default:false;index:idx_names_is_boy;not null"`
	IsGirl               bool                   `gorm:"default:false;index:idx_names_is_girl;not null"`
}

func (NameRow) TableName() string { return "names" }

// BeforeCreate hook to ensure timestamps are set.
func (n *NameRow) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}

// UserRow is email-only identification; there is no credential storage.
type UserRow struct {
	Email     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ID        int64     `gorm:"primaryKey;autoIncrement"`
}

func (UserRow) TableName() string { return "users" }

// BeforeCreate hook to ensure timestamps are set.
func (u *UserRow) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// CoupleRow links two users. User2ID stays NULL while the couple waits for
// the partner to identify.
type CoupleRow struct {
	GenderFilter      string    `gorm:"type:text;check:gender_filter IN ('boy', 'girl', 'all');default:'all';not null"`
	FirstLetterFilter string    `gorm:"type:text;default:'all';not null"`
	CreatedAt         time.Time `gorm:"not null"`
	User2ID           *int64    `gorm:"column:user_2_id;index:idx_couples_user_2"`
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	User1ID           int64     `gorm:"column:user_1_id;index:idx_couples_user_1;not null"`
}

func (CoupleRow) TableName() string { return "couples" }

// BeforeCreate hook to ensure timestamps and filter defaults are set.
func (c *CoupleRow) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.GenderFilter == "" {
		c.GenderFilter = string(models.GenderAll)
	}
	if c.FirstLetterFilter == "" {
		c.FirstLetterFilter = models.LetterFilterAll
	}
	return nil
}

// RatingRow is one row per (user, name); the unique index is what makes the
// upsert path safe.
type RatingRow struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"index:idx_ratings_user_updated,priority:2;not null"`
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"uniqueIndex:idx_ratings_user_name_unique,priority:1;index:idx_ratings_user_updated,priority:1;not null"`
	NameID    int64     `gorm:"uniqueIndex:idx_ratings_user_name_unique,priority:2;not null"`
	CoupleID  int64     `gorm:"index:idx_ratings_couple;not null"`
	Rating    int       `gorm:"check:rating >= 1 AND rating <= 5;not null"`
}

func (RatingRow) TableName() string { return "ratings" }

// BeforeCreate hook to ensure timestamps are set.
func (r *RatingRow) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	return nil
}

// ShortListRow is the denormalized both-partners-agree table, maintained by
// application logic on every rating write.
type ShortListRow struct {
	AddedAt     time.Time `gorm:"index:idx_short_list_couple,priority:2;not null"`
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	CoupleID    int64     `gorm:"uniqueIndex:idx_short_list_couple_name_unique,priority:1;index:idx_short_list_couple,priority:1;not null"`
	NameID      int64     `gorm:"uniqueIndex:idx_short_list_couple_name_unique,priority:2;not null"`
	User1Rating int       `gorm:"column:user_1_rating;not null"`
	User2Rating int       `gorm:"column:user_2_rating;not null"`
}

func (ShortListRow) TableName() string { return "short_list" }

// BeforeCreate hook to ensure timestamps are set.
func (s *ShortListRow) BeforeCreate(tx *gorm.DB) error {
	if s.AddedAt.IsZero() {
		s.AddedAt = time.Now()
	}
	return nil
}

// Conversions to domain models

func (n *NameRow) toModel() *models.Name {
	return &models.Name{
		Name:                 n.Name,
		NameLower:            n.NameLower,
		Origin:               n.Origin,
		Meaning:              n.Meaning,
		FamousPerson1:        n.FamousPerson1,
		FamousPerson2:        n.FamousPerson2,
		FamousPerson3:        n.FamousPerson3,
		Phonetic:             n.Phonetic,
		StartingLetter:       n.StartingLetter,
		AlternativeSpellings: n.AlternativeSpellings,
		MeaningTags:          n.MeaningTags,
		CreatedAt:            n.CreatedAt,
		ID:                   n.ID,
		USRank:               n.USRank,
		WorldRank:            n.WorldRank,
		SyllableCount:        n.SyllableCount,
		IsBoy:                n.IsBoy,
		IsGirl:               n.IsGirl,
	}
}

func (u *UserRow) toModel() *models.User {
	return &models.User{Email: u.Email, CreatedAt: u.CreatedAt, ID: u.ID}
}

func (c *CoupleRow) toModel() *models.Couple {
	m := &models.Couple{
		GenderFilter:      models.GenderFilter(c.GenderFilter),
		FirstLetterFilter: c.FirstLetterFilter,
		CreatedAt:         c.CreatedAt,
		ID:                c.ID,
		User1ID:           c.User1ID,
	}
	if c.User2ID != nil {
		m.User2ID = *c.User2ID
	}
	return m
}
