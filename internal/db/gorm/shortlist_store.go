// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noahshaw/namematch/pkg/models"
)

// ShortListStore maintains the denormalized couple short list using GORM.
// Rows only ever change as a side effect of rating writes.
type ShortListStore struct {
	db *gorm.DB
}

// NewShortListStore creates a new short list store.
func NewShortListStore(store *Store) *ShortListStore {
	return &ShortListStore{db: store.DB}
}

// UpsertShortListEntry inserts the entry or refreshes the stored ratings
// when the couple/name pair is already listed. AddedAt is preserved across
// refreshes so the list keeps its original order.
func (s *ShortListStore) UpsertShortListEntry(ctx context.Context, e *models.ShortListEntry) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	row := ShortListRow{
		AddedAt:     time.Now(),
		CoupleID:    e.CoupleID,
		NameID:      e.NameID,
		User1Rating: e.User1Rating,
		User2Rating: e.User2Rating,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "couple_id"}, {Name: "name_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_1_rating": e.User1Rating,
				"user_2_rating": e.User2Rating,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	e.ID = row.ID
	e.AddedAt = row.AddedAt
	return nil
}

// DeleteShortListEntry removes the entry and reports whether one existed.
func (s *ShortListStore) DeleteShortListEntry(ctx context.Context, coupleID, nameID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	result := s.db.WithContext(ctx).
		Where("couple_id = ? AND name_id = ?", coupleID, nameID).
		Delete(&ShortListRow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetShortList returns the couple's short list joined with names, newest
// agreement first.
func (s *ShortListStore) GetShortList(ctx context.Context, coupleID int64) ([]models.ShortListedName, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var rows []struct {
		Name        string
		AddedAt     time.Time
		NameID      int64
		User1Rating int
		User2Rating int
	}
	err := s.db.WithContext(ctx).
		Model(&ShortListRow{}).
		Select("names.name", "short_list.added_at", "short_list.name_id",
			"short_list.user_1_rating", "short_list.user_2_rating").
		Joins("JOIN names ON names.id = short_list.name_id").
		Where("short_list.couple_id = ?", coupleID).
		Order("short_list.added_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ShortListedName, 0, len(rows))
	for i := range rows {
		out = append(out, models.ShortListedName{
			Name:        rows[i].Name,
			AddedAt:     rows[i].AddedAt,
			NameID:      rows[i].NameID,
			User1Rating: rows[i].User1Rating,
			User2Rating: rows[i].User2Rating,
		})
	}
	return out, nil
}

// CountShortList returns the number of short-listed names for the couple.
func (s *ShortListStore) CountShortList(ctx context.Context, coupleID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Model(&ShortListRow{}).
		Where("couple_id = ?", coupleID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
