// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// CoupleStore provides couple-related database operations using GORM.
type CoupleStore struct {
	db *gorm.DB
}

// NewCoupleStore creates a new couple store.
func NewCoupleStore(store *Store) *CoupleStore {
	return &CoupleStore{db: store.DB}
}

// GetCoupleByID retrieves a couple by database ID.
func (s *CoupleStore) GetCoupleByID(ctx context.Context, id int64) (*models.Couple, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row CoupleRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetCoupleByMember retrieves the couple the user belongs to, in either slot.
func (s *CoupleStore) GetCoupleByMember(ctx context.Context, userID int64) (*models.Couple, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row CoupleRow
	err := s.db.WithContext(ctx).
		Where("user_1_id = ? OR user_2_id = ?", userID, userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// CreateCouple creates a couple with the first slot filled. Filters default
// to "all" when unset.
func (s *CoupleStore) CreateCouple(ctx context.Context, c *models.Couple) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	row := CoupleRow{
		GenderFilter:      string(c.GenderFilter),
		FirstLetterFilter: c.FirstLetterFilter,
		User1ID:           c.User1ID,
	}
	if c.User2ID != 0 {
		row.User2ID = &c.User2ID
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	c.ID = row.ID
	c.GenderFilter = models.GenderFilter(row.GenderFilter)
	c.FirstLetterFilter = row.FirstLetterFilter
	c.CreatedAt = row.CreatedAt
	return nil
}

// DeleteCouplesByMember removes every couple the user belongs to. Used when
// re-pairing: a user can only ever be in one active couple.
func (s *CoupleStore) DeleteCouplesByMember(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	return s.db.WithContext(ctx).
		Where("user_1_id = ? OR user_2_id = ?", userID, userID).
		Delete(&CoupleRow{}).Error
}

// JoinCouple fills the empty second slot of a waiting couple. Fails when the
// couple does not exist, already has two members, or the joiner created it.
func (s *CoupleStore) JoinCouple(ctx context.Context, coupleID, userID int64) (*models.Couple, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var joined *models.Couple
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row CoupleRow
		err := tx.First(&row, coupleID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.ErrNotFound
		}
		if err != nil {
			return err
		}
		if row.User2ID != nil {
			return fmt.Errorf("couple %d is already complete", coupleID)
		}
		if row.User1ID == userID {
			return fmt.Errorf("user %d cannot join their own couple", userID)
		}

		// Guard the update on the slot still being empty so a concurrent
		// joiner cannot displace the winner.
		result := tx.Model(&CoupleRow{}).
			Where("id = ? AND user_2_id IS NULL", coupleID).
			Update("user_2_id", userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("couple %d is already complete", coupleID)
		}

		row.User2ID = &userID
		joined = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// UpdateCoupleFilters changes the couple's shared catalog filters. Nil
// arguments leave the current value in place.
func (s *CoupleStore) UpdateCoupleFilters(ctx context.Context, id int64, gender *models.GenderFilter, firstLetter *string) (*models.Couple, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	updates := map[string]interface{}{}
	if gender != nil {
		updates["gender_filter"] = string(*gender)
	}
	if firstLetter != nil {
		updates["first_letter_filter"] = *firstLetter
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).
			Model(&CoupleRow{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, db.ErrNotFound
		}
	}

	return s.GetCoupleByID(ctx, id)
}

// GetWaitingCoupleByCreator finds a couple the user created that still has
// an empty second slot.
func (s *CoupleStore) GetWaitingCoupleByCreator(ctx context.Context, userID int64) (*models.Couple, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row CoupleRow
	err := s.db.WithContext(ctx).
		Where("user_1_id = ? AND user_2_id IS NULL", userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
