// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// RatingStore provides rating-related database operations using GORM.
type RatingStore struct {
	db *gorm.DB
}

// NewRatingStore creates a new rating store.
func NewRatingStore(store *Store) *RatingStore {
	return &RatingStore{db: store.DB}
}

// UpsertRating inserts the rating, or overwrites the value when the user has
// rated this name before. The unique index on (user_id, name_id) is what
// makes the conflict target safe.
func (s *RatingStore) UpsertRating(ctx context.Context, r *models.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	now := time.Now()
	row := RatingRow{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    r.UserID,
		NameID:    r.NameID,
		CoupleID:  r.CoupleID,
		Rating:    r.Value,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"rating":     r.Value,
				"couple_id":  r.CoupleID,
				"updated_at": now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	r.UpdatedAt = now
	return nil
}

// GetRating retrieves one user's rating of one name.
func (s *RatingStore) GetRating(ctx context.Context, userID, nameID int64) (*models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row RatingRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name_id = ?", userID, nameID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &models.Rating{
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		ID:        row.ID,
		UserID:    row.UserID,
		NameID:    row.NameID,
		CoupleID:  row.CoupleID,
		Value:     row.Rating,
	}, nil
}

// RatedNameIDs returns every name ID the user has rated, unordered.
func (s *RatingStore) RatedNameIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&RatingRow{}).
		Where("user_id = ?", userID).
		Pluck("name_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RatingsForNames returns the user's ratings restricted to the given name
// IDs, keyed by name ID. Used for the partner-agreement pass, so the ID set
// is bounded by the candidate sample size.
func (s *RatingStore) RatingsForNames(ctx context.Context, userID int64, nameIDs []int64) (map[int64]int, error) {
	if len(nameIDs) == 0 {
		return map[int64]int{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var rows []RatingRow
	err := s.db.WithContext(ctx).
		Select("name_id", "rating").
		Where("user_id = ? AND name_id IN ?", userID, nameIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]int, len(rows))
	for i := range rows {
		out[rows[i].NameID] = rows[i].Rating
	}
	return out, nil
}

// TopRatedTraits returns the letter/origin/tag attributes of the names the
// user rated at or above minRating.
func (s *RatingStore) TopRatedTraits(ctx context.Context, userID int64, minRating int) ([]models.NameTraits, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var rows []struct {
		StartingLetter string
		Origin         string
		MeaningTags    models.JSONStringArray
	}
	err := s.db.WithContext(ctx).
		Model(&RatingRow{}).
		Select("names.starting_letter", "names.origin", "names.meaning_tags").
		Joins("JOIN names ON names.id = ratings.name_id").
		Where("ratings.user_id = ? AND ratings.rating >= ?", userID, minRating).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	traits := make([]models.NameTraits, 0, len(rows))
	for i := range rows {
		traits = append(traits, models.NameTraits{
			StartingLetter: rows[i].StartingLetter,
			Origin:         rows[i].Origin,
			MeaningTags:    rows[i].MeaningTags,
		})
	}
	return traits, nil
}

// RecentRatedNameIDs returns up to limit name IDs ordered by rating recency,
// most recent first.
func (s *RatingStore) RecentRatedNameIDs(ctx context.Context, userID int64, limit int) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&RatingRow{}).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Pluck("name_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RecentRatings returns the user's most recent ratings joined with their
// names, most recent first.
func (s *RatingStore) RecentRatings(ctx context.Context, userID int64, limit int) ([]models.RatedName, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var rows []struct {
		Name      string
		UpdatedAt time.Time
		NameID    int64
		Rating    int
	}
	err := s.db.WithContext(ctx).
		Model(&RatingRow{}).
		Select("names.name", "ratings.updated_at", "ratings.name_id", "ratings.rating").
		Joins("JOIN names ON names.id = ratings.name_id").
		Where("ratings.user_id = ?", userID).
		Order("ratings.updated_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.RatedName, 0, len(rows))
	for i := range rows {
		out = append(out, models.RatedName{
			Name:      rows[i].Name,
			UpdatedAt: rows[i].UpdatedAt,
			NameID:    rows[i].NameID,
			Value:     rows[i].Rating,
		})
	}
	return out, nil
}

// CountRatings returns how many names the user has rated.
func (s *RatingStore) CountRatings(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Model(&RatingRow{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
