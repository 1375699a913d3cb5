// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// NameStore provides read access to the name catalog using GORM.
// The catalog is reference data; nothing here mutates it.
type NameStore struct {
	db *gorm.DB
}

// NewNameStore creates a new name store.
func NewNameStore(store *Store) *NameStore {
	return &NameStore{db: store.DB}
}

// GetNameByID retrieves a single catalog entry.
func (s *NameStore) GetNameByID(ctx context.Context, id int64) (*models.Name, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var row NameRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// SampleCandidates draws up to limit rows uniformly at random from the
// filtered catalog, excluding the given IDs. RANDOM() works on both
// PostgreSQL and SQLite, which keeps the test path identical to production.
func (s *NameStore) SampleCandidates(ctx context.Context, f models.NameFilter, excludeIDs []int64, limit int) ([]models.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	q := s.db.WithContext(ctx).
		Model(&NameRow{}).
		Select("id", "name", "starting_letter", "origin", "us_rank", "meaning_tags")
	q = applyFilter(q, f)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var rows []NameRow
	if err := q.Order("RANDOM()").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(rows))
	for i := range rows {
		candidates = append(candidates, models.Candidate{
			Name:           rows[i].Name,
			StartingLetter: rows[i].StartingLetter,
			Origin:         rows[i].Origin,
			MeaningTags:    rows[i].MeaningTags,
			ID:             rows[i].ID,
			USRank:         rows[i].USRank,
		})
	}
	return candidates, nil
}

// CountNames returns the unfiltered catalog size.
func (s *NameStore) CountNames(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&NameRow{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter translates a couple's catalog restriction into WHERE clauses.
func applyFilter(q *gorm.DB, f models.NameFilter) *gorm.DB {
	switch f.Gender {
	case models.GenderBoy:
		q = q.Where("is_boy = ?", true)
	case models.GenderGirl:
		q = q.Where("is_girl = ?", true)
	}
	if f.FirstLetter != "" && f.FirstLetter != models.LetterFilterAll {
		q = q.Where("starting_letter = ?", f.FirstLetter)
	}
	return q
}
