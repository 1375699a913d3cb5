// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// UserStore provides user-related database operations using GORM.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new user store.
func NewUserStore(store *Store) *UserStore {
	return &UserStore{db: store.DB}
}

// GetUserByID retrieves a user by database ID.
func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row UserRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetUserByEmail retrieves a user by normalized email.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, FastQueryTimeout)
	defer cancel()

	var row UserRow
	err := s.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// FindOrCreateUser returns the user with the given email, creating it on
// first sight. Idempotent: concurrent calls for the same email converge on
// one row via the unique index.
func (s *UserStore) FindOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	row := UserRow{Email: normalizeEmail(email)}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Lost the race or already existed; fetch the winner.
		var existing UserRow
		err := s.db.WithContext(ctx).
			Where("email = ?", row.Email).
			First(&existing).Error
		if err != nil {
			return nil, err
		}
		return existing.toModel(), nil
	}

	return row.toModel(), nil
}

// normalizeEmail lowercases and trims so the same address never creates two
// users.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
