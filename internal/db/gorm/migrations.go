// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Name catalog
		{
			ID: "001_names",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&NameRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("names")
			},
		},

		// Migration 002: Users and couples
		{
			ID: "002_users_couples",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&UserRow{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&CoupleRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("users", "couples")
			},
		},

		// Migration 003: Ratings (one row per user+name, upsert on re-rate)
		{
			ID: "003_ratings",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&RatingRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("ratings")
			},
		},

		// Migration 004: Denormalized short list for fast couple reads
		{
			ID: "004_short_list",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&ShortListRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("short_list")
			},
		},
	})

	return m.Migrate()
}
