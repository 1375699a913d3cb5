// Package gorm provides GORM-based database operations for namematch.
package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahshaw/namematch/internal/db"
)

func TestUserStore_FindOrCreateUser(t *testing.T) {
	store := newTestStore(t)
	users := NewUserStore(store)
	ctx := context.Background()

	u1, err := users.FindOrCreateUser(ctx, "Sam@Example.com")
	require.NoError(t, err)
	assert.Greater(t, u1.ID, int64(0))
	assert.Equal(t, "sam@example.com", u1.Email)

	// Same address in different casing resolves to the same row.
	u2, err := users.FindOrCreateUser(ctx, "  SAM@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestUserStore_Lookups(t *testing.T) {
	store := newTestStore(t)
	users := NewUserStore(store)
	ctx := context.Background()

	created, err := users.FindOrCreateUser(ctx, "sam@example.com")
	require.NoError(t, err)

	byID, err := users.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := users.GetUserByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.GetUserByID(ctx, created.ID+999)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	_, err = users.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, db.ErrNotFound))
}
