// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePasswordResetPIN(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	pin, err := repo.CreatePasswordResetPIN(ctx, "jane@example.org", "hash", created)

	require.NoError(t, err)
	assert.NotZero(t, pin.ID)

	got, err := repo.GetLatestPasswordResetPIN(ctx, "jane@example.org")
	require.NoError(t, err)
	assert.Equal(t, pin.ID, got.ID)
	assert.Equal(t, "hash", got.PINHash)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestGetLatestPasswordResetPIN_NewestWins(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.CreatePasswordResetPIN(ctx, "jane@example.org", "old", base)
	require.NoError(t, err)
	_, err = repo.CreatePasswordResetPIN(ctx, "jane@example.org", "new", base.Add(time.Minute))
	require.NoError(t, err)

	got, err := repo.GetLatestPasswordResetPIN(ctx, "JANE@example.org")

	require.NoError(t, err)
	assert.Equal(t, "new", got.PINHash)
}

func TestGetLatestPasswordResetPIN_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetLatestPasswordResetPIN(context.Background(), "nobody@example.org")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeletePasswordResetPINs(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repo.CreatePasswordResetPIN(ctx, "jane@example.org", "a", now)
	require.NoError(t, err)
	_, err = repo.CreatePasswordResetPIN(ctx, "jane@example.org", "b", now)
	require.NoError(t, err)
	_, err = repo.CreatePasswordResetPIN(ctx, "john@example.org", "c", now)
	require.NoError(t, err)

	n, err := repo.DeletePasswordResetPINs(ctx, "jane@example.org")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.GetLatestPasswordResetPIN(ctx, "jane@example.org")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetLatestPasswordResetPIN(ctx, "john@example.org")
	assert.NoError(t, err)
}

func TestDeletePasswordResetPIN(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	pin, err := repo.CreatePasswordResetPIN(ctx, "jane@example.org", "a", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.DeletePasswordResetPIN(ctx, pin.ID))

	_, err = repo.GetLatestPasswordResetPIN(ctx, "jane@example.org")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeletePasswordResetPINsBefore(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.CreatePasswordResetPIN(ctx, "old@example.org", "a", base)
	require.NoError(t, err)
	_, err = repo.CreatePasswordResetPIN(ctx, "fresh@example.org", "b", base.Add(time.Hour))
	require.NoError(t, err)

	n, err := repo.DeletePasswordResetPINsBefore(ctx, base.Add(30*time.Minute))

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.GetLatestPasswordResetPIN(ctx, "fresh@example.org")
	assert.NoError(t, err)
}
