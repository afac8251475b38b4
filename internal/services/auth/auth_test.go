// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activationRecorder struct {
	sent []int64
	err  error
}

func (a *activationRecorder) Send(_ context.Context, user *models.User) error {
	if a.err != nil {
		return a.err
	}
	a.sent = append(a.sent, user.ID)
	return nil
}

func setup(t *testing.T) (*repository.Repository, *activationRecorder, *auth.Service) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	rec := &activationRecorder{}
	return repo, rec, auth.NewService(repo, rec)
}

func registerParams() auth.RegisterParams {
	return auth.RegisterParams{
		Email:           "jane@example.org",
		Password:        "river-stone-42",
		PasswordConfirm: "river-stone-42",
		FirstName:       "Jane",
		LastName:        "Doe",
	}
}

func TestRegister(t *testing.T) {
	repo, rec, svc := setup(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerParams())

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsActive)
	assert.Equal(t, []int64{user.ID}, rec.sent)

	stored, err := repo.GetUserByEmail(ctx, "jane@example.org")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.NotEqual(t, "river-stone-42", stored.PasswordHash)
}

func TestRegister_InvalidEmail(t *testing.T) {
	_, _, svc := setup(t)
	params := registerParams()
	params.Email = "not-an-email"

	_, err := svc.Register(context.Background(), params)

	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	_, rec, svc := setup(t)
	params := registerParams()
	params.PasswordConfirm = "something-else"

	_, err := svc.Register(context.Background(), params)

	require.ErrorIs(t, err, auth.ErrValidationFailed)
	var verr *auth.PasswordValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, auth.CodeMismatch, verr.FirstCode())
	assert.Empty(t, rec.sent)
}

func TestRegister_WeakPassword(t *testing.T) {
	_, _, svc := setup(t)
	params := registerParams()
	params.Password = "short"
	params.PasswordConfirm = "short"

	_, err := svc.Register(context.Background(), params)

	assert.ErrorIs(t, err, auth.ErrValidationFailed)
}

func TestRegister_Duplicate(t *testing.T) {
	_, _, svc := setup(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registerParams())
	require.NoError(t, err)

	params := registerParams()
	params.Email = "JANE@example.org"
	_, err = svc.Register(ctx, params)

	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	repo, rec, svc := setup(t)
	ctx := context.Background()
	rec.err = fmt.Errorf("%w: smtp down", auth.ErrMailDeliveryFailed)

	user, err := svc.Register(ctx, registerParams())

	require.ErrorIs(t, err, auth.ErrMailDeliveryFailed)
	require.NotNil(t, user)
	_, err = repo.GetUserByID(ctx, user.ID)
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	repo, _, svc := setup(t)
	ctx := context.Background()
	testutil.NewTestUser(t, repo, "jane@example.org")

	user, err := svc.Login(ctx, "Jane@Example.org", testutil.TestPassword)

	require.NoError(t, err)
	assert.Equal(t, "jane@example.org", user.Email)
	require.NotNil(t, user.LastLogin)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo, _, svc := setup(t)
	testutil.NewTestUser(t, repo, "jane@example.org")

	_, err := svc.Login(context.Background(), "jane@example.org", "wrong-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	_, _, svc := setup(t)

	_, err := svc.Login(context.Background(), "nobody@example.org", "whatever-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_Inactive(t *testing.T) {
	repo, _, svc := setup(t)
	testutil.NewInactiveUser(t, repo, "jane@example.org")

	user, err := svc.Login(context.Background(), "jane@example.org", testutil.TestPassword)

	assert.ErrorIs(t, err, auth.ErrAccountInactive)
	require.NotNil(t, user)
	assert.Equal(t, "jane@example.org", user.Email)
}

func TestLogin_InactiveWrongPassword(t *testing.T) {
	repo, _, svc := setup(t)
	testutil.NewInactiveUser(t, repo, "jane@example.org")

	_, err := svc.Login(context.Background(), "jane@example.org", "wrong-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	repo, _, svc := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "jane@example.org")

	err := svc.ChangePassword(ctx, user.ID, testutil.TestPassword, "meadow-lark-77", "meadow-lark-77")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jane@example.org", "meadow-lark-77")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "jane@example.org", testutil.TestPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo, _, svc := setup(t)
	user := testutil.NewTestUser(t, repo, "jane@example.org")

	err := svc.ChangePassword(context.Background(), user.ID, "nope", "meadow-lark-77", "meadow-lark-77")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestChangePassword_Mismatch(t *testing.T) {
	repo, _, svc := setup(t)
	user := testutil.NewTestUser(t, repo, "jane@example.org")

	err := svc.ChangePassword(context.Background(), user.ID, testutil.TestPassword, "meadow-lark-77", "meadow-lark-78")

	assert.ErrorIs(t, err, auth.ErrValidationFailed)
}

func TestUpdateProfile(t *testing.T) {
	repo, _, svc := setup(t)
	user := testutil.NewTestUser(t, repo, "jane@example.org")

	updated, err := svc.UpdateProfile(context.Background(), user.ID, models.Profile{
		FirstName: " Jane ",
		LastName:  "Doe",
		State:     "CA",
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "CA", updated.State)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	_, _, svc := setup(t)

	_, err := svc.UpdateProfile(context.Background(), 404, models.Profile{})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateSuperuser(t *testing.T) {
	_, rec, svc := setup(t)
	ctx := context.Background()

	user, err := svc.CreateSuperuser(ctx, "admin@example.org", "granite-peak-99")

	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsActive)
	assert.Empty(t, rec.sent)

	_, err = svc.CreateSuperuser(ctx, "admin@example.org", "granite-peak-99")
	assert.ErrorIs(t, err, auth.ErrUserExists)

	_, err = svc.Login(ctx, "admin@example.org", "granite-peak-99")
	assert.NoError(t, err)
}

func TestValidateEmail(t *testing.T) {
	email, err := auth.ValidateEmail("  jane@EXAMPLE.org ")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.org", email)

	for _, bad := range []string{"", "jane", "Jane <jane@example.org>", "jane@"} {
		_, err := auth.ValidateEmail(bad)
		assert.ErrorIs(t, err, auth.ErrInvalidEmail, bad)
	}
}

func TestSharedErrorsAreDistinct(t *testing.T) {
	all := []error{
		auth.ErrCooldownActive, auth.ErrInvalidOrExpired, auth.ErrUnknownAccount,
		auth.ErrValidationFailed, auth.ErrMailDeliveryFailed,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v matches %v", a, b)
			}
		}
	}
}
