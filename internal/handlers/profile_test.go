// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"testing"

	"codeberg.org/bcmtb/volunteer-tracker/internal/handlers"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodPut, "/profile",
		`{"first_name":" Jane ","last_name":"Doe","city":"Bremen","zip_code":"28195"}`, cookie)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[handlers.UserResponse](t, rec).User
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Bremen", got.City)
	assert.Equal(t, "28195", got.ZipCode)
	assert.Equal(t, "jane@example.org", got.Email)
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodPost, "/profile/password",
		`{"current_password":"`+testutil.TestPassword+`","new_password":"meadow-lark-77","new_password_confirm":"meadow-lark-77"}`,
		cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/auth/login", `{"email":"jane@example.org","password":"meadow-lark-77"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword_Errors(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodPost, "/profile/password",
		`{"current_password":"wrong-password","new_password":"meadow-lark-77","new_password_confirm":"meadow-lark-77"}`,
		cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/profile/password",
		`{"current_password":"`+testutil.TestPassword+`","new_password":"12345678901","new_password_confirm":"12345678901"}`,
		cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[handlers.ErrorResponse](t, rec)
	assert.Equal(t, "The password cannot be entirely numeric.", resp.Error)
}
