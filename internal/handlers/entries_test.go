// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableRewards(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.repo.CreateRewardSettings(context.Background(), models.RewardSettings{
		EnableNotifications: true,
		HourRequirement:     20,
		NotificationEmail:   "staff@example.org",
	}))
}

func TestCreateEntry(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cat, err := f.repo.CreateCategory(context.Background(), "Trail work")
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/entries",
		fmt.Sprintf(`{"date":"2025-05-10","hours":3.5,"category_id":%d}`, cat.ID), f.loginAs(t, user))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[models.VolunteerEntry](t, rec)
	assert.Equal(t, user.ID, entry.UserID)
	assert.InDelta(t, 3.5, entry.Hours, 0.001)
	require.NotNil(t, entry.CategoryName)
	assert.Equal(t, "Trail work", *entry.CategoryName)
}

func TestCreateEntry_Validation(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	tests := []struct {
		body string
		code string
	}{
		{`{"date":"10.05.2025","hours":2}`, "date_invalid"},
		{`{"date":"2025-05-10","hours":0}`, "hours_invalid"},
		{`{"date":"2025-05-10","hours":1000}`, "hours_invalid"},
		{`{"date":"2025-05-10","hours":2,"category_id":99}`, "category_unknown"},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodPost, "/entries", tt.body, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, tt.body)
		assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`, tt.body)
	}
}

func TestCreateEntry_NotifiesOnceAtThreshold(t *testing.T) {
	f := setup(t)
	enableRewards(t, f)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodPost, "/entries", `{"date":"2025-03-01","hours":15}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, f.mail.Messages())

	rec = f.do(t, http.MethodPost, "/entries", `{"date":"2025-04-01","hours":5}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.mail.Messages(), 1)
	assert.Equal(t, "staff@example.org", f.mail.Last(t).To)

	rec = f.do(t, http.MethodPost, "/entries", `{"date":"2025-04-02","hours":1}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, f.mail.Messages(), 1)
}

func TestDeleteEntry_ClearsMarker(t *testing.T) {
	f := setup(t)
	enableRewards(t, f)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodPost, "/entries", `{"date":"2025-03-01","hours":25}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[models.VolunteerEntry](t, rec)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/entries/%d", entry.ID), "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := f.repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LastMilestoneSentYear)
}

func TestUpdateEntry(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	entry := testutil.NewTestEntry(t, f.repo, user.ID, testutil.Date(2025, 3, 1), 2)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/entries/%d", entry.ID),
		`{"date":"2025-03-02","hours":4}`, f.loginAs(t, user))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.VolunteerEntry](t, rec)
	assert.InDelta(t, 4.0, got.Hours, 0.001)
	assert.True(t, testutil.Date(2025, 3, 2).Equal(got.Date))
}

func TestEntries_OtherVolunteerHidden(t *testing.T) {
	f := setup(t)
	owner := testutil.NewTestUser(t, f.repo, "jane@example.org")
	other := testutil.NewTestUser(t, f.repo, "john@example.org")
	entry := testutil.NewTestEntry(t, f.repo, owner.ID, testutil.Date(2025, 3, 1), 2)
	cookie := f.loginAs(t, other)
	path := fmt.Sprintf("/entries/%d", entry.ID)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, path, `{"date":"2025-03-01","hours":9}`, cookie).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, path, "", cookie).Code)

	rec := f.do(t, http.MethodGet, "/entries", "", cookie)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestEntries_StaffOverride(t *testing.T) {
	f := setup(t)
	owner := testutil.NewTestUser(t, f.repo, "jane@example.org")
	staff := testutil.NewTestStaff(t, f.repo, "staff@example.org")
	entry := testutil.NewTestEntry(t, f.repo, owner.ID, testutil.Date(2025, 3, 1), 2)
	cookie := f.loginAs(t, staff)

	rec := f.do(t, http.MethodPost, "/entries",
		fmt.Sprintf(`{"date":"2025-03-05","hours":1,"user_id":%d}`, owner.ID), cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, owner.ID, decode[models.VolunteerEntry](t, rec).UserID)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/entries?user_id=%d&year=2025", owner.ID), "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]models.VolunteerEntry](t, rec)["entries"], 2)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/entries/%d", entry.ID), "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListEntries_YearFilter(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	testutil.NewTestEntry(t, f.repo, user.ID, testutil.Date(2024, 12, 31), 2)
	testutil.NewTestEntry(t, f.repo, user.ID, testutil.Date(2025, 1, 1), 3)
	cookie := f.loginAs(t, user)

	rec := f.do(t, http.MethodGet, "/entries?year=2025", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[map[string][]models.VolunteerEntry](t, rec)["entries"]
	require.Len(t, entries, 1)
	assert.InDelta(t, 3.0, entries[0].Hours, 0.001)

	rec = f.do(t, http.MethodGet, "/entries?year=abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCategories(t *testing.T) {
	f := setup(t)
	user := testutil.NewTestUser(t, f.repo, "jane@example.org")
	_, err := f.repo.CreateCategory(context.Background(), "Trail work")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/categories", "", f.loginAs(t, user))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Trail work")
}
