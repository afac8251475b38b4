// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/reminder"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mail := &testutil.MailRecorder{}
	clock := testutil.NewClock(time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC))
	svc := reminder.NewService(repo, mail).WithClock(clock.Now)

	jane := testutil.NewTestUser(t, repo, "jane@example.org")
	testutil.NewTestUser(t, repo, "john@example.org")
	testutil.NewInactiveUser(t, repo, "pending@example.org")
	testutil.NewTestEntry(t, repo, jane.ID, testutil.Date(2025, 4, 1), 7.5)

	report, err := svc.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, []string{"jane@example.org", "john@example.org"}, report.Recipients)
	assert.Empty(t, report.Failed)

	msgs := mail.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "jane@example.org", msgs[0].To)
	assert.Equal(t, "Please submit your volunteer hours for 2025", msgs[0].Subject)
	assert.Contains(t, msgs[0].Text, "7.5 hours")
}

func TestRun_DryRun(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mail := &testutil.MailRecorder{}
	svc := reminder.NewService(repo, mail)
	testutil.NewTestUser(t, repo, "jane@example.org")

	report, err := svc.Run(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.org"}, report.Recipients)
	assert.Empty(t, mail.Messages())
}

func TestRun_DeliveryFailure(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mail := &testutil.MailRecorder{}
	mail.Fail(errors.New("smtp down"))
	svc := reminder.NewService(repo, mail)
	testutil.NewTestUser(t, repo, "jane@example.org")
	testutil.NewTestUser(t, repo, "john@example.org")

	report, err := svc.Run(context.Background(), false)

	require.ErrorIs(t, err, auth.ErrMailDeliveryFailed)
	assert.Len(t, report.Failed, 2)
}
