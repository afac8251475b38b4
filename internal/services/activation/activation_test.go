// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package activation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/activation"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/tokens"
	"codeberg.org/bcmtb/volunteer-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo  *repository.Repository
	mail  *testutil.MailRecorder
	clock *testutil.Clock
	svc   *activation.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mail := &testutil.MailRecorder{}
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gen := tokens.NewGenerator("test-secret", 72*time.Hour).WithClock(clock.Now)
	return &fixture{
		repo:  repo,
		mail:  mail,
		clock: clock,
		svc:   activation.NewService(repo, mail, gen, "https://hours.example.org/"),
	}
}

// linkParts extracts uidb64 and token from the link in the last mail.
func linkParts(t *testing.T, f *fixture) (string, string) {
	t.Helper()
	text := f.mail.Last(t).Text
	const prefix = "https://hours.example.org/auth/activate/"
	start := strings.Index(text, prefix)
	require.GreaterOrEqual(t, start, 0, "no activation link in mail")
	rest := text[start+len(prefix):]
	rest = rest[:strings.IndexAny(rest, " \n")]
	parts := strings.SplitN(rest, "/", 2)
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}

func TestSend(t *testing.T) {
	f := setup(t)
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")

	require.NoError(t, f.svc.Send(context.Background(), user))

	msg := f.mail.Last(t)
	assert.Equal(t, "jane@example.org", msg.To)
	assert.Equal(t, "Activate your volunteer account", msg.Subject)
	assert.Contains(t, msg.Text, "3 days")
	assert.Contains(t, msg.HTML, "https://hours.example.org/auth/activate/")

	uid, _ := linkParts(t, f)
	assert.Equal(t, tokens.EncodeUID(user.ID), uid)
}

func TestSend_DeliveryFailure(t *testing.T) {
	f := setup(t)
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	f.mail.Fail(errors.New("smtp down"))

	err := f.svc.Send(context.Background(), user)

	assert.ErrorIs(t, err, auth.ErrMailDeliveryFailed)
}

func TestActivate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	require.NoError(t, f.svc.Send(ctx, user))
	uid, token := linkParts(t, f)

	activated, err := f.svc.Activate(ctx, uid, token)

	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	stored, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestActivate_Replay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	require.NoError(t, f.svc.Send(ctx, user))
	uid, token := linkParts(t, f)

	_, err := f.svc.Activate(ctx, uid, token)
	require.NoError(t, err)

	_, err = f.svc.Activate(ctx, uid, token)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)
}

func TestActivate_Expired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	require.NoError(t, f.svc.Send(ctx, user))
	uid, token := linkParts(t, f)

	f.clock.Advance(72 * time.Hour)

	_, err := f.svc.Activate(ctx, uid, token)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)

	stored, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestActivate_UnknownAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Activate(ctx, "not base64!", "token")
	assert.ErrorIs(t, err, auth.ErrUnknownAccount)

	_, err = f.svc.Activate(ctx, tokens.EncodeUID(999), "token")
	assert.ErrorIs(t, err, auth.ErrUnknownAccount)
}

func TestActivate_TokenForOtherAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	jane := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	john := testutil.NewInactiveUser(t, f.repo, "john@example.org")
	require.NoError(t, f.svc.Send(ctx, jane))
	_, token := linkParts(t, f)

	_, err := f.svc.Activate(ctx, tokens.EncodeUID(john.ID), token)

	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)
}

func TestResend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.NewInactiveUser(t, f.repo, "jane@example.org")

	require.NoError(t, f.svc.Resend(ctx, "JANE@example.org"))

	assert.Len(t, f.mail.Messages(), 1)
}

func TestResend_SilentForUnknownAndActive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.NewTestUser(t, f.repo, "active@example.org")

	require.NoError(t, f.svc.Resend(ctx, "nobody@example.org"))
	require.NoError(t, f.svc.Resend(ctx, "active@example.org"))

	assert.Empty(t, f.mail.Messages())
}

func TestResend_OldLinkStillValid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := testutil.NewInactiveUser(t, f.repo, "jane@example.org")
	require.NoError(t, f.svc.Send(ctx, user))
	uid, first := linkParts(t, f)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.Resend(ctx, "jane@example.org"))

	_, err := f.svc.Activate(ctx, uid, first)
	assert.NoError(t, err)
}
