// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/database"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every user created by NewTestUser.
const TestPassword = "correct-horse-battery"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates an active volunteer with TestPassword.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	return createUser(t, repo, &models.User{Email: email, IsActive: true})
}

// NewInactiveUser creates a user awaiting activation.
func NewInactiveUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	return createUser(t, repo, &models.User{Email: email})
}

// NewTestStaff creates an active staff user.
func NewTestStaff(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	return createUser(t, repo, &models.User{Email: email, IsActive: true, IsStaff: true})
}

func createUser(t *testing.T, repo *repository.Repository, user *models.User) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user.PasswordHash = string(hash)
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestEntry logs hours for a user on the given date.
func NewTestEntry(t *testing.T, repo *repository.Repository, userID int64, date time.Time, hours float64) *models.VolunteerEntry {
	t.Helper()
	entry := &models.VolunteerEntry{UserID: userID, Date: date, Hours: hours}
	_, err := repo.CreateEntry(context.Background(), entry)
	require.NoError(t, err)
	return entry
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MailRecorder is an email.Sender that keeps every message. Setting Err makes
// Send fail without recording.
type MailRecorder struct {
	mu       sync.Mutex
	messages []email.Message
	Err      error
}

// Send records msg or returns the configured error.
func (m *MailRecorder) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Fail makes subsequent sends return err. Pass nil to recover.
func (m *MailRecorder) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Messages returns a copy of the recorded messages.
func (m *MailRecorder) Messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]email.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message.
func (m *MailRecorder) Last(t *testing.T) email.Message {
	t.Helper()
	msgs := m.Messages()
	require.NotEmpty(t, msgs, "no mail was sent")
	return msgs[len(msgs)-1]
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
