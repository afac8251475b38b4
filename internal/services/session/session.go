// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session stores the session state in a signed cookie.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/config"
	"github.com/gorilla/securecookie"
)

// Data is the state carried by the session cookie.
type Data struct {
	UserID     int64     `json:"uid,omitempty"`
	Email      string    `json:"email,omitempty"`
	IsStaff    bool      `json:"staff,omitempty"`
	ResetEmail string    `json:"reset,omitempty"` // address of a password reset in progress
	ExpiresAt  time.Time `json:"exp"`
}

// Authenticated reports whether the session belongs to a logged-in user.
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != 0
}

// Manager encodes and decodes session cookies.
type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
}

// NewManager creates a session manager. Without a hash key a random one is
// generated, which only works for a single development process.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	if hashKey == nil {
		if secure {
			return nil, errors.New("session hash key is required")
		}
		hashKey = securecookie.GenerateRandomKey(32)
	}

	blockKey, err := decodeKey(cfg.BlockKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session block key: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:  codec,
		name:   cfg.CookieName,
		maxAge: cfg.MaxAge,
		secure: secure,
	}, nil
}

func decodeKey(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(key)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("must be 32 bytes, got %d", len(raw))
	}
	return raw, nil
}

// Create returns a cookie for a logged-in user.
func (m *Manager) Create(userID int64, email string, isStaff bool) (*http.Cookie, error) {
	return m.Save(Data{UserID: userID, Email: email, IsStaff: isStaff})
}

// Save encodes d into a fresh cookie and sets its expiry.
func (m *Manager) Save(d Data) (*http.Cookie, error) {
	d.ExpiresAt = time.Now().Add(time.Duration(m.maxAge) * time.Second)

	encoded, err := m.codec.Encode(m.name, d)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	return m.cookie(encoded, m.maxAge), nil
}

// Parse returns the session carried by the request. A missing, tampered or
// expired cookie yields nil without error.
func (m *Manager) Parse(r *http.Request) (*Data, error) {
	c, err := r.Cookie(m.name)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d Data
	if err := m.codec.Decode(m.name, c.Value, &d); err != nil {
		return nil, nil //nolint:nilerr // invalid cookies are treated as absent
	}
	if !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt) {
		return nil, nil
	}
	return &d, nil
}

// Clear returns a cookie that deletes the session.
func (m *Manager) Clear() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
