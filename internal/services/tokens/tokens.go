// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tokens issues and checks signed account tokens. A token binds the
// account id, its issuance time and a hash over the account state, so it
// stops verifying once the account is activated or its password changes.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed     = errors.New("token is malformed or has a bad signature")
	ErrExpired       = errors.New("token has expired")
	ErrStateMismatch = errors.New("token does not match the account state")
	ErrBadUID        = errors.New("uid does not decode")
)

type claims struct {
	jwt.RegisteredClaims
	State string `json:"st"`
}

// Generator signs tokens with a secret key.
type Generator struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewGenerator creates a Generator whose tokens are valid for validity.
func NewGenerator(secret string, validity time.Duration) *Generator {
	return &Generator{
		secret:   []byte(secret),
		validity: validity,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Validity returns how long a token stays valid.
func (g *Generator) Validity() time.Duration {
	return g.validity
}

// Make returns a token for the user's current state.
func (g *Generator) Make(user *models.User) (string, error) {
	issued := g.now().UTC().Truncate(time.Second)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(g.validity)),
		},
		State: g.stateHash(user, issued),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Check verifies that token was made for user in its current state and has
// not expired.
func (g *Generator) Check(user *models.User, token string) error {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(strconv.FormatInt(user.ID, 10)),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case err != nil:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	issued := c.IssuedAt.Time
	if !g.now().Before(issued.Add(g.validity)) {
		return ErrExpired
	}

	if !hmac.Equal([]byte(c.State), []byte(g.stateHash(user, issued))) {
		return ErrStateMismatch
	}
	return nil
}

func (g *Generator) stateHash(user *models.User, issued time.Time) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%d|%t|%s|%d", user.ID, user.IsActive, user.PasswordHash, issued.Unix())
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// EncodeUID encodes an account id for use in a URL.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uidb64 string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return 0, ErrBadUID
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadUID
	}
	return id, nil
}
