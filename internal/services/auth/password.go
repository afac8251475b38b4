// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password accepted anywhere.
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

// Validation error codes.
const (
	CodeMinLength       = "min_length"
	CodeMaxLength       = "max_length"
	CodeMismatch        = "mismatch"
	CodeEntirelyNumeric = "entirely_numeric"
	CodeTooSimilar      = "too_similar"
)

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength           int
	MaxLength           int
	RejectNumeric       bool
	CheckUserSimilarity bool
}

// DefaultPasswordValidator is used for registration and password changes.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:           MinPasswordLength,
		MaxLength:           MaxPasswordLength,
		RejectNumeric:       true,
		CheckUserSimilarity: true,
	}
}

// LengthOnlyValidator checks nothing but the length bounds. The PIN reset
// flow uses it.
func LengthOnlyValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength: MinPasswordLength,
		MaxLength: MaxPasswordLength,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors. It matches
// ErrValidationFailed.
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Is makes errors.Is(err, ErrValidationFailed) hold.
func (e *PasswordValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// FirstCode returns the code of the first error.
func (e *PasswordValidationError) FirstCode() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Code
}

func mismatchError() *PasswordValidationError {
	return &PasswordValidationError{Errors: []ValidationError{{
		Code:    CodeMismatch,
		Message: "The passwords do not match.",
	}}}
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Err returns nil for a valid result and a *PasswordValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &PasswordValidationError{Errors: r.Errors}
}

// Validate checks a password against all configured validators
func (v *PasswordValidator) Validate(password string, userAttributes ...string) ValidationResult {
	var errors []ValidationError

	if len(password) < v.MinLength {
		errors = append(errors, ValidationError{
			Code:    CodeMinLength,
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
		})
	}

	if v.MaxLength > 0 && len(password) > v.MaxLength {
		errors = append(errors, ValidationError{
			Code:    CodeMaxLength,
			Message: fmt.Sprintf("Password must be at most %d bytes long.", v.MaxLength),
		})
	}

	if v.RejectNumeric && isEntirelyNumeric(password) {
		errors = append(errors, ValidationError{
			Code:    CodeEntirelyNumeric,
			Message: "Password cannot be entirely numeric.",
		})
	}

	if v.CheckUserSimilarity && len(userAttributes) > 0 {
		if isSimilarToUserAttributes(password, userAttributes) {
			errors = append(errors, ValidationError{
				Code:    CodeTooSimilar,
				Message: "Password is too similar to your personal information.",
			})
		}
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// ValidatePair checks that both entries match before validating the password.
func (v *PasswordValidator) ValidatePair(password, confirm string, userAttributes ...string) error {
	if password != confirm {
		return mismatchError()
	}
	return v.Validate(password, userAttributes...).Err()
}

// GetHelpTexts returns help texts for password requirements
func (v *PasswordValidator) GetHelpTexts() []string {
	texts := []string{fmt.Sprintf("At least %d characters", v.MinLength)}

	if v.RejectNumeric {
		texts = append(texts, "Cannot be entirely numeric")
	}
	if v.CheckUserSimilarity {
		texts = append(texts, "Not too similar to your personal information")
	}

	return texts
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		if len(attr) < 3 {
			continue
		}
		attrLower := strings.ToLower(attr)

		if strings.Contains(passwordLower, attrLower) || strings.Contains(attrLower, passwordLower) {
			return true
		}

		if similarity(passwordLower, attrLower) > 0.7 {
			return true
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := longestCommonSubsequence(a, b)
	maxLen := max(len(a), len(b))

	return float64(lcs) / float64(maxLen)
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
