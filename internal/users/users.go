// Package users stores the content server's user accounts in a sqlite
// database and validates credentials entered through the preferences panel.
package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Record holds the stored data for one user account.
type Record struct {
	PasswordHash string
	ReadOnly     bool
	CreatedAt    time.Time
}

// ValidationError reports a rejected username or password, naming the
// offending field so dialogs can point at it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUsername rejects names the HTTP auth layer cannot represent.
func ValidateUsername(username string) error {
	if username == "" {
		return &ValidationError{Field: "username", Message: "username cannot be empty"}
	}
	if username != strings.TrimSpace(username) {
		return &ValidationError{Field: "username", Message: "username cannot start or end with spaces"}
	}
	if strings.Contains(username, ":") {
		return &ValidationError{Field: "username", Message: "username cannot contain the : character"}
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return &ValidationError{Field: "username", Message: "username cannot contain control characters"}
		}
	}

	return nil
}

// ValidatePassword rejects passwords the HTTP auth layer cannot represent.
func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "password cannot be empty"}
	}
	if strings.Contains(password, ":") {
		return &ValidationError{Field: "password", Message: "password cannot contain the : character"}
	}

	return nil
}

// CreateUserData builds a storable record from a plaintext password.
func CreateUserData(password string) (Record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Record{}, fmt.Errorf("hash password: %w", err)
	}

	return Record{
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}, nil
}

// VerifyPassword reports whether the plaintext password matches the record.
func (r Record) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)) == nil
}
