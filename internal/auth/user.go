// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Login validation constraints.
const (
	MinLoginLength = 3
	MaxLoginLength = 30
)

// loginRegex matches logins that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var loginRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a pragmatic shape check, not full RFC 5322.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserRecord represents a registered user account.
//
// A record is immutable after creation except for password changes
// (out of scope here); records are never deleted.
type UserRecord struct {
	ID           ulid.ULID
	Login        string // unique key
	Username     string // display name
	Email        string // unique
	Phone        string // optional
	PasswordHash string // PHC-encoded argon2id string (salt + derived key)
	CreatedAt    time.Time
}

// NewUserRecord creates a validated UserRecord.
// The password hash must already be computed; NewUserRecord never sees
// a plaintext password.
func NewUserRecord(login, username, email, phone, passwordHash string) (*UserRecord, error) {
	if err := ValidateLogin(login); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, oops.Code("AUTH_MISSING_FIELD").
			With("field", "username").
			Errorf("username cannot be empty")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	return &UserRecord{
		ID:           ulid.Make(),
		Login:        login,
		Username:     username,
		Email:        strings.ToLower(email),
		Phone:        phone,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateLogin validates a login against rules.
// Login requirements:
// - Length: MinLoginLength to MaxLoginLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateLogin(login string) error {
	if login == "" {
		return oops.Code("AUTH_MISSING_FIELD").
			With("field", "login").
			Errorf("login cannot be empty")
	}
	if len(login) < MinLoginLength {
		return oops.Code("AUTH_INVALID_LOGIN").
			With("min", MinLoginLength).
			Errorf("login must be at least %d characters", MinLoginLength)
	}
	if len(login) > MaxLoginLength {
		return oops.Code("AUTH_INVALID_LOGIN").
			With("max", MaxLoginLength).
			Errorf("login must be at most %d characters", MaxLoginLength)
	}
	if !loginRegex.MatchString(login) {
		return oops.Code("AUTH_INVALID_LOGIN").
			Errorf("login must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail checks that email is present and plausibly shaped.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_MISSING_FIELD").
			With("field", "email").
			Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email is not valid")
	}
	return nil
}

// UserRepository manages user record persistence.
//
// Implementations must keep login and email unique: Create observes the
// "check uniqueness, then insert" sequence atomically so that concurrent
// registrations of the same identity yield exactly one success.
type UserRepository interface {
	// Create stores a new user record.
	// Returns ErrDuplicateLogin or ErrDuplicateEmail on uniqueness violation.
	Create(ctx context.Context, user *UserRecord) error

	// GetByLogin retrieves a user record by login (exact match).
	GetByLogin(ctx context.Context, login string) (*UserRecord, error)

	// GetByEmail retrieves a user record by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)

	// GetByPhone retrieves a user record by phone (exact match).
	// Returns ErrNotFound for an empty phone; empty phones are never indexed.
	GetByPhone(ctx context.Context, phone string) (*UserRecord, error)
}
