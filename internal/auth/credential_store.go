// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"
)

// CredentialStore owns user records: registration, lookup, and password
// verification. All durable state lives in the UserRepository.
type CredentialStore struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(users UserRepository, hasher PasswordHasher) (*CredentialStore, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &CredentialStore{users: users, hasher: hasher}, nil
}

// Register validates the fields, hashes the password, and stores a new
// user record. Login and email uniqueness are enforced by the repository
// inside one atomic check-then-insert, so concurrent registrations of the
// same identity yield exactly one success.
func (s *CredentialStore) Register(ctx context.Context, login, username, email, password, phone string) (*UserRecord, error) {
	if password == "" {
		return nil, oops.Code("AUTH_MISSING_FIELD").
			With("field", "password").
			Errorf("password cannot be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUserRecord(login, username, email, phone, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateLogin):
			return nil, oops.Code("AUTH_DUPLICATE_LOGIN").
				With("login", login).
				Wrap(err)
		case errors.Is(err, ErrDuplicateEmail):
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				Wrap(err)
		default:
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "create user").
				Wrap(err)
		}
	}

	return user, nil
}

// FindByLogin retrieves a user record by login.
func (s *CredentialStore) FindByLogin(ctx context.Context, login string) (*UserRecord, error) {
	return s.users.GetByLogin(ctx, login)
}

// FindByEmail retrieves a user record by email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(email))
}

// FindByPhone retrieves a user record by phone.
func (s *CredentialStore) FindByPhone(ctx context.Context, phone string) (*UserRecord, error) {
	return s.users.GetByPhone(ctx, phone)
}

// Resolve maps login-attempt identifiers to at most one user record.
// When several identifiers are supplied, login takes precedence, then
// email, then phone. Returns ErrNotFound when no identifier is supplied
// or nothing matches.
func (s *CredentialStore) Resolve(ctx context.Context, login, email, phone string) (*UserRecord, error) {
	switch {
	case login != "":
		return s.FindByLogin(ctx, login)
	case email != "":
		return s.FindByEmail(ctx, email)
	case phone != "":
		return s.FindByPhone(ctx, phone)
	default:
		return nil, ErrNotFound
	}
}

// VerifyPassword recomputes the hash of the candidate password with the
// record's stored parameters and compares in constant time. The plaintext
// password is never stored or logged.
func (s *CredentialStore) VerifyPassword(record *UserRecord, password string) bool {
	if record == nil {
		return false
	}
	ok, err := s.hasher.Verify(password, record.PasswordHash)
	if err != nil {
		return false
	}
	return ok
}
