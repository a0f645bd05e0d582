// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionKind distinguishes short-lived access sessions from long-lived
// refresh sessions.
type SessionKind string

// Session kinds.
const (
	SessionKindAccess  SessionKind = "access"
	SessionKindRefresh SessionKind = "refresh"
)

// Session token configuration. Lifetimes are fixed policy constants.
const (
	SessionTokenBytes = 32                  // 32 bytes = 256 bits entropy, 64 hex chars
	AccessSessionTTL  = time.Hour           // 3600s
	RefreshSessionTTL = 30 * 24 * time.Hour // 2,592,000s
)

// TTL returns the lifetime for the session kind.
func (k SessionKind) TTL() time.Duration {
	if k == SessionKindRefresh {
		return RefreshSessionTTL
	}
	return AccessSessionTTL
}

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == SessionKindAccess || k == SessionKindRefresh
}

// Session represents an issued credential proving a prior authentication.
//
// OwnerLogin is a lookup key back to the UserRecord, not an ownership edge:
// sessions of a vanished user simply become unresolvable.
type Session struct {
	ID         ulid.ULID
	OwnerLogin string
	Kind       SessionKind
	TokenHash  string // SHA-256 of the opaque token; plaintext never stored
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// NewSession creates a validated Session instance.
// The expiry is derived from the kind's fixed TTL, so ExpiresAt > IssuedAt
// always holds.
func NewSession(ownerLogin string, kind SessionKind, tokenHash string) (*Session, error) {
	if ownerLogin == "" {
		return nil, oops.Code("SESSION_INVALID_OWNER").Errorf("owner login cannot be empty")
	}
	if !kind.Valid() {
		return nil, oops.Code("SESSION_INVALID_KIND").
			With("kind", string(kind)).
			Errorf("unknown session kind")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		OwnerLogin: ownerLogin,
		Kind:       kind,
		TokenHash:  tokenHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(kind.TTL()),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsExpiredAt returns true if the session would be expired at the given time.
// Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is handed to the client; only the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of a session token.
// This is used to securely store tokens in the repository.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
// Returns (true, nil) on match, (false, nil) on mismatch, or (false, error) on invalid input.
func VerifySessionToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashSessionToken(token)
	// Both are hex-encoded SHA256 hashes (64 chars), use constant-time compare
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	// Returns ErrTokenCollision if a session with the same token hash exists;
	// the check-then-insert sequence is atomic.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// GetByOwner retrieves all sessions for a login.
	GetByOwner(ctx context.Context, login string) ([]*Session, error)

	// DeleteByTokenHash removes a session by token hash.
	// Returns ErrNotFound if no such session exists.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByOwner removes all sessions for a login and returns the count.
	DeleteByOwner(ctx context.Context, login string) (int, error)

	// DeleteExpired removes all sessions expired at the given time and
	// returns the count of deleted records.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
