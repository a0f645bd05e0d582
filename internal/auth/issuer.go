// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// issueMaxAttempts bounds token regeneration on hash collision. A collision
// of two 256-bit random tokens is negligible by construction; the bound
// exists so Issue can never loop unboundedly.
const issueMaxAttempts = 3

// SessionIssuer mints and validates opaque session tokens.
type SessionIssuer struct {
	sessions SessionRepository
}

// NewSessionIssuer creates a new SessionIssuer.
func NewSessionIssuer(sessions SessionRepository) (*SessionIssuer, error) {
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	return &SessionIssuer{sessions: sessions}, nil
}

// Issue generates a session of the given kind for the login and returns
// the stored session along with the plaintext token. On the (negligible)
// chance of a token-hash collision, the token is regenerated.
func (i *SessionIssuer) Issue(ctx context.Context, login string, kind SessionKind) (*Session, string, error) {
	if login == "" {
		return nil, "", oops.Code("SESSION_INVALID_OWNER").Errorf("owner login cannot be empty")
	}
	if !kind.Valid() {
		return nil, "", oops.Code("SESSION_INVALID_KIND").
			With("kind", string(kind)).
			Errorf("unknown session kind")
	}

	var session *Session
	var token string

	backoff := retry.WithMaxRetries(issueMaxAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		plaintext, hash, genErr := GenerateSessionToken()
		if genErr != nil {
			return genErr
		}

		candidate, newErr := NewSession(login, kind, hash)
		if newErr != nil {
			return newErr
		}

		if createErr := i.sessions.Create(ctx, candidate); createErr != nil {
			if errors.Is(createErr, ErrTokenCollision) {
				return retry.RetryableError(createErr)
			}
			return createErr
		}

		session = candidate
		token = plaintext
		return nil
	})
	if err != nil {
		return nil, "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "create session").
			With("kind", string(kind)).
			Wrap(err)
	}

	return session, token, nil
}

// Validate checks a plaintext token and returns its session if the token is
// known and unexpired. An expired session is evicted on this check (lazy
// expiry), so a later Validate of the same token reports it as not found.
func (i *SessionIssuer) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_NOT_FOUND").Errorf("session token cannot be empty")
	}

	tokenHash := HashSessionToken(token)

	session, err := i.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_TOKEN_NOT_FOUND").Errorf("unknown session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		// Evict so the repository never serves stale sessions.
		_ = i.sessions.DeleteByTokenHash(ctx, tokenHash) //nolint:errcheck // Best effort, the expiry verdict stands regardless
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	return session, nil
}

// Revoke removes the session for the token if present. Idempotent: revoking
// an unknown or already-revoked token is not an error.
func (i *SessionIssuer) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := i.sessions.DeleteByTokenHash(ctx, HashSessionToken(token))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// RevokeAllFor removes every session owned by the login, across devices,
// and returns the count of revoked sessions.
func (i *SessionIssuer) RevokeAllFor(ctx context.Context, login string) (int, error) {
	if login == "" {
		return 0, nil
	}

	n, err := i.sessions.DeleteByOwner(ctx, login)
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "delete sessions by owner").
			With("login", login).
			Wrap(err)
	}
	return n, nil
}
