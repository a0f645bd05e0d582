// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Login    string
	Username string
	Email    string
	Password string
	Phone    string // optional
}

// Credentials carries a login attempt. Exactly one of Login, Email, or
// Phone is expected; when several are set, login wins, then email, then phone.
type Credentials struct {
	Login    string
	Email    string
	Phone    string
	Password string
}

// SessionPair is the result of a successful registration or login: one
// access token and one refresh token with their lifetimes.
type SessionPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Service orchestrates registration, login, and logout over the
// CredentialStore and SessionIssuer. It holds no cross-request state.
type Service struct {
	creds  *CredentialStore
	issuer *SessionIssuer
	logger *slog.Logger
}

// NewService creates a new Service with the default logger.
func NewService(creds *CredentialStore, issuer *SessionIssuer) (*Service, error) {
	return NewServiceWithLogger(creds, issuer, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(creds *CredentialStore, issuer *SessionIssuer, logger *slog.Logger) (*Service, error) {
	if creds == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if issuer == nil {
		return nil, oops.Errorf("session issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{creds: creds, issuer: issuer, logger: logger}, nil
}

// Register creates a new user record and immediately issues an
// access+refresh session pair for it. Duplicate and missing-field errors
// from the credential store propagate unchanged.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*SessionPair, error) {
	user, err := s.creds.Register(ctx, in.Login, in.Username, in.Email, in.Password, in.Phone)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user.Login)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "login", user.Login, "user_id", user.ID.String())
	return pair, nil
}

// Login resolves the identity (login > email > phone), verifies the
// password, and issues a fresh access+refresh pair. Unknown identifier and
// wrong password produce the same AUTH_INVALID_CREDENTIALS error so a
// caller cannot tell which part failed.
func (s *Service) Login(ctx context.Context, creds Credentials) (*SessionPair, error) {
	record, lookupErr := s.creds.Resolve(ctx, creds.Login, creds.Email, creds.Phone)

	// Verify against a dummy hash when the record is missing so the
	// response time does not reveal whether the identifier exists.
	targetHash := dummyPasswordHash
	if lookupErr == nil {
		targetHash = record.PasswordHash
	}

	valid, _ := s.creds.hasher.Verify(creds.Password, targetHash)
	if lookupErr != nil || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}

	pair, err := s.issuePair(ctx, record.Login)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "login", record.Login)
	return pair, nil
}

// Logout revokes the supplied tokens. It always succeeds: missing, unknown,
// or expired tokens are ignored so client-side cleanup stays idempotent.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	if err := s.issuer.Revoke(ctx, accessToken); err != nil {
		errutil.LogError(s.logger, "failed to revoke access token", err)
	}
	if err := s.issuer.Revoke(ctx, refreshToken); err != nil {
		errutil.LogError(s.logger, "failed to revoke refresh token", err)
	}
}

// LogoutAll validates the access token and revokes every session owned by
// its identity, across devices. Returns the number of revoked sessions.
func (s *Service) LogoutAll(ctx context.Context, accessToken string) (int, error) {
	session, err := s.issuer.Validate(ctx, accessToken)
	if err != nil {
		return 0, err
	}

	n, err := s.issuer.RevokeAllFor(ctx, session.OwnerLogin)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "user logged out everywhere", "login", session.OwnerLogin, "sessions_revoked", n)
	return n, nil
}

// ValidateToken checks a token and returns its session if valid.
func (s *Service) ValidateToken(ctx context.Context, token string) (*Session, error) {
	return s.issuer.Validate(ctx, token)
}

// issuePair mints one access and one refresh session for the login.
func (s *Service) issuePair(ctx context.Context, login string) (*SessionPair, error) {
	_, accessToken, err := s.issuer.Issue(ctx, login, SessionKindAccess)
	if err != nil {
		return nil, oops.Code("AUTH_INTERNAL").
			With("operation", "issue access session").
			Wrap(err)
	}

	_, refreshToken, err := s.issuer.Issue(ctx, login, SessionKindRefresh)
	if err != nil {
		// Do not leave a lone access session behind.
		if revokeErr := s.issuer.Revoke(ctx, accessToken); revokeErr != nil {
			errutil.LogError(s.logger, "failed to revoke orphaned access token", revokeErr)
		}
		return nil, oops.Code("AUTH_INTERNAL").
			With("operation", "issue refresh session").
			Wrap(err)
	}

	return &SessionPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    AccessSessionTTL,
		RefreshTTL:   RefreshSessionTTL,
	}, nil
}
