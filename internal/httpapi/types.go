// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import "time"

// Cookie names used for token transport.
const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tel      string `json:"tel,omitempty"`
}

// LoginRequest is the body of POST /api/login. Exactly one identifier is
// expected; login wins over email, email over phone.
type LoginRequest struct {
	Login    string `json:"login,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful registration or login. The tokens
// themselves travel in HttpOnly cookies; the body carries the lifetimes.
type TokenResponse struct {
	Message          string `json:"message"`
	AccessExpiresIn  int    `json:"access_expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// SessionResponse is returned by GET /api/session.
type SessionResponse struct {
	Login     string    `json:"login"`
	Kind      string    `json:"kind"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogoutAllResponse is returned by POST /api/logout/all.
type LogoutAllResponse struct {
	Message         string `json:"message"`
	SessionsRevoked int    `json:"sessions_revoked"`
}

// AckResponse is returned by POST /api/logout.
type AckResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
