// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateLogin is returned when a user record with the same login
// already exists.
var ErrDuplicateLogin = errors.New("login already taken")

// ErrDuplicateEmail is returned when a user record with the same email
// already exists.
var ErrDuplicateEmail = errors.New("email already taken")

// ErrTokenCollision is returned by a session repository when the token hash
// of a new session is already present. The issuer regenerates the token.
var ErrTokenCollision = errors.New("session token collision")
