// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package memory provides in-memory repository implementations for the
// auth package. Durable persistence is an external collaborator concern;
// these repositories are the single logical store shared across requests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// UserRepository implements auth.UserRepository with synchronized maps.
//
// Login is the primary key; email and phone are secondary indexes so all
// lookups stay O(1) amortized. Uniqueness checks and the insert happen
// under one write lock.
type UserRepository struct {
	mu      sync.RWMutex
	byLogin map[string]*auth.UserRecord
	byEmail map[string]string // lowercased email -> login
	byPhone map[string]string // phone -> login
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byLogin: make(map[string]*auth.UserRecord),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

// Create stores a new user record, enforcing login and email uniqueness.
func (r *UserRepository) Create(_ context.Context, user *auth.UserRecord) error {
	email := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLogin[user.Login]; exists {
		return auth.ErrDuplicateLogin
	}
	if _, exists := r.byEmail[email]; exists {
		return auth.ErrDuplicateEmail
	}

	record := copyUser(user)
	r.byLogin[user.Login] = record
	r.byEmail[email] = user.Login
	if user.Phone != "" {
		r.byPhone[user.Phone] = user.Login
	}
	return nil
}

// GetByLogin retrieves a user record by login.
func (r *UserRepository) GetByLogin(_ context.Context, login string) (*auth.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.byLogin[login]
	if !exists {
		return nil, auth.ErrNotFound
	}
	return copyUser(record), nil
}

// GetByEmail retrieves a user record by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	r.mu.RLock()
	login, exists := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()

	if !exists {
		return nil, auth.ErrNotFound
	}
	return r.GetByLogin(ctx, login)
}

// GetByPhone retrieves a user record by phone. Empty phones are never
// indexed, so an empty argument always misses.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*auth.UserRecord, error) {
	if phone == "" {
		return nil, auth.ErrNotFound
	}

	r.mu.RLock()
	login, exists := r.byPhone[phone]
	r.mu.RUnlock()

	if !exists {
		return nil, auth.ErrNotFound
	}
	return r.GetByLogin(ctx, login)
}

// copyUser returns a defensive copy so callers cannot mutate stored state.
func copyUser(u *auth.UserRecord) *auth.UserRecord {
	record := *u
	return &record
}
