// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// SessionRepository implements auth.SessionRepository with synchronized maps.
//
// Sessions are keyed by token hash; a per-owner index supports
// DeleteByOwner without scanning. The existence check and insert in Create
// happen under one write lock so the issuer's collision detection is sound.
type SessionRepository struct {
	mu      sync.RWMutex
	byHash  map[string]*auth.Session
	byOwner map[string]map[string]struct{} // login -> set of token hashes
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byHash:  make(map[string]*auth.Session),
		byOwner: make(map[string]map[string]struct{}),
	}
}

// Create stores a new session, rejecting token-hash collisions.
func (r *SessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[session.TokenHash]; exists {
		return auth.ErrTokenCollision
	}

	stored := copySession(session)
	r.byHash[session.TokenHash] = stored

	owned, exists := r.byOwner[session.OwnerLogin]
	if !exists {
		owned = make(map[string]struct{})
		r.byOwner[session.OwnerLogin] = owned
	}
	owned[session.TokenHash] = struct{}{}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.byHash[tokenHash]
	if !exists {
		return nil, auth.ErrNotFound
	}
	return copySession(session), nil
}

// GetByOwner retrieves all sessions for a login.
func (r *SessionRepository) GetByOwner(_ context.Context, login string) ([]*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.byOwner[login]
	if len(owned) == 0 {
		return nil, nil
	}

	sessions := make([]*auth.Session, 0, len(owned))
	for hash := range owned {
		sessions = append(sessions, copySession(r.byHash[hash]))
	}
	return sessions, nil
}

// DeleteByTokenHash removes a session by token hash.
func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.byHash[tokenHash]
	if !exists {
		return auth.ErrNotFound
	}
	r.remove(session)
	return nil
}

// DeleteByOwner removes all sessions for a login and returns the count.
func (r *SessionRepository) DeleteByOwner(_ context.Context, login string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.byOwner[login]
	count := len(owned)
	for hash := range owned {
		delete(r.byHash, hash)
	}
	delete(r.byOwner, login)
	return count, nil
}

// DeleteExpired removes all sessions expired at the given time.
func (r *SessionRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, session := range r.byHash {
		if session.IsExpiredAt(now) {
			r.remove(session)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHash)
}

// remove deletes a session from both indexes. Caller holds the write lock.
func (r *SessionRepository) remove(session *auth.Session) {
	delete(r.byHash, session.TokenHash)
	if owned, exists := r.byOwner[session.OwnerLogin]; exists {
		delete(owned, session.TokenHash)
		if len(owned) == 0 {
			delete(r.byOwner, session.OwnerLogin)
		}
	}
}

// copySession returns a defensive copy to prevent external modification.
func copySession(s *auth.Session) *auth.Session {
	session := *s
	return &session
}
