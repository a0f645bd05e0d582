// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/memory"
)

func newSession(t *testing.T, login string, kind auth.SessionKind) *auth.Session {
	t.Helper()
	_, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	session, err := auth.NewSession(login, kind, hash)
	require.NoError(t, err)
	return session
}

func TestSessionRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves by hash", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		session := newSession(t, "alice", auth.SessionKindAccess)

		require.NoError(t, repo.Create(ctx, session))

		got, err := repo.GetByTokenHash(ctx, session.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.OwnerLogin)
		assert.Equal(t, auth.SessionKindAccess, got.Kind)
	})

	t.Run("rejects hash collision", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		session := newSession(t, "alice", auth.SessionKindAccess)
		require.NoError(t, repo.Create(ctx, session))

		dup := *session
		dup.OwnerLogin = "bob"
		err := repo.Create(ctx, &dup)
		assert.ErrorIs(t, err, auth.ErrTokenCollision)
	})

	t.Run("unknown hash misses", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		_, err := repo.GetByTokenHash(ctx, "nosuchhash")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestSessionRepository_GetByOwner(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	require.NoError(t, repo.Create(ctx, newSession(t, "alice", auth.SessionKindAccess)))
	require.NoError(t, repo.Create(ctx, newSession(t, "alice", auth.SessionKindRefresh)))
	require.NoError(t, repo.Create(ctx, newSession(t, "bob", auth.SessionKindAccess)))

	t.Run("returns all sessions of the login", func(t *testing.T) {
		sessions, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
		for _, s := range sessions {
			assert.Equal(t, "alice", s.OwnerLogin)
		}
	})

	t.Run("unknown login returns nothing", func(t *testing.T) {
		sessions, err := repo.GetByOwner(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSessionRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("by token hash", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		session := newSession(t, "alice", auth.SessionKindAccess)
		require.NoError(t, repo.Create(ctx, session))

		require.NoError(t, repo.DeleteByTokenHash(ctx, session.TokenHash))

		_, err := repo.GetByTokenHash(ctx, session.TokenHash)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		// Owner index is cleaned up too.
		sessions, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("by token hash miss", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		err := repo.DeleteByTokenHash(ctx, "nosuchhash")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("by owner returns count", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		require.NoError(t, repo.Create(ctx, newSession(t, "alice", auth.SessionKindAccess)))
		require.NoError(t, repo.Create(ctx, newSession(t, "alice", auth.SessionKindRefresh)))
		other := newSession(t, "bob", auth.SessionKindAccess)
		require.NoError(t, repo.Create(ctx, other))

		n, err := repo.DeleteByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, repo.Len())

		_, err = repo.GetByTokenHash(ctx, other.TokenHash)
		assert.NoError(t, err)
	})

	t.Run("by owner with no sessions", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		n, err := repo.DeleteByOwner(ctx, "ghost")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()

	live := newSession(t, "alice", auth.SessionKindAccess)
	require.NoError(t, repo.Create(ctx, live))

	_, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	expired := &auth.Session{
		OwnerLogin: "alice",
		Kind:       auth.SessionKindAccess,
		TokenHash:  hash,
		IssuedAt:   time.Now().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, expired))

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.GetByTokenHash(ctx, live.TokenHash)
	assert.NoError(t, err)
	_, err = repo.GetByTokenHash(ctx, expired.TokenHash)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestSessionRepository_DefensiveCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	session := newSession(t, "alice", auth.SessionKindAccess)
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByTokenHash(ctx, session.TokenHash)
	require.NoError(t, err)
	got.OwnerLogin = "mallory"

	again, err := repo.GetByTokenHash(ctx, session.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.OwnerLogin)
}
