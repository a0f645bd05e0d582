// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func plantExpiredSession(t *testing.T, repo *memory.SessionRepository, login string) {
	t.Helper()
	_, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	session := &auth.Session{
		OwnerLogin: login,
		Kind:       auth.SessionKindAccess,
		TokenHash:  hash,
		IssuedAt:   time.Now().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), session))
}

func TestNewSweeper(t *testing.T) {
	t.Run("nil repository", func(t *testing.T) {
		_, err := auth.NewSweeper(nil, time.Minute, nil)
		assert.Error(t, err)
	})

	t.Run("non-positive interval uses default", func(t *testing.T) {
		sweeper, err := auth.NewSweeper(memory.NewSessionRepository(), 0, nil)
		require.NoError(t, err)
		assert.NotNil(t, sweeper)
	})
}

func TestSweeper_EvictsExpiredSessions(t *testing.T) {
	repo := memory.NewSessionRepository()
	plantExpiredSession(t, repo, "alice")
	plantExpiredSession(t, repo, "bob")
	require.Equal(t, 2, repo.Len())

	sweeper, err := auth.NewSweeper(repo, 10*time.Millisecond, nil)
	require.NoError(t, err)

	sweeper.Start(context.Background())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return repo.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSweeper_KeepsLiveSessions(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()

	issuer, err := auth.NewSessionIssuer(repo)
	require.NoError(t, err)
	_, token, err := issuer.Issue(ctx, "alice", auth.SessionKindAccess)
	require.NoError(t, err)
	plantExpiredSession(t, repo, "alice")

	sweeper, err := auth.NewSweeper(repo, 10*time.Millisecond, nil)
	require.NoError(t, err)

	sweeper.Start(ctx)
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return repo.Len() == 1
	}, time.Second, 10*time.Millisecond)

	_, err = issuer.Validate(ctx, token)
	assert.NoError(t, err)
}

func TestSweeper_StartStop(t *testing.T) {
	repo := memory.NewSessionRepository()
	sweeper, err := auth.NewSweeper(repo, time.Minute, nil)
	require.NoError(t, err)

	t.Run("stop without start is a no-op", func(t *testing.T) {
		sweeper.Stop()
	})

	t.Run("double start is a no-op", func(t *testing.T) {
		ctx := context.Background()
		sweeper.Start(ctx)
		sweeper.Start(ctx)
		sweeper.Stop()
	})

	t.Run("restart after stop", func(t *testing.T) {
		ctx := context.Background()
		sweeper.Start(ctx)
		sweeper.Stop()
		sweeper.Start(ctx)
		sweeper.Stop()
	})
}
