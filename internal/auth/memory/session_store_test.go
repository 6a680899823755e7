// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/auth/memory"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()

	first, err := auth.NewSessionRow("p1", "hash-a", time.Now())
	require.NoError(t, err)
	second, err := auth.NewSessionRow("p1", "hash-a", time.Now())
	require.NoError(t, err)
	other, err := auth.NewSessionRow("p2", "hash-b", time.Now())
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))
	require.NoError(t, store.Create(ctx, other))

	rows, err := store.FindByTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)

	n, err := store.DeleteByTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.DeleteByTokenHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err = store.FindByTokenHash(ctx, "hash-b")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSessionStore_FindMissing(t *testing.T) {
	rows, err := memory.NewSessionStore().FindByTokenHash(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
