package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManager_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()
	require.NoError(t, m.Open(ctx))
	defer m.Close()

	_, err := m.Sessions().Create(ctx, &models.Session{ID: "s-1", OwnerID: "u-1"})
	require.NoError(t, err)

	failure := errors.New("completion failed")
	err = m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Sessions().AppendMessages(ctx, "s-1", models.Message{ID: "m-1", Role: models.RoleUser}); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	got, err := m.Sessions().Get(ctx, "s-1", "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Messages, "partial write must be undone")

	err = m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Sessions().AppendMessages(ctx, "s-1", models.Message{ID: "m-2", Role: models.RoleUser})
	})
	require.NoError(t, err)

	got, err = m.Sessions().Get(ctx, "s-1", "u-1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestMemoryManager_WithTxPanicRestores(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()

	_, err := m.Sessions().Create(ctx, &models.Session{ID: "s-1", OwnerID: "u-1"})
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
			_ = repos.Sessions().AppendMessages(ctx, "s-1", models.Message{ID: "m-1"})
			panic("boom")
		})
	})

	got, err := m.Sessions().Get(ctx, "s-1", "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestMemoryManager_RollbackLeavesOtherWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()

	for _, id := range []string{"a", "doomed"} {
		_, err := m.Sessions().Create(ctx, &models.Session{ID: id, OwnerID: "u-1"})
		require.NoError(t, err)
	}

	failure := errors.New("session vanished")
	err := m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Sessions().AppendMessages(ctx, "a", models.Message{ID: "m-1"}); err != nil {
			return err
		}
		_, err := m.Sessions().Create(ctx, &models.Session{ID: "b", OwnerID: "u-2"})
		require.NoError(t, err)
		require.NoError(t, m.Sessions().Delete(ctx, "doomed", "u-1"))
		return failure
	})
	require.ErrorIs(t, err, failure)

	got, err := m.Sessions().Get(ctx, "a", "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)

	_, err = m.Sessions().Get(ctx, "b", "u-2")
	assert.NoError(t, err, "session created outside the unit of work survives")
	_, err = m.Sessions().Get(ctx, "doomed", "u-1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "session deleted outside the unit of work stays deleted")
}
