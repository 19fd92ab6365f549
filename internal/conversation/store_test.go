package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = SessionKey{TenantID: "acme", SessionID: "sess-1"}

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{}, nil)
	ctx := context.Background()

	turn, err := store.AppendTurn(ctx, testKey, RoleUser, "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.False(t, turn.Timestamp.IsZero())

	_, err = store.AppendTurn(ctx, testKey, RoleAssistant, "hi there", nil)
	require.NoError(t, err)

	turns, err := store.RecentTurns(ctx, testKey, 4)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.NotEqual(t, turns[0].ID, turns[1].ID)
}

func TestMemoryStore_CapEnforcement(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{TurnCap: 50}, nil)
	ctx := context.Background()

	for i := 0; i < 51; i++ {
		_, err := store.AppendTurn(ctx, testKey, RoleUser, fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 50, store.Len(testKey))

	turns, err := store.RecentTurns(ctx, testKey, 50)
	require.NoError(t, err)
	require.Len(t, turns, 50)
	// Oldest turn evicted FIFO.
	assert.Equal(t, "message 1", turns[0].Content)
	assert.Equal(t, "message 50", turns[49].Content)
}

func TestMemoryStore_Validation(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{}, nil)
	ctx := context.Background()

	_, err := store.AppendTurn(ctx, SessionKey{SessionID: "s"}, RoleUser, "x", nil)
	assert.ErrorIs(t, err, ErrInvalidTenant)

	_, err = store.AppendTurn(ctx, SessionKey{TenantID: "t"}, RoleUser, "x", nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = store.AppendTurn(ctx, testKey, Role("wizard"), "x", nil)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = store.AppendTurn(ctx, testKey, RoleUser, "", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestMemoryStore_UnknownSessionEmpty(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{}, nil)
	turns, err := store.RecentTurns(context.Background(), SessionKey{TenantID: "t", SessionID: "nope"}, 4)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemoryStore_DeleteTenant(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{}, nil)
	ctx := context.Background()

	_, err := store.AppendTurn(ctx, testKey, RoleUser, "keep me not", nil)
	require.NoError(t, err)
	other := SessionKey{TenantID: "globex", SessionID: "sess-1"}
	_, err = store.AppendTurn(ctx, other, RoleUser, "survivor", nil)
	require.NoError(t, err)

	require.NoError(t, store.DeleteTenant(ctx, "acme"))
	require.NoError(t, store.DeleteTenant(ctx, "acme")) // idempotent

	assert.Zero(t, store.Len(testKey))
	assert.Equal(t, 1, store.Len(other))
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(MemoryStoreConfig{TurnCap: 200}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := store.AppendTurn(ctx, testKey, RoleUser, fmt.Sprintf("w%d-%d", i, j), nil); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	turns, err := store.RecentTurns(ctx, testKey, 200)
	require.NoError(t, err)
	require.Len(t, turns, 100)

	seen := make(map[string]bool, len(turns))
	for _, turn := range turns {
		require.NotEmpty(t, turn.Content)
		require.False(t, seen[turn.ID], "duplicate turn ID %s", turn.ID)
		seen[turn.ID] = true
	}
}
