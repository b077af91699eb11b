package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetClearsError(t *testing.T) {
	store := NewStore()
	store.SetError("failed to load vault data")
	require.Equal(t, "failed to load vault data", store.Err())

	store.Set(&Snapshot{Debt: big.NewInt(0)})
	assert.Empty(t, store.Err())
	assert.NotNil(t, store.Vault())
}

func TestStoreSetErrorKeepsSnapshot(t *testing.T) {
	store := NewStore()
	snap := &Snapshot{Debt: big.NewInt(42)}
	store.Set(snap)

	store.SetError("price feed unavailable or stale")
	assert.Equal(t, snap, store.Vault())
	assert.Equal(t, "price feed unavailable or stale", store.Err())
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.Set(&Snapshot{Debt: big.NewInt(1)})
	store.SetLoading(true)
	store.SetError("boom")

	store.Clear()
	assert.Nil(t, store.Vault())
	assert.False(t, store.Loading())
	assert.Empty(t, store.Err())
}

func TestStoreNotifiesOnChange(t *testing.T) {
	store := NewStore()
	store.Set(&Snapshot{})

	select {
	case <-store.Changes():
	default:
		t.Fatal("expected a change notification")
	}

	// Signals coalesce: many writes, at most one pending signal
	store.SetLoading(true)
	store.SetError("x")
	select {
	case <-store.Changes():
	default:
		t.Fatal("expected a coalesced change notification")
	}
}
