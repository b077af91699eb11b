package activity

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func pendingEntry(id, txHash string, age time.Duration) *Entry {
	return &Entry{
		ID:         id,
		Kind:       KindDeposit,
		Amount:     "5",
		Token:      "S",
		Timestamp:  time.Now().Add(-age),
		TxHash:     txHash,
		Optimistic: true,
	}
}

func TestStoragePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")

	storage, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, storage.Add(pendingEntry("a", "0x01", 0)))
	require.NoError(t, storage.Add(pendingEntry("b", "0x02", 0)))

	reopened, err := NewStorage(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())

	ids := map[string]bool{}
	for _, entry := range reopened.List() {
		ids[entry.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
}

func TestStorageRemoveByTxHash(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "queue.json"))
	require.NoError(t, err)

	require.NoError(t, storage.Add(pendingEntry("a", "0x01", 0)))
	require.NoError(t, storage.Add(pendingEntry("b", "0x02", 0)))

	require.NoError(t, storage.RemoveByTxHash("0x01"))
	assert.Equal(t, 1, storage.Count())

	// Unknown hashes are a no-op
	require.NoError(t, storage.RemoveByTxHash("0xff"))
	assert.Equal(t, 1, storage.Count())
}

func TestStoragePruneExpired(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "queue.json"))
	require.NoError(t, err)

	require.NoError(t, storage.Add(pendingEntry("fresh", "0x01", time.Minute)))
	require.NoError(t, storage.Add(pendingEntry("stale", "0x02", 11*time.Minute)))

	removed, err := storage.PruneExpired(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining := storage.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].ID)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5", FormatAmount(wei(5)))
	assert.Equal(t, "0.5", FormatAmount(new(big.Int).Div(wei(1), big.NewInt(2))))
	assert.Equal(t, "0", FormatAmount(nil))
}
