package txpool

import (
	"testing"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"github.com/stretchr/testify/assert"
)

func TestPool_AddIsIdempotent(t *testing.T) {
	p := New()
	tx := chainsync.Transaction{ShortHash: chainsync.ShortHash{1, 2, 3, 4}, Size: 100}

	p.Add(tx)
	p.Add(tx)

	assert.Equal(t, 1, p.Len())
}

func TestPool_ShortHashesReflectsHeldTransactions(t *testing.T) {
	p := New()
	p.Add(chainsync.Transaction{ShortHash: chainsync.ShortHash{1}, Size: 10})
	p.Add(chainsync.Transaction{ShortHash: chainsync.ShortHash{2}, Size: 10})

	hashes := p.ShortHashes()
	assert.Len(t, hashes, 2)
	assert.Contains(t, hashes, chainsync.ShortHash{1})
	assert.Contains(t, hashes, chainsync.ShortHash{2})
}

func TestPool_OnTransactionRangeSkipsKnownHashes(t *testing.T) {
	p := New()
	p.Add(chainsync.Transaction{ShortHash: chainsync.ShortHash{1}, Size: 10})

	p.OnTransactionRange(chainsync.NewTransactionRange([]chainsync.Transaction{
		{ShortHash: chainsync.ShortHash{1}, Size: 999},
		{ShortHash: chainsync.ShortHash{2}, Size: 20},
	}))

	assert.Equal(t, 2, p.Len())
}

func TestPool_Remove(t *testing.T) {
	p := New()
	hash := chainsync.ShortHash{9}
	p.Add(chainsync.Transaction{ShortHash: hash, Size: 10})

	p.Remove(hash)

	assert.Equal(t, 0, p.Len())
}
