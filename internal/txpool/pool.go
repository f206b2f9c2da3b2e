// Package txpool is an in-memory unconfirmed-transaction pool exposing the
// collaborator shapes the chainsync engine needs to request only the
// transactions a peer holds that this node does not already have.
package txpool

import (
	"sync"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
)

// Pool is a thread-safe in-memory unconfirmed-transaction pool.
type Pool struct {
	mu           sync.Mutex
	transactions map[chainsync.ShortHash]chainsync.Transaction
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		transactions: make(map[chainsync.ShortHash]chainsync.Transaction, 1024),
	}
}

// Add records a transaction this node already holds, e.g. one submitted
// locally. Re-adding a known short hash is a no-op.
func (p *Pool) Add(tx chainsync.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.transactions[tx.ShortHash]; ok {
		return
	}
	p.transactions[tx.ShortHash] = tx
}

// ShortHashes implements chainsync.ShortHashesSupplier: a cheap snapshot of
// every short hash currently known, handed to a peer so it only returns
// transactions this node lacks.
func (p *Pool) ShortHashes() chainsync.ShortHashes {
	p.mu.Lock()
	defer p.mu.Unlock()
	hashes := make(chainsync.ShortHashes, 0, len(p.transactions))
	for h := range p.transactions {
		hashes = append(hashes, h)
	}
	return hashes
}

// OnTransactionRange implements chainsync.TransactionRangeConsumer: it
// records every transaction in the range the local pool does not already
// hold.
func (p *Pool) OnTransactionRange(r chainsync.TransactionRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range r.Transactions() {
		if _, ok := p.transactions[tx.ShortHash]; ok {
			continue
		}
		p.transactions[tx.ShortHash] = tx
	}
}

// Len returns the number of transactions currently held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transactions)
}

// Remove drops a transaction, e.g. once it has been included in a block.
func (p *Pool) Remove(hash chainsync.ShortHash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.transactions, hash)
}
