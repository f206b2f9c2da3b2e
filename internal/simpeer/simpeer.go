// Package simpeer is an in-memory simulated peer exposing chainsync.ChainAPI
// and chainsync.TransactionAPI. Real peer wire transport is out of scope;
// this stands in for it in the demo binary and in tests that need a peer
// genuinely ahead of the local chain rather than a hand-rolled fake.
package simpeer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
)

var (
	_ chainsync.ChainAPI       = (*Peer)(nil)
	_ chainsync.TransactionAPI = (*Peer)(nil)
)

// Peer is a thread-safe simulated chain that forks from height 0 of the
// convention every chain in this process agrees on (hash is a deterministic
// function of height alone), so it can share a common prefix with a
// localchain.Chain started at the same height.
type Peer struct {
	mu           sync.Mutex
	height       chainsync.Height
	forkedAt     chainsync.Height
	score        int64
	transactions []chainsync.Transaction
}

// New returns a Peer holding blocks 0..height. forkedAt, if non-zero,
// causes HashAt to diverge from the shared convention starting at that
// height, simulating a peer on a fork.
func New(height chainsync.Height, forkedAt chainsync.Height) *Peer {
	return &Peer{height: height, forkedAt: forkedAt, score: int64(height)}
}

func (p *Peer) Score(ctx context.Context) (chainsync.ChainScore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return chainsync.ChainScore(p.score), nil
}

func (p *Peer) Height(ctx context.Context) (chainsync.Height, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height, nil
}

func (p *Peer) HashAt(ctx context.Context, height chainsync.Height) ([32]byte, error) {
	p.mu.Lock()
	forked := p.forkedAt != 0 && height >= p.forkedAt
	p.mu.Unlock()
	if forked {
		return forkedHash(height), nil
	}
	return sharedHash(height), nil
}

func (p *Peer) BlocksFrom(ctx context.Context, height chainsync.Height, opts chainsync.BlocksFromOptions) (chainsync.BlockRange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if height > p.height {
		return chainsync.EmptyBlockRange(), nil
	}

	max := opts.MaxRollbackBlocks
	if max == 0 {
		max = 1
	}
	end := height + chainsync.Height(max) - 1
	if end > p.height {
		end = p.height
	}

	blocks := make([]chainsync.Block, 0, end-height+1)
	for h := height; h <= end; h++ {
		blocks = append(blocks, chainsync.Block{Height: h, Size: 256})
	}
	return chainsync.NewBlockRange(blocks), nil
}

func (p *Peer) UnconfirmedTransactions(ctx context.Context, shortHashes chainsync.ShortHashes) (chainsync.TransactionRange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	known := make(map[chainsync.ShortHash]struct{}, len(shortHashes))
	for _, h := range shortHashes {
		known[h] = struct{}{}
	}

	var result []chainsync.Transaction
	for _, tx := range p.transactions {
		if _, ok := known[tx.ShortHash]; !ok {
			result = append(result, tx)
		}
	}
	return chainsync.NewTransactionRange(result), nil
}

// AddBlocks extends the peer's chain by n blocks.
func (p *Peer) AddBlocks(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.height += chainsync.Height(n)
	p.score += int64(n)
}

// AddTransaction makes an unconfirmed transaction available to request.
func (p *Peer) AddTransaction(tx chainsync.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, tx)
}

func sharedHash(height chainsync.Height) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(height))
	return sha256.Sum256(buf[:])
}

func forkedHash(height chainsync.Height) [32]byte {
	var buf [9]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(height))
	buf[8] = 0xFF
	return sha256.Sum256(buf[:])
}
