// Package localchain is a minimal, mutable LocalChainApi backing the
// synchronizer's view of this node's own chain state. Real deployments
// back chainsync.LocalChainApi with their actual block store; this
// implementation is deliberately in-memory, for the demo binary and
// for tests.
package localchain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
)

var _ chainsync.LocalChainApi = (*Chain)(nil)

// Chain is a thread-safe, append-only simulated chain: each block's hash is
// deterministically derived from its height, and score tracks height plus
// a configurable bias so peers can be made to look ahead, behind, or equal.
type Chain struct {
	mu     sync.Mutex
	height chainsync.Height
	bias   int64
}

// New returns a Chain starting at startHeight.
func New(startHeight chainsync.Height) *Chain {
	return &Chain{height: startHeight}
}

func (c *Chain) Score(ctx context.Context) (chainsync.ChainScore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return chainsync.ChainScore(int64(c.height) + c.bias), nil
}

func (c *Chain) Height(ctx context.Context) (chainsync.Height, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height, nil
}

func (c *Chain) HashAt(ctx context.Context, height chainsync.Height) ([32]byte, error) {
	return hashHeight(height), nil
}

// Advance moves the chain's tip forward by one block.
func (c *Chain) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
}

// SetBias adjusts the constant added to height when computing score,
// letting a demo peer be made to look ahead of or behind this chain
// without actually holding more blocks.
func (c *Chain) SetBias(bias int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bias = bias
}

func hashHeight(height chainsync.Height) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(height))
	return sha256.Sum256(buf[:])
}
