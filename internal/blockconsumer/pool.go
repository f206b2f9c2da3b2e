// Package blockconsumer provides a worker-pool-backed chainsync.BlockRangeConsumer.
package blockconsumer

import (
	"context"
	"sync/atomic"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// BlockProcessor does whatever downstream work a single block requires
// (persistence, indexing, re-broadcast). Validation and hashing are out of
// scope for this package; a BlockProcessor is free to do either on its own
// terms.
type BlockProcessor interface {
	Process(ctx context.Context, block chainsync.Block) error
}

// Pool is a BlockRangeConsumer that hands each accepted range to a bounded
// set of worker goroutines, one block at a time per range, several ranges
// concurrently, trading a backfill/realtime priority split down to the
// single concurrency budget this engine's ranges need.
type Pool struct {
	log       *zap.SugaredLogger
	sem       *semaphore.Weighted
	processor BlockProcessor
	nextID    atomic.Uint64
}

// NewPool returns a Pool that runs up to concurrency ranges at once.
func NewPool(log *zap.SugaredLogger, processor BlockProcessor, concurrency int64) *Pool {
	return &Pool{
		log:       log,
		sem:       semaphore.NewWeighted(concurrency),
		processor: processor,
	}
}

// Consume implements chainsync.BlockRangeConsumer. It returns immediately
// with an ElementID and processes the range on a background goroutine,
// invoking onComplete exactly once when the range either finishes or a
// block in it fails.
func (p *Pool) Consume(r chainsync.BlockRange, onComplete func(chainsync.ElementID, chainsync.CompletionStatus)) chainsync.ElementID {
	id := chainsync.ElementID(p.nextID.Add(1))
	go p.run(id, r, onComplete)
	return id
}

func (p *Pool) run(id chainsync.ElementID, r chainsync.BlockRange, onComplete func(chainsync.ElementID, chainsync.CompletionStatus)) {
	ctx := context.Background()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.log.Warnw("failed to acquire worker slot", "element_id", id, "error", err)
		onComplete(id, chainsync.CompletionAborted)
		return
	}
	defer p.sem.Release(1)

	for _, block := range r.Blocks() {
		if err := p.processor.Process(ctx, block); err != nil {
			p.log.Warnw("failed processing block", "element_id", id, "height", block.Height, "error", err)
			onComplete(id, chainsync.CompletionAborted)
			return
		}
	}

	onComplete(id, chainsync.CompletionNormal)
}
