// Package scheduler drives repeated chain synchronizer attempts against a
// configured set of peers, one Synchronizer per peer, on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"github.com/ava-labs/chain-synchronizer/internal/chainsyncmetrics"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Peer pairs a peer identifier with its own Synchronizer and the
// collaborator it exposes for a single sync attempt. Each peer gets its
// own Synchronizer, and so its own UnprocessedElements tracker, so that
// one peer's backlog never throttles sync attempts against another.
type Peer struct {
	ID           string
	Synchronizer *chainsync.Synchronizer
	Remote       chainsync.RemoteApi
}

// PeerSource returns the current set of peers to sync against. It is
// called once per tick so that peer set changes (discovery, disconnects)
// take effect without restarting the scheduler; peer discovery itself is
// out of scope here.
type PeerSource func(ctx context.Context) ([]Peer, error)

// Start runs Peer.Synchronizer.Sync against every peer PeerSource returns,
// once per interval, bounding how many peers are synced concurrently with
// maxConcurrent. It returns when ctx is cancelled, or immediately if ctx is
// already cancelled.
func Start(ctx context.Context, log *zap.Logger, metrics *chainsyncmetrics.Metrics, peers PeerSource, interval time.Duration, maxConcurrent int64) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := runRound(ctx, log, metrics, peers, maxConcurrent); err != nil {
				log.Warn("sync round finished with errors", zap.Error(err))
			}
		}
	}
}

func runRound(ctx context.Context, log *zap.Logger, metrics *chainsyncmetrics.Metrics, peerSource PeerSource, maxConcurrent int64) error {
	peers, err := peerSource(ctx)
	if err != nil {
		return fmt.Errorf("listing peers: %w", err)
	}

	sem := semaphore.NewWeighted(maxConcurrent)
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var errs *multierror.Error

	for _, peer := range peers {
		peer := peer
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			result, err := peer.Synchronizer.Sync(gctx, peer.Remote)
			if metrics != nil {
				metrics.RecordSync(result)
			}
			if err != nil {
				log.Warn("sync attempt failed", zap.String("peer", peer.ID), zap.Error(err))
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("peer %s: %w", peer.ID, err))
				mu.Unlock()
				return nil
			}
			log.Debug("sync attempt finished", zap.String("peer", peer.ID), zap.Stringer("result", result))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errs.ErrorOrNil()
}
