package chainsync

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// blocksFromFunc requests the blocks a peer holds starting at height. It is
// the Go shape of the reference's futureSupplier: a context-aware call that
// returns once the peer has answered (or the request failed), rather than a
// constructed future value.
type blocksFromFunc func(ctx context.Context, height Height) (BlockRange, error)

// SyncMetrics receives operational counters from the pull loop. A nil
// SyncMetrics is valid and simply disables reporting; callers that don't
// care about metrics pass nil rather than a no-op implementation.
type SyncMetrics interface {
	// RecordPull records one BlocksFrom request and the number of blocks it
	// returned.
	RecordPull(blocks int)
	// UpdateTrackerOccupancy reports the tracker's current resident bytes
	// and configured byte cap.
	UpdateTrackerOccupancy(bytes, maxBytes int)
}

// pullBlocks iteratively requests blocks from a peer starting at height,
// accumulating them into aggregator, stopping when the peer returns an
// empty range or forkDepth blocks have been accumulated, whichever comes
// first. It always issues at least one request, even when forkDepth is 0,
// matching the fast-path's single-request behavior.
//
// On success or a peer-returned-nothing stop, it hands the merged range (if
// any) to tracker.Add and reports Success or Neutral accordingly. On a
// request error it reports Failure without touching the tracker beyond
// what the caller does on every resolution path (clearing the pending-sync
// slot).
func pullBlocks(ctx context.Context, log *zap.Logger, fetch blocksFromFunc, height Height, forkDepth uint64, aggregator *RangeAggregator, tracker *Tracker, metrics SyncMetrics) NodeInteractionResult {
	for {
		r, err := fetch(ctx, height)
		if err != nil {
			log.Debug("exception thrown while requesting blocks", zap.Error(err))
			return Failure
		}
		if metrics != nil {
			metrics.RecordPull(r.Len())
		}

		if r.Empty() {
			log.Debug("peer returned 0 blocks")
			return finishPull(aggregator, tracker, metrics)
		}

		endHeight := r.LastHeight()
		log.Debug("peer returned blocks",
			zap.Int("count", r.Len()),
			zap.Uint64("from_height", uint64(r.FirstHeight())),
			zap.Uint64("to_height", uint64(endHeight)),
		)

		aggregator.Add(r)
		if uint64(aggregator.NumBlocks()) >= forkDepth {
			return finishPull(aggregator, tracker, metrics)
		}

		height = endHeight + 1
	}
}

func finishPull(aggregator *RangeAggregator, tracker *Tracker, metrics SyncMetrics) NodeInteractionResult {
	result := Neutral
	if !aggregator.Empty() {
		merged := aggregator.Merge()
		if tracker.Add(merged) {
			result = Success
		}
	}
	if metrics != nil {
		metrics.UpdateTrackerOccupancy(tracker.NumBytes(), tracker.MaxBytes())
	}
	return result
}

// errPeerUnreachable is a convenience sentinel callers of blocksFromFunc may
// wrap remote transport errors with; pullBlocks itself treats any non-nil
// error identically.
var errPeerUnreachable = errors.New("chainsync: peer unreachable")
