package chainsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Synchronizer drives exactly one sync attempt against exactly one peer per
// call to Sync. A Synchronizer is safe for concurrent use: an external
// scheduler is expected to invoke Sync concurrently across many
// Synchronizer instances (one per peer), or even concurrently against the
// same instance: ShouldStartSync's single-slot claim makes overlapping
// calls against the same peer collapse to a cheap Neutral rather than racing
// work.
type Synchronizer struct {
	log    *zap.Logger
	config Configuration

	comparator  ChainComparator
	tracker     *Tracker
	local       LocalChainApi
	shortHashes ShortHashesSupplier
	onTxRange   TransactionRangeConsumer
	metrics     SyncMetrics
}

// NewSynchronizer wires a Synchronizer from its collaborators. consumer
// receives block ranges accepted from peers; comparator decides how a local
// and remote chain relate; local exposes this node's own chain state;
// shortHashes cheaply snapshots locally-known unconfirmed transactions so
// equal-score peers are only asked for the ones this node lacks; onTxRange
// receives those transactions once fetched. metrics may be nil, disabling
// operational reporting.
func NewSynchronizer(log *zap.Logger, config Configuration, comparator ChainComparator, consumer BlockRangeConsumer, local LocalChainApi, shortHashes ShortHashesSupplier, onTxRange TransactionRangeConsumer, metrics SyncMetrics) *Synchronizer {
	return &Synchronizer{
		log:         log,
		config:      config,
		comparator:  comparator,
		tracker:     NewTracker(consumer, 3*int(config.MaxChainBytesPerSyncAttempt)),
		local:       local,
		shortHashes: shortHashes,
		onTxRange:   onTxRange,
		metrics:     metrics,
	}
}

// Sync performs one sync attempt against remote. It never blocks waiting
// for another attempt against the same peer to finish: if one is already in
// flight, or the tracker is over its byte budget, or the tracker is
// quarantined after a downstream failure, Sync returns Neutral immediately.
func (s *Synchronizer) Sync(ctx context.Context, remote RemoteApi) (NodeInteractionResult, error) {
	if !s.tracker.ShouldStartSync() {
		return Neutral, nil
	}
	defer s.tracker.ClearPendingSync()

	comparison, err := s.compareChains(ctx, remote.ChainAPI)
	if err != nil {
		s.log.Debug("chain comparison failed", zap.Error(err))
		return Failure, err
	}

	switch comparison.Code {
	case RemoteReportedEqualChainScore:
		return s.pullUnconfirmedTransactions(ctx, remote.TransactionAPI)

	case RemoteIsNotSynced:
		aggregator := NewRangeAggregator()
		fetch := func(ctx context.Context, height Height) (BlockRange, error) {
			return remote.ChainAPI.BlocksFrom(ctx, height, BlocksFromOptions{
				MaxRollbackBlocks:           s.config.MaxRollbackBlocks,
				MaxChainBytesPerSyncAttempt: s.config.MaxChainBytesPerSyncAttempt,
			})
		}
		result := pullBlocks(ctx, s.log, fetch, comparison.CommonBlockHeight+1, comparison.ForkDepth, aggregator, s.tracker, s.metrics)
		return result, nil

	default:
		result := ToNodeInteractionResult(comparison.Code)
		if result == Failure {
			s.log.Warn("chain comparison returned a protocol error", zap.Stringer("code", comparison.Code))
		}
		return result, nil
	}
}

// compareChains returns the fast-path comparison when the tracker already
// has elements resident: there is no point re-running the full comparator
// while earlier pulled ranges from this same peer are still being
// processed downstream, so the next pull simply continues from where the
// tracker left off. Otherwise it delegates to the configured
// ChainComparator.
func (s *Synchronizer) compareChains(ctx context.Context, remote ChainAPI) (CompareChainsResult, error) {
	if !s.tracker.Empty() {
		return CompareChainsResult{
			Code:              RemoteIsNotSynced,
			CommonBlockHeight: s.tracker.MaxHeight(),
			ForkDepth:         0,
		}, nil
	}
	return s.comparator.CompareChains(ctx, s.local, remote, CompareChainsOptions{
		MaxBlocksPerSyncAttempt: s.config.MaxBlocksPerSyncAttempt,
		MaxRollbackBlocks:       s.config.MaxRollbackBlocks,
	})
}

func (s *Synchronizer) pullUnconfirmedTransactions(ctx context.Context, txAPI TransactionAPI) (NodeInteractionResult, error) {
	hashes := s.shortHashes()
	txRange, err := txAPI.UnconfirmedTransactions(ctx, hashes)
	if err != nil {
		s.log.Debug("exception thrown while requesting unconfirmed transactions", zap.Error(err))
		return Failure, fmt.Errorf("chainsync: requesting unconfirmed transactions: %w", err)
	}
	s.onTxRange(txRange)
	return Neutral, nil
}
