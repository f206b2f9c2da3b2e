package chainsync

import (
	"context"
	"fmt"
)

// ChainComparisonCode classifies the relationship between a local and
// remote chain, as determined by a ChainComparator.
type ChainComparisonCode int

const (
	// RemoteReportedEqualChainScore means the peer's tip has the same
	// score as the local tip; unconfirmed transactions should be
	// requested instead of blocks.
	RemoteReportedEqualChainScore ChainComparisonCode = iota
	// RemoteReportedLowerChainScore means the peer is behind; there is no
	// work to do.
	RemoteReportedLowerChainScore
	// RemoteIsNotSynced means the peer is ahead on a reconcilable chain.
	// CommonBlockHeight and ForkDepth are meaningful only for this code.
	RemoteIsNotSynced
	// RemoteLiesAboutChain means the peer reported chain state that could
	// not be reconciled with the local chain within the configured
	// blocks-per-attempt bound: a protocol error.
	RemoteLiesAboutChain
	// RemoteHasUnknownScore means the peer's reported score could not be
	// evaluated: a protocol error.
	RemoteHasUnknownScore
)

func (c ChainComparisonCode) String() string {
	switch c {
	case RemoteReportedEqualChainScore:
		return "Remote_Reported_Equal_Chain_Score"
	case RemoteReportedLowerChainScore:
		return "Remote_Reported_Lower_Chain_Score"
	case RemoteIsNotSynced:
		return "Remote_Is_Not_Synced"
	case RemoteLiesAboutChain:
		return "Remote_Lies_About_Chain"
	case RemoteHasUnknownScore:
		return "Remote_Has_Unknown_Score"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// CompareChainsResult is the outcome of a chain comparison.
// CommonBlockHeight and ForkDepth are only meaningful when Code is
// RemoteIsNotSynced.
type CompareChainsResult struct {
	Code              ChainComparisonCode
	CommonBlockHeight Height
	ForkDepth         uint64
}

// CompareChainsOptions bounds a single comparison attempt.
type CompareChainsOptions struct {
	MaxBlocksPerSyncAttempt uint64
	MaxRollbackBlocks       uint64
}

// ChainComparator decides the relationship between a local and a remote
// chain. The concrete comparison algorithm (how deep to search for a common
// block, how to weigh scores) is an external collaborator; this package
// only depends on the result contract above and ships one reference
// implementation for tests and the demo binary.
type ChainComparator interface {
	CompareChains(ctx context.Context, local LocalChainApi, remote ChainAPI, opts CompareChainsOptions) (CompareChainsResult, error)
}

// ToNodeInteractionResult maps a comparison code that is neither
// RemoteIsNotSynced nor RemoteReportedEqualChainScore onto a
// NodeInteractionResult: RemoteReportedLowerChainScore is Neutral, any
// other code is Failure. Callers should log at warning level when the
// result is Failure.
func ToNodeInteractionResult(code ChainComparisonCode) NodeInteractionResult {
	if code == RemoteReportedLowerChainScore {
		return Neutral
	}
	return Failure
}

// defaultComparator is a straightforward reference ChainComparator: it
// compares chain scores first, and when the remote is ahead, walks
// backwards from the local tip in steps of one looking for a height at
// which both chains agree on the block hash, bounded by
// MaxBlocksPerSyncAttempt. It is intentionally simple; production
// deployments are expected to bring their own comparator tuned to their
// network's fork characteristics.
type defaultComparator struct{}

// NewDefaultComparator returns the reference ChainComparator described
// above.
func NewDefaultComparator() ChainComparator {
	return defaultComparator{}
}

func (defaultComparator) CompareChains(ctx context.Context, local LocalChainApi, remote ChainAPI, opts CompareChainsOptions) (CompareChainsResult, error) {
	localScore, err := local.Score(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("chainsync: reading local score: %w", err)
	}
	remoteScore, err := remote.Score(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("chainsync: reading remote score: %w", err)
	}

	switch {
	case remoteScore == localScore:
		return CompareChainsResult{Code: RemoteReportedEqualChainScore}, nil
	case remoteScore < localScore:
		return CompareChainsResult{Code: RemoteReportedLowerChainScore}, nil
	}

	localHeight, err := local.Height(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("chainsync: reading local height: %w", err)
	}
	remoteHeight, err := remote.Height(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("chainsync: reading remote height: %w", err)
	}
	if remoteHeight <= localHeight {
		// Higher score but not a higher tip: not reconcilable by this
		// simple comparator.
		return CompareChainsResult{Code: RemoteLiesAboutChain}, nil
	}

	searchFloor := Height(0)
	if localHeight > Height(opts.MaxBlocksPerSyncAttempt) {
		searchFloor = localHeight - Height(opts.MaxBlocksPerSyncAttempt)
	}

	common := searchFloor
	found := false
	for h := localHeight; ; h-- {
		localHash, err := local.HashAt(ctx, h)
		if err != nil {
			return CompareChainsResult{}, fmt.Errorf("chainsync: reading local hash at %d: %w", h, err)
		}
		remoteHash, err := remote.HashAt(ctx, h)
		if err != nil {
			return CompareChainsResult{}, fmt.Errorf("chainsync: reading remote hash at %d: %w", h, err)
		}
		if localHash == remoteHash {
			common = h
			found = true
			break
		}
		if h == searchFloor {
			break
		}
	}
	if !found {
		return CompareChainsResult{Code: RemoteLiesAboutChain}, nil
	}

	// Only ever request MaxRollbackBlocks blocks past the common height:
	// even if the peer's range turns out to be a fork of the real chain,
	// that fork stays resolvable because the local chain can still roll
	// back that far.
	return CompareChainsResult{
		Code:              RemoteIsNotSynced,
		CommonBlockHeight: common,
		ForkDepth:         opts.MaxRollbackBlocks,
	}, nil
}
