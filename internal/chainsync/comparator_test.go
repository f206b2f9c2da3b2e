package chainsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	score  ChainScore
	height Height
	hashes map[Height][32]byte
}

func (c *fakeChain) Score(ctx context.Context) (ChainScore, error) { return c.score, nil }
func (c *fakeChain) Height(ctx context.Context) (Height, error)    { return c.height, nil }
func (c *fakeChain) HashAt(ctx context.Context, height Height) ([32]byte, error) {
	return c.hashes[height], nil
}
func (c *fakeChain) BlocksFrom(ctx context.Context, height Height, opts BlocksFromOptions) (BlockRange, error) {
	return EmptyBlockRange(), nil
}

func hashOf(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func TestDefaultComparator_EqualScore(t *testing.T) {
	local := &fakeChain{score: 10, height: 100}
	remote := &fakeChain{score: 10, height: 100}

	result, err := NewDefaultComparator().CompareChains(context.Background(), local, remote, CompareChainsOptions{MaxBlocksPerSyncAttempt: 10, MaxRollbackBlocks: 5})
	require.NoError(t, err)
	assert.Equal(t, RemoteReportedEqualChainScore, result.Code)
}

func TestDefaultComparator_LowerScore(t *testing.T) {
	local := &fakeChain{score: 10, height: 100}
	remote := &fakeChain{score: 5, height: 50}

	result, err := NewDefaultComparator().CompareChains(context.Background(), local, remote, CompareChainsOptions{MaxBlocksPerSyncAttempt: 10, MaxRollbackBlocks: 5})
	require.NoError(t, err)
	assert.Equal(t, RemoteReportedLowerChainScore, result.Code)
}

func TestDefaultComparator_HigherScoreButNotTallerIsALie(t *testing.T) {
	local := &fakeChain{score: 10, height: 100}
	remote := &fakeChain{score: 20, height: 90}

	result, err := NewDefaultComparator().CompareChains(context.Background(), local, remote, CompareChainsOptions{MaxBlocksPerSyncAttempt: 10, MaxRollbackBlocks: 5})
	require.NoError(t, err)
	assert.Equal(t, RemoteLiesAboutChain, result.Code)
}

func TestDefaultComparator_FindsCommonHeight(t *testing.T) {
	local := &fakeChain{
		score: 10, height: 100,
		hashes: map[Height][32]byte{100: hashOf(1), 99: hashOf(2), 98: hashOf(3)},
	}
	remote := &fakeChain{
		score: 20, height: 110,
		hashes: map[Height][32]byte{100: hashOf(9), 99: hashOf(2), 98: hashOf(3)},
	}

	result, err := NewDefaultComparator().CompareChains(context.Background(), local, remote, CompareChainsOptions{MaxBlocksPerSyncAttempt: 50, MaxRollbackBlocks: 5})
	require.NoError(t, err)
	assert.Equal(t, RemoteIsNotSynced, result.Code)
	assert.Equal(t, Height(99), result.CommonBlockHeight)
	assert.Equal(t, uint64(5), result.ForkDepth)
}

func TestDefaultComparator_NoCommonHeightWithinSearchFloorIsALie(t *testing.T) {
	// local height is below MaxBlocksPerSyncAttempt, so the search floor is
	// 0: this exercises the loop's unsigned-height boundary at height 0
	// rather than looping forever.
	local := &fakeChain{
		score: 10, height: 2,
		hashes: map[Height][32]byte{2: hashOf(1), 1: hashOf(2), 0: hashOf(3)},
	}
	remote := &fakeChain{
		score: 20, height: 12,
		hashes: map[Height][32]byte{2: hashOf(9), 1: hashOf(9), 0: hashOf(9)},
	}

	result, err := NewDefaultComparator().CompareChains(context.Background(), local, remote, CompareChainsOptions{MaxBlocksPerSyncAttempt: 50, MaxRollbackBlocks: 5})
	require.NoError(t, err)
	assert.Equal(t, RemoteLiesAboutChain, result.Code)
}

func TestToNodeInteractionResult(t *testing.T) {
	assert.Equal(t, Neutral, ToNodeInteractionResult(RemoteReportedLowerChainScore))
	assert.Equal(t, Failure, ToNodeInteractionResult(RemoteLiesAboutChain))
	assert.Equal(t, Failure, ToNodeInteractionResult(RemoteHasUnknownScore))
}
