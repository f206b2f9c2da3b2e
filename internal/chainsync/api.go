package chainsync

import "context"

// ChainScore is an opaque, totally ordered measure of a chain's weight.
// The rules for computing it are an external collaborator (chain-scoring is
// explicitly out of scope); this engine only ever compares two scores for
// equality and ordering.
type ChainScore uint64

// ChainAPI is the subset of a node's chain state the comparator and the
// block pull loop need. The ChainAPI half of a RemoteApi satisfies this
// interface; LocalChainApi is the same set of methods without BlocksFrom,
// which is only ever called on the remote side.
type ChainAPI interface {
	// Score returns the chain's current score.
	Score(ctx context.Context) (ChainScore, error)
	// Height returns the chain's current height.
	Height(ctx context.Context) (Height, error)
	// HashAt returns an opaque identifier for the block at height, used by
	// the comparator to find the highest height at which two chains agree.
	// Hash algorithms are out of scope; this is treated as an opaque
	// comparable value.
	HashAt(ctx context.Context, height Height) ([32]byte, error)
	// BlocksFrom returns the blocks a peer holds starting at height,
	// bounded by opts. An empty BlockRange means the peer has nothing
	// further to offer.
	BlocksFrom(ctx context.Context, height Height, opts BlocksFromOptions) (BlockRange, error)
}

// LocalChainApi exposes local chain metadata to the comparator. It is never
// asked for blocks: the synchronizer only pulls from remote peers.
type LocalChainApi interface {
	Score(ctx context.Context) (ChainScore, error)
	Height(ctx context.Context) (Height, error)
	HashAt(ctx context.Context, height Height) ([32]byte, error)
}

// TransactionAPI requests unconfirmed transactions a peer holds that the
// local node's short-hash snapshot does not already cover.
type TransactionAPI interface {
	UnconfirmedTransactions(ctx context.Context, shortHashes ShortHashes) (TransactionRange, error)
}

// RemoteApi is the peer collaborator for a single sync attempt.
type RemoteApi struct {
	ChainAPI       ChainAPI
	TransactionAPI TransactionAPI
}

// BlocksFromOptions bounds a single blocksFrom request to a peer.
type BlocksFromOptions struct {
	MaxRollbackBlocks           uint64
	MaxChainBytesPerSyncAttempt uint64
}

// ShortHash is a compact, cheap-to-compare identifier for an unconfirmed
// transaction, used to request only the transactions a peer holds that the
// local node does not already have.
type ShortHash [4]byte

// ShortHashes is a snapshot of local unconfirmed-transaction short hashes.
type ShortHashes []ShortHash

// ShortHashesSupplier cheaply and synchronously snapshots local
// unconfirmed-transaction short hashes.
type ShortHashesSupplier func() ShortHashes

// Transaction is the minimal view of an unconfirmed transaction the engine
// needs to account for bytes handed to the transaction consumer.
type Transaction struct {
	ShortHash ShortHash
	Size      int
}

// TransactionRange is an ordered sequence of unconfirmed transactions with a
// known total byte size. It may be empty when a peer has nothing new.
type TransactionRange struct {
	transactions []Transaction
}

// NewTransactionRange builds a TransactionRange from transactions.
func NewTransactionRange(transactions []Transaction) TransactionRange {
	return TransactionRange{transactions: transactions}
}

// Len returns the number of transactions in the range.
func (r TransactionRange) Len() int { return len(r.transactions) }

// TotalSize returns the sum of the byte sizes of all transactions.
func (r TransactionRange) TotalSize() int {
	total := 0
	for _, tx := range r.transactions {
		total += tx.Size
	}
	return total
}

// Transactions returns the underlying transactions. Callers must treat the
// returned slice as read-only.
func (r TransactionRange) Transactions() []Transaction { return r.transactions }

// TransactionRangeConsumer is the fire-and-forget downstream consumer for
// unconfirmed transactions received from a peer.
type TransactionRangeConsumer func(TransactionRange)
