package main

import (
	"context"
	"time"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"github.com/ava-labs/chain-synchronizer/internal/chainsyncmetrics"
)

// instrumentedChainAPI wraps a chainsync.ChainAPI, reporting each call's
// in-flight count, outcome, and duration through metrics.
type instrumentedChainAPI struct {
	inner   chainsync.ChainAPI
	metrics *chainsyncmetrics.Metrics
}

func (w instrumentedChainAPI) Score(ctx context.Context) (chainsync.ChainScore, error) {
	w.metrics.IncRPCInFlight()
	defer w.metrics.DecRPCInFlight()
	start := time.Now()
	score, err := w.inner.Score(ctx)
	w.metrics.RecordRPCCall("Score", err, time.Since(start).Seconds())
	return score, err
}

func (w instrumentedChainAPI) Height(ctx context.Context) (chainsync.Height, error) {
	w.metrics.IncRPCInFlight()
	defer w.metrics.DecRPCInFlight()
	start := time.Now()
	height, err := w.inner.Height(ctx)
	w.metrics.RecordRPCCall("Height", err, time.Since(start).Seconds())
	return height, err
}

func (w instrumentedChainAPI) HashAt(ctx context.Context, height chainsync.Height) ([32]byte, error) {
	w.metrics.IncRPCInFlight()
	defer w.metrics.DecRPCInFlight()
	start := time.Now()
	hash, err := w.inner.HashAt(ctx, height)
	w.metrics.RecordRPCCall("HashAt", err, time.Since(start).Seconds())
	return hash, err
}

func (w instrumentedChainAPI) BlocksFrom(ctx context.Context, height chainsync.Height, opts chainsync.BlocksFromOptions) (chainsync.BlockRange, error) {
	w.metrics.IncRPCInFlight()
	defer w.metrics.DecRPCInFlight()
	start := time.Now()
	blocks, err := w.inner.BlocksFrom(ctx, height, opts)
	w.metrics.RecordRPCCall("BlocksFrom", err, time.Since(start).Seconds())
	return blocks, err
}

// instrumentedTransactionAPI wraps a chainsync.TransactionAPI the same way.
type instrumentedTransactionAPI struct {
	inner   chainsync.TransactionAPI
	metrics *chainsyncmetrics.Metrics
}

func (w instrumentedTransactionAPI) UnconfirmedTransactions(ctx context.Context, shortHashes chainsync.ShortHashes) (chainsync.TransactionRange, error) {
	w.metrics.IncRPCInFlight()
	defer w.metrics.DecRPCInFlight()
	start := time.Now()
	txRange, err := w.inner.UnconfirmedTransactions(ctx, shortHashes)
	w.metrics.RecordRPCCall("UnconfirmedTransactions", err, time.Since(start).Seconds())
	return txRange, err
}

// newInstrumentedRemoteApi wraps peer's ChainAPI and TransactionAPI so every
// RPC issued against it is reported through metrics. peer must satisfy both
// interfaces, as every simulated peer built by buildDemoPeers does.
func newInstrumentedRemoteApi(peer interface {
	chainsync.ChainAPI
	chainsync.TransactionAPI
}, metrics *chainsyncmetrics.Metrics) chainsync.RemoteApi {
	return chainsync.RemoteApi{
		ChainAPI:       instrumentedChainAPI{inner: peer, metrics: metrics},
		TransactionAPI: instrumentedTransactionAPI{inner: peer, metrics: metrics},
	}
}
