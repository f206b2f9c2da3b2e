package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ava-labs/chain-synchronizer/internal/blockconsumer"
	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"github.com/ava-labs/chain-synchronizer/internal/chainsyncmetrics"
	"github.com/ava-labs/chain-synchronizer/internal/localchain"
	"github.com/ava-labs/chain-synchronizer/internal/simpeer"
	"github.com/ava-labs/chain-synchronizer/internal/txpool"
	"github.com/ava-labs/chain-synchronizer/pkg/metrics"
	"github.com/ava-labs/chain-synchronizer/pkg/scheduler"
	"github.com/ava-labs/chain-synchronizer/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// noopBlockProcessor logs and otherwise discards accepted blocks. Real
// deployments wire blockconsumer.Pool to their own persistence/indexing
// pipeline; that wiring is out of scope here.
type noopBlockProcessor struct {
	log *zap.SugaredLogger
}

func (p noopBlockProcessor) Process(ctx context.Context, block chainsync.Block) error {
	p.log.Debugw("accepted block", "height", block.Height, "size", block.Size)
	return nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c.String("env-file"))
	if err != nil {
		return err
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors
	log := sugar.Desugar()

	sugar.Infow("starting chain synchronizer",
		"syncInterval", cfg.SyncInterval,
		"maxConcurrentPeers", cfg.MaxConcurrentPeers,
		"demoPeerCount", cfg.DemoPeerCount,
	)

	reg := prometheus.NewRegistry()
	chainMetrics, err := chainsyncmetrics.New(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.MetricsAddr(), reg)
	metricsErrCh := metricsServer.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineConfig := chainsync.Configuration{
		MaxBlocksPerSyncAttempt:     cfg.MaxBlocksPerSyncAttempt,
		MaxRollbackBlocks:           cfg.MaxRollbackBlocks,
		MaxChainBytesPerSyncAttempt: cfg.MaxChainBytesPerSyncAttempt,
	}
	if err := engineConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	local := localchain.New(chainsync.Height(cfg.StartHeight))
	comparator := chainsync.NewDefaultComparator()
	consumer := blockconsumer.NewPool(sugar, noopBlockProcessor{log: sugar}, cfg.BlockConsumerConcurrency)
	txPool := txpool.New()

	peers := buildDemoPeers(cfg.DemoPeerCount, chainsync.Height(cfg.StartHeight))

	// Each peer gets its own Synchronizer, built once: a Synchronizer owns
	// the UnprocessedElements tracker for that peer, and that state must
	// survive across scheduler rounds rather than being rebuilt every tick.
	schedulerPeers := make([]scheduler.Peer, 0, len(peers))
	for id, peer := range peers {
		synchronizer := chainsync.NewSynchronizer(log, engineConfig, comparator, consumer, local, txPool.ShortHashes, txPool.OnTransactionRange, chainMetrics)
		schedulerPeers = append(schedulerPeers, scheduler.Peer{
			ID:           id,
			Synchronizer: synchronizer,
			Remote:       newInstrumentedRemoteApi(peer, chainMetrics),
		})
	}
	peerSource := func(ctx context.Context) ([]scheduler.Peer, error) {
		return schedulerPeers, nil
	}

	schedulerErrCh := make(chan error, 1)
	go func() {
		schedulerErrCh <- scheduler.Start(ctx, log, chainMetrics, peerSource, cfg.SyncInterval, cfg.MaxConcurrentPeers)
	}()

	select {
	case <-ctx.Done():
		sugar.Info("shutting down")
	case err := <-schedulerErrCh:
		if err != nil {
			sugar.Errorw("scheduler exited", "error", err)
			return err
		}
	case err := <-metricsErrCh:
		if err != nil {
			sugar.Errorw("metrics server exited", "error", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Warnw("metrics server shutdown error", "error", err)
	}

	return nil
}

// buildDemoPeers wires count simulated peers, peer i holding 10*(i+1) more
// blocks than the local chain's start height and none of them forked, so
// every peer starts out on the comparator's not-synced path. Real peer
// discovery and transport are out of scope for this binary.
func buildDemoPeers(count int, startHeight chainsync.Height) map[string]*simpeer.Peer {
	peers := make(map[string]*simpeer.Peer, count)
	for i := 0; i < count; i++ {
		ahead := chainsync.Height(10 * (i + 1))
		peers[fmt.Sprintf("peer-%d", i)] = simpeer.New(startHeight+ahead, 0)
	}
	return peers
}
