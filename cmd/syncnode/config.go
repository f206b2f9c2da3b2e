package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the synchronizer's runtime configuration, loaded from the
// environment and an optional .env file.
type Config struct {
	Verbose bool `env:"VERBOSE" envDefault:"false"`

	SyncInterval       time.Duration `env:"SYNC_INTERVAL" envDefault:"2s"`
	MaxConcurrentPeers int64         `env:"MAX_CONCURRENT_PEERS" envDefault:"4"`

	MaxBlocksPerSyncAttempt     uint64 `env:"MAX_BLOCKS_PER_SYNC_ATTEMPT" envDefault:"100"`
	MaxRollbackBlocks           uint64 `env:"MAX_ROLLBACK_BLOCKS" envDefault:"20"`
	MaxChainBytesPerSyncAttempt uint64 `env:"MAX_CHAIN_BYTES_PER_SYNC_ATTEMPT" envDefault:"15000000"`

	BlockConsumerConcurrency int64 `env:"BLOCK_CONSUMER_CONCURRENCY" envDefault:"8"`

	DemoPeerCount int    `env:"DEMO_PEER_COUNT" envDefault:"3"`
	StartHeight   uint64 `env:"START_HEIGHT" envDefault:"0"`

	MetricsHost string `env:"METRICS_HOST" envDefault:"0.0.0.0"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9090"`
}

// MetricsAddr returns the formatted metrics listen address.
func (c Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// loadConfig parses Config from the environment, having first loaded
// envPath (if non-empty) into the process environment. An empty envPath
// loads no file; a non-empty envPath that cannot be loaded is an error.
func loadConfig(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("loading env file %q: %w", envPath, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
