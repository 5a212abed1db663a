// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/constants"
)

var (
	ErrInvalidMaxTxsPerBlock   = errors.New("max txs per block must be positive")
	ErrInvalidMaxTxSize        = errors.New("max tx size must be positive")
	ErrInvalidMempoolSize      = errors.New("mempool size must be at least max txs per block")
	ErrInvalidBuildInterval    = errors.New("build interval must be positive")
	ErrInvalidMetricsNamespace = errors.New("metrics namespace must not be empty")
)

// Config provides execution parameters of the AMM VM.
type Config struct {
	IndexPositions   bool          `json:"index-positions"`
	MetricsNamespace string        `json:"metrics-namespace"`
	MaxTxsPerBlock   int           `json:"max-txs-per-block"`
	MaxTxSize        int           `json:"max-tx-size"`
	MempoolSize      int           `json:"mempool-size"`
	BuildInterval    time.Duration `json:"build-interval"`
}

func DefaultConfig() Config {
	return Config{
		IndexPositions:   true,
		MetricsNamespace: "amm",
		MaxTxsPerBlock:   256,
		MaxTxSize:        constants.MiB,
		MempoolSize:      4096,
		BuildInterval:    time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxTxsPerBlock <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidMaxTxsPerBlock, c.MaxTxsPerBlock)
	case c.MaxTxSize <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidMaxTxSize, c.MaxTxSize)
	case c.MempoolSize < c.MaxTxsPerBlock:
		return fmt.Errorf("%w: %d < %d", ErrInvalidMempoolSize, c.MempoolSize, c.MaxTxsPerBlock)
	case c.BuildInterval <= 0:
		return fmt.Errorf("%w: %s", ErrInvalidBuildInterval, c.BuildInterval)
	case c.MetricsNamespace == "":
		return ErrInvalidMetricsNamespace
	}
	return nil
}

// Parse unmarshals b over the default config and validates the result.
// Empty input yields the defaults.
func Parse(b []byte) (Config, error) {
	c := DefaultConfig()
	if len(b) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return c, c.Validate()
}
