// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/amm/vms/ammvm/config"
)

const (
	envPrefix = "AMMVM"

	ConfigFileKey       = "config-file"
	GenesisFileKey      = "genesis-file"
	DBDirKey            = "db-dir"
	HTTPHostKey         = "http-host"
	HTTPPortKey         = "http-port"
	AllowedOriginsKey   = "http-allowed-origins"
	IndexPositionsKey   = "index-positions"
	MetricsNamespaceKey = "metrics-namespace"
	MaxTxsPerBlockKey   = "max-txs-per-block"
	MaxTxSizeKey        = "max-tx-size"
	MempoolSizeKey      = "mempool-size"
	BuildIntervalKey    = "build-interval"
)

var errMissingGenesis = errors.New("a genesis file is required")

func AddFlags(flags *pflag.FlagSet) {
	defaults := config.DefaultConfig()

	flags.String(ConfigFileKey, "", "Config file to read flag values from (json, yaml or toml)")
	flags.String(GenesisFileKey, "", "Genesis file of the chain, json or yaml (required)")
	flags.String(DBDirKey, "", "Directory of the chain database. The chain is kept in memory when empty")
	flags.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	flags.Uint16(HTTPPortKey, 9650, "Port of the HTTP server")
	flags.StringSlice(AllowedOriginsKey, []string{"*"}, "Origins allowed to make cross-origin requests")
	flags.Bool(IndexPositionsKey, defaults.IndexPositions, "Index liquidity positions per provider")
	flags.String(MetricsNamespaceKey, defaults.MetricsNamespace, "Namespace of the exported metrics")
	flags.Int(MaxTxsPerBlockKey, defaults.MaxTxsPerBlock, "Maximum number of transactions in a block")
	flags.Int(MaxTxSizeKey, defaults.MaxTxSize, "Maximum size of a transaction in bytes")
	flags.Int(MempoolSizeKey, defaults.MempoolSize, "Maximum number of pending transactions")
	flags.Duration(BuildIntervalKey, defaults.BuildInterval, "Interval between block building attempts")
}

type Config struct {
	Genesis        []byte
	DBDir          string
	HTTPHost       string
	HTTPPort       uint16
	AllowedOrigins []string
	VM             config.Config
}

// ParseFlags resolves every flag from, in order of precedence, the command
// line, AMMVM_ prefixed environment variables and the config file.
func ParseFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	if path := v.GetString(ConfigFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	genesisPath := v.GetString(GenesisFileKey)
	if genesisPath == "" {
		return nil, errMissingGenesis
	}
	genesis, err := os.ReadFile(genesisPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	c := &Config{
		Genesis:        genesis,
		DBDir:          v.GetString(DBDirKey),
		HTTPHost:       v.GetString(HTTPHostKey),
		HTTPPort:       v.GetUint16(HTTPPortKey),
		AllowedOrigins: v.GetStringSlice(AllowedOriginsKey),
		VM: config.Config{
			IndexPositions:   v.GetBool(IndexPositionsKey),
			MetricsNamespace: v.GetString(MetricsNamespaceKey),
			MaxTxsPerBlock:   v.GetInt(MaxTxsPerBlockKey),
			MaxTxSize:        v.GetInt(MaxTxSizeKey),
			MempoolSize:      v.GetInt(MempoolSizeKey),
			BuildInterval:    v.GetDuration(BuildIntervalKey),
		},
	}
	return c, c.VM.Validate()
}
