// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/amm/vms/ammvm/config"
)

const testGenesis = `{"nativeAsset":"native"}`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestParseFlagsDefaults(t *testing.T) {
	require := require.New(t)

	genesisPath := writeFile(t, "genesis.json", testGenesis)
	c, err := ParseFlags(newFlags(t, "--"+GenesisFileKey, genesisPath))
	require.NoError(err)
	require.Equal([]byte(testGenesis), c.Genesis)
	require.Empty(c.DBDir)
	require.Equal("127.0.0.1", c.HTTPHost)
	require.Equal(uint16(9650), c.HTTPPort)
	require.Equal([]string{"*"}, c.AllowedOrigins)
	require.Equal(config.DefaultConfig(), c.VM)
}

func TestParseFlagsOverrides(t *testing.T) {
	require := require.New(t)

	genesisPath := writeFile(t, "genesis.json", testGenesis)
	t.Setenv("AMMVM_MEMPOOL_SIZE", "64")
	c, err := ParseFlags(newFlags(t,
		"--"+GenesisFileKey, genesisPath,
		"--"+MaxTxsPerBlockKey, "8",
		"--"+BuildIntervalKey, "250ms",
		"--"+IndexPositionsKey+"=false",
		"--"+HTTPPortKey, "9999",
	))
	require.NoError(err)
	require.Equal(8, c.VM.MaxTxsPerBlock)
	require.Equal(64, c.VM.MempoolSize)
	require.Equal(250*time.Millisecond, c.VM.BuildInterval)
	require.False(c.VM.IndexPositions)
	require.Equal(uint16(9999), c.HTTPPort)
}

func TestParseFlagsConfigFile(t *testing.T) {
	require := require.New(t)

	genesisPath := writeFile(t, "genesis.json", testGenesis)
	configPath := writeFile(t, "config.yaml", "genesis-file: "+genesisPath+"\nmetrics-namespace: dex\nhttp-host: 0.0.0.0\n")
	c, err := ParseFlags(newFlags(t, "--"+ConfigFileKey, configPath))
	require.NoError(err)
	require.Equal("dex", c.VM.MetricsNamespace)
	require.Equal("0.0.0.0", c.HTTPHost)
}

func TestParseFlagsErrors(t *testing.T) {
	genesisPath := writeFile(t, "genesis.json", testGenesis)
	tests := []struct {
		name        string
		args        []string
		expectedErr error
	}{
		{
			name:        "missing genesis",
			expectedErr: errMissingGenesis,
		},
		{
			name: "mempool smaller than block",
			args: []string{
				"--" + GenesisFileKey, genesisPath,
				"--" + MaxTxsPerBlockKey, "10",
				"--" + MempoolSizeKey, "5",
			},
			expectedErr: config.ErrInvalidMempoolSize,
		},
		{
			name: "empty namespace",
			args: []string{
				"--" + GenesisFileKey, genesisPath,
				"--" + MetricsNamespaceKey, "",
			},
			expectedErr: config.ErrInvalidMetricsNamespace,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseFlags(newFlags(t, test.args...))
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}
