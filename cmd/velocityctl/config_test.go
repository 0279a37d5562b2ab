// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/espers/velocityd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, args, err := loadConfig([]string{"blockhash", "5"})
	require.NoError(t, err)
	require.Equal(t, []string{"blockhash", "5"}, args)
	require.Equal(t, defaultDbType, cfg.DbType)
	require.Equal(t, defaultBatchSize, cfg.BatchSize)
	require.Same(t, &chaincfg.MainNetParams, cfg.chainParams)
	require.Equal(t, filepath.Join(defaultDataDir, "mainnet"), cfg.DataDir)
	require.Equal(t, filepath.Join(defaultDataDir, "mainnet",
		"chainidx_leveldb"), cfg.chainIdxPath())
}

func TestLoadConfigNetworks(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		args   []string
		params *chaincfg.Params
	}{
		{[]string{"--testnet"}, &chaincfg.TestNetParams},
		{[]string{"--regtest"}, &chaincfg.RegressionNetParams},
	}
	for _, test := range tests {
		args := append([]string{"-b", dir, "--dbtype", "pebble"}, test.args...)
		cfg, _, err := loadConfig(args)
		require.NoError(t, err, "args %v", test.args)
		require.Same(t, test.params, cfg.chainParams)
		require.Equal(t, filepath.Join(dir, test.params.Name), cfg.DataDir)
		require.Equal(t, filepath.Join(dir, test.params.Name,
			"chainidx_pebble"), cfg.chainIdxPath())
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"conflicting networks", []string{"--testnet", "--regtest"}},
		{"unknown db type", []string{"--dbtype", "ffldb"}},
		{"invalid debug level", []string{"-d", "loud"}},
		{"zero batch size", []string{"--batchsize", "0"}},
		{"unknown option", []string{"--bogus"}},
	}
	for _, test := range tests {
		_, _, err := loadConfig(test.args)
		require.Error(t, err, test.name)
	}
}

func TestLoadConfigVersion(t *testing.T) {
	// Validation is skipped when only the version is requested.
	cfg, _, err := loadConfig([]string{"-V", "--dbtype", "ffldb"})
	require.NoError(t, err)
	require.True(t, cfg.ShowVersion)
}

func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("VELOCITY_TEST_DIR", "/tmp/velocity")
	require.Equal(t, "/tmp/velocity/data",
		cleanAndExpandPath("$VELOCITY_TEST_DIR//data/"))
}
