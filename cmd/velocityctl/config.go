// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/espers/velocityd/chaincfg"
	"github.com/espers/velocityd/database/chainidx"
	vlog "github.com/espers/velocityd/internal/log"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultDbType      = chainidx.TypeLevelDB
	defaultLogLevel    = "info"
	defaultLogFilename = "velocityctl.log"
	defaultBatchSize   = 1000
	defaultLogDirname  = "logs"
	chainIdxNamePrefix = "chainidx"
)

var (
	velocityHomeDir = btcutil.AppDataDir("velocityd", false)
	defaultDataDir  = filepath.Join(velocityHomeDir, "data")
	defaultLogDir   = filepath.Join(velocityHomeDir, defaultLogDirname)
	knownDbTypes    = chainidx.SupportedTypes
)

// config defines the configuration options for velocityctl.
//
// See loadConfig for details on the configuration load process.
type config struct {
	DataDir        string `short:"b" long:"datadir" description:"Location of the chain index data directory"`
	LogDir         string `long:"logdir" description:"Directory to log output"`
	DbType         string `long:"dbtype" description:"Storage engine of the chain index {leveldb, pebble}"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	TestNet        bool   `long:"testnet" description:"Use the test network"`
	RegressionTest bool   `long:"regtest" description:"Use the regression test network"`
	ShowVersion    bool   `short:"V" long:"version" description:"Display version information and exit"`
	ListCommands   bool   `short:"l" long:"listcommands" description:"List all of the supported commands and exit"`
	BatchSize      int    `long:"batchsize" description:"Number of blocks to index per transaction when importing"`
	NoBest         bool   `long:"nobest" description:"Do not move the best chain tip when importing"`
	LocalWeight    uint64 `long:"localweight" description:"Stake weight of the local wallet for stakeinfo"`
	NetworkWeight  uint64 `long:"networkweight" description:"Estimated stake weight of the network for stakeinfo"`
	SearchInterval int64  `long:"searchinterval" description:"Duration in seconds of the last kernel search for stakeinfo -- 0 when not staking"`

	chainParams *chaincfg.Params
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// chainIdxPath returns the path of the chain index for the configured network
// and storage engine.
func (cfg *config) chainIdxPath() string {
	return filepath.Join(cfg.DataDir, chainIdxNamePrefix+"_"+cfg.DbType)
}

// loadConfig initializes and parses the config using the given command line
// arguments.  The arguments that are not options are returned.
func loadConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DbType:     defaultDbType,
		DebugLevel: defaultLogLevel,
		BatchSize:  defaultBatchSize,
	}

	// Parse command line options.
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] <command> <args...>"
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.  The
	// command list is handled by the caller.
	if cfg.ShowVersion || cfg.ListCommands {
		return &cfg, remainingArgs, nil
	}

	// Multiple networks can't be selected simultaneously.
	funcName := "loadConfig"
	netName := chaincfg.MainNetParams.Name
	numNets := 0
	if cfg.TestNet {
		numNets++
		netName = chaincfg.TestNetParams.Name
	}
	if cfg.RegressionTest {
		numNets++
		netName = chaincfg.RegressionNetParams.Name
	}
	if numNets > 1 {
		str := "%s: the testnet and regtest params can't be used " +
			"together -- choose one of the two"
		err := fmt.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}
	cfg.chainParams, err = chaincfg.ParamsForName(netName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", funcName, err)
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: the specified database type [%v] is invalid -- " +
			"supported types %v"
		err := fmt.Errorf(str, funcName, cfg.DbType, knownDbTypes)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate the log level.
	if !vlog.ValidLogLevel(cfg.DebugLevel) {
		str := "%s: the specified debug level [%v] is invalid"
		err := fmt.Errorf(str, funcName, cfg.DebugLevel)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	if cfg.BatchSize <= 0 {
		str := "%s: the batch size must be positive -- parsed [%v]"
		err := fmt.Errorf(str, funcName, cfg.BatchSize)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Append the network type to the data and log directories so they
	// are "namespaced" per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), netName)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), netName)

	return &cfg, remainingArgs, nil
}

// cleanAndExpandPath expands environment variables and a leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}
