// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/espers/velocityd/database/chainidx"
	"github.com/espers/velocityd/internal/limits"
	vlog "github.com/espers/velocityd/internal/log"
	"github.com/espers/velocityd/internal/version"
	flags "github.com/jessevdk/go-flags"
)

// log is the logger of the utility itself.
var log = vlog.VctlLog

// runCommand opens the chain index and runs the named command against it.
func runCommand(cfg *config, out io.Writer, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return fmt.Errorf("%w: %s", errUsage, cmd.usage)
	}

	if cmd.create {
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return err
		}
	}
	dbPath := cfg.chainIdxPath()
	log.Debugf("Loading chain index from '%s'", dbPath)
	store, err := chainidx.Open(cfg.DbType, dbPath, cmd.create)
	if err != nil {
		return err
	}
	defer store.Close()

	return cmd.handler(&cmdContext{
		cfg:    cfg,
		params: cfg.chainParams,
		store:  store,
		out:    out,
		now:    time.Now,
	}, args)
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	// Load configuration and parse command line.
	cfg, args, err := loadConfig(os.Args[1:])
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			listCommands(os.Stdout)
			return nil
		}
		return err
	}

	appName := filepath.Base(os.Args[0])
	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version.String())
		return nil
	}
	if cfg.ListCommands {
		listCommands(os.Stdout)
		return nil
	}
	if len(args) < 1 {
		listCommands(os.Stderr)
		return fmt.Errorf("%w: no command specified", errUsage)
	}

	// Setup logging.
	err = vlog.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	if err != nil {
		return err
	}
	defer vlog.LogRotator.Close()
	vlog.SetLogLevels(cfg.DebugLevel)

	if err := limits.SetLimits(); err != nil {
		log.Warnf("Unable to raise the open file limit: %v", err)
	}

	err = runCommand(cfg, os.Stdout, args[0], args[1:])
	if err != nil {
		log.Errorf("%s: %v", args[0], err)
		if errors.Is(err, errUsage) {
			listCommands(os.Stderr)
		}
	}
	return err
}

func main() {
	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
