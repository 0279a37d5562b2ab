// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/espers/velocityd/blockchain"
	"github.com/espers/velocityd/chaincfg"
	"github.com/espers/velocityd/database/chainidx"
)

// maxDurationSeconds is the longest expected stake time shown as a duration.
const maxDurationSeconds = int64(math.MaxInt64 / time.Second)

// errUsage is returned when a command is called with the wrong arguments.
var errUsage = errors.New("invalid command usage")

// cmdContext houses what a command runs against.
type cmdContext struct {
	cfg    *config
	params *chaincfg.Params
	store  *chainidx.Store
	out    io.Writer
	now    func() time.Time
}

// walker returns a chain walker over the chain index.
func (c *cmdContext) walker() *blockchain.ChainWalker {
	return blockchain.NewChainWalker(c.store, c.params)
}

// command describes a velocityctl command.
type command struct {
	usage   string
	help    string
	minArgs int
	maxArgs int

	// create is set for commands which may create the chain index.
	create bool

	handler func(c *cmdContext, args []string) error
}

// commands maps the command names to their descriptions.
var commands = map[string]*command{
	"import": {
		usage:   "import <file|->",
		help:    "Add the blocks of a JSON lines file to the chain index",
		minArgs: 1,
		maxArgs: 1,
		create:  true,
		handler: handleImport,
	},
	"blockhash": {
		usage:   "blockhash <height>",
		help:    "Show the hash of the best chain block at a height",
		minArgs: 1,
		maxArgs: 1,
		handler: handleBlockHash,
	},
	"difficulty": {
		usage:   "difficulty [bits]",
		help:    "Show the difficulty of compact bits or of the best chain tip",
		maxArgs: 1,
		handler: handleDifficulty,
	},
	"stakeinfo": {
		usage:   "stakeinfo",
		help:    "Show staking statistics for the configured stake weights",
		handler: handleStakeInfo,
	},
	"check": {
		usage:   "check <height>",
		help:    "Show the Velocity tier in effect at a height",
		minArgs: 1,
		maxArgs: 1,
		handler: handleCheck,
	},
	"verify": {
		usage:   "verify",
		help:    "Check the best chain of the chain index links up to genesis",
		handler: handleVerify,
	},
}

// commandNames returns the sorted command names.
func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// listCommands writes the usage of every command.
func listCommands(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandNames() {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-20s %s\n", cmd.usage, cmd.help)
	}
}

// parseHeight parses a block height argument.
func parseHeight(str string) (int64, error) {
	height, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", str, err)
	}
	return height, nil
}

func handleImport(c *cmdContext, args []string) error {
	r := io.Reader(os.Stdin)
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	log.Infof("Importing blocks from %s", args[0])
	results, err := importBlocks(c.store, r, c.cfg.BatchSize, c.cfg.NoBest)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Imported %d blocks\n", results.blocksRead)
	if results.best != nil && !c.cfg.NoBest {
		fmt.Fprintf(c.out, "Best chain tip %v at height %d\n",
			results.best.Hash, results.best.Height)
	}
	return nil
}

func handleBlockHash(c *cmdContext, args []string) error {
	height, err := parseHeight(args[0])
	if err != nil {
		return err
	}
	hash, err := c.walker().BlockHashByHeight(height)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, hash)
	return nil
}

func handleDifficulty(c *cmdContext, args []string) error {
	var bits uint32
	if len(args) == 1 {
		var err error
		if bits, err = parseBits(args[0]); err != nil {
			return err
		}
	} else {
		tip, err := c.walker().BestBlock()
		if err != nil {
			return err
		}
		bits = tip.Bits
	}
	fmt.Fprintf(c.out, "%.8f\n", blockchain.CompactToDifficulty(bits))
	return nil
}

func handleStakeInfo(c *cmdContext, args []string) error {
	reporter := blockchain.NewStakeReporter(c.walker(), c.params, c.now)
	report, err := reporter.Report(c.cfg.LocalWeight, c.cfg.NetworkWeight,
		c.cfg.SearchInterval)
	if err != nil {
		return err
	}

	kind := "PoW"
	if report.ProofOfStake {
		kind = "PoS"
	}
	expected := "not staking"
	if report.Staking {
		expected = "never"
		if report.ExpectedSeconds <= maxDurationSeconds {
			d := time.Duration(report.ExpectedSeconds) * time.Second
			expected = d.String()
		}
	}

	w := c.out
	fmt.Fprintf(w, "Height:            %d\n", report.Height)
	fmt.Fprintf(w, "Hash:              %s\n", report.Hash)
	fmt.Fprintf(w, "Time:              %s\n", report.TipTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Block is %s\n", kind)
	fmt.Fprintf(w, "Difficulty:        %.8f\n", report.Difficulty)
	fmt.Fprintf(w, "Staking:           %v\n", report.Staking)
	fmt.Fprintf(w, "Expected time:     %s\n", expected)
	fmt.Fprintf(w, "Local weight:      %.2f%%\n", report.LocalSharePercent)
	fmt.Fprintf(w, "Network weight:    %.2f%%\n", report.NetworkSharePercent)
	fmt.Fprintf(w, "Blocks past hour:  %d\n", report.BlocksPastHour)
	fmt.Fprintf(w, "Blocks past day:   %d\n", report.BlocksPastDay)
	fmt.Fprintf(w, "Blocks past week:  %d\n", report.BlocksPastWeek)
	fmt.Fprintf(w, "Blocks past month: %d\n", report.BlocksPastMonth)
	return nil
}

func handleCheck(c *cmdContext, args []string) error {
	height, err := parseHeight(args[0])
	if err != nil {
		return err
	}

	idx, ok := c.params.VelocityTiers.Resolve(height)
	if !ok || !blockchain.VelocityActive(c.params, height) {
		fmt.Fprintf(c.out, "Velocity is not active at height %d on %s\n",
			height, c.params.Name)
		return nil
	}

	tier := &c.params.VelocityTiers[idx]
	fmt.Fprintf(c.out, "Velocity tier %d active at height %d on %s "+
		"(activated at %d)\n", idx, height, c.params.Name,
		tier.ActivationHeight)
	fmt.Fprintf(c.out, "  enabled:       %v\n", tier.Enabled)
	fmt.Fprintf(c.out, "  min tx count:  %d\n", tier.MinTxCount)
	fmt.Fprintf(c.out, "  min value:     %v\n", tier.MinValue)
	fmt.Fprintf(c.out, "  min fee:       %v\n", tier.MinFee)
	fmt.Fprintf(c.out, "  min rate:      %ds\n", tier.MinRateSeconds)
	fmt.Fprintf(c.out, "  target rate:   %ds\n", tier.TargetRateSeconds)
	fmt.Fprintf(c.out, "  explicit:      %v\n", tier.Explicit)
	return nil
}

func handleVerify(c *cmdContext, args []string) error {
	walker := c.walker()
	tip, err := walker.BestBlock()
	if err != nil {
		return err
	}

	// The walker checks every parent sits one height below its child, so
	// walking the whole best chain verifies its links.
	var pos int64
	for height := tip.Height; height >= 0; height-- {
		meta, err := walker.BlockByHeight(height)
		if err != nil {
			return fmt.Errorf("best chain broken at height %d: %w",
				height, err)
		}
		if height > 0 && meta.Timestamp <= 0 {
			return fmt.Errorf("block %v at height %d has invalid "+
				"time %d", meta.Hash, height, meta.Timestamp)
		}
		if meta.ProofOfStake {
			pos++
		}
	}
	genesis, err := walker.BlockByHeight(0)
	if err != nil {
		return err
	}

	var indexed int64
	err = c.store.ForEachBlock(func(*blockchain.BlockMeta) error {
		indexed++
		return nil
	})
	if err != nil {
		return err
	}

	chainLen := tip.Height + 1
	fmt.Fprintf(c.out, "Best chain of %d blocks from %v to %v is intact\n",
		chainLen, genesis.Hash, tip.Hash)
	fmt.Fprintf(c.out, "%d staked, %d mined, %d indexed blocks off the "+
		"best chain\n", pos, chainLen-pos, indexed-chainLen)
	return nil
}
