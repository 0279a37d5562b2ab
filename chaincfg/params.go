// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"errors"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Params defines the network parameters the Velocity rule engine and the
// chain query helpers depend on.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.  Stake time estimates are expressed in multiples of it.
	TargetTimePerBlock time.Duration

	// GenesisEraHash is the identifier returned for block lookups below
	// height zero.
	GenesisEraHash *chainhash.Hash

	// VelocityTiers is the ordered table of block acceptance constraints
	// keyed by activation height.
	VelocityTiers VelocityTiers
}

// TargetSpacingSeconds returns the target block spacing in whole seconds.
func (p *Params) TargetSpacingSeconds() int64 {
	return int64(p.TargetTimePerBlock / time.Second)
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:               "mainnet",
	TargetTimePerBlock: time.Minute * 4,
	GenesisEraHash: newHashFromStr("351c6703813172725c6d660aa539ee6a" +
		"3d7a9fe784c87fae7f36582e3b797058"),

	// Minimum transaction counts, values and fees stay disabled on the main
	// network.  Only block spacing is constrained once the second tier
	// activates.
	VelocityTiers: VelocityTiers{
		{
			ActivationHeight: 0,
			Enabled:          true,
		},
		{
			ActivationHeight:  420000,
			Enabled:           true,
			MinRateSeconds:    30,
			TargetRateSeconds: 240,
		},
	},
}

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name:               "testnet",
	TargetTimePerBlock: time.Minute,
	GenesisEraHash:     &chainhash.Hash{},
	VelocityTiers: VelocityTiers{
		{
			ActivationHeight: 0,
			Enabled:          true,
			MinRateSeconds:   5,
		},
		{
			ActivationHeight:  1000,
			Enabled:           true,
			MinTxCount:        2,
			MinRateSeconds:    5,
			TargetRateSeconds: 60,
		},
	},
}

// RegressionNetParams defines the network parameters for the regression test
// network.  Velocity is never active on it.
var RegressionNetParams = Params{
	Name:               "regtest",
	TargetTimePerBlock: time.Minute,
	GenesisEraHash:     &chainhash.Hash{},
}

// ErrUnknownNet describes an error where the requested network name does not
// identify any of the known networks.
var ErrUnknownNet = errors.New("unknown network")

// knownNets houses the parameters of every network ParamsForName resolves.
var knownNets = []*Params{&MainNetParams, &TestNetParams, &RegressionNetParams}

// ParamsForName returns the parameters of the network with the given name.
// The lookup is case insensitive.
func ParamsForName(name string) (*Params, error) {
	for _, params := range knownNets {
		if strings.EqualFold(params.Name, name) {
			return params, nil
		}
	}
	return nil, ErrUnknownNet
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash.  It only differs from the one available in chainhash in that
// it panics on an error since it will only (and must only) be called with
// hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

func init() {
	for _, params := range knownNets {
		if err := params.VelocityTiers.Validate(); err != nil {
			panic(params.Name + ": " + err.Error())
		}
	}
}
