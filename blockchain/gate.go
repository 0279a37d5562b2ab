// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/lru"
	"github.com/espers/velocityd/chaincfg"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// defaultRejectCacheSize is the default number of rejected block hashes
	// the gate remembers.
	defaultRejectCacheSize = 500

	// resultAccepted is the metrics label value for accepted blocks.
	resultAccepted = "accepted"
)

// GateConfig is a descriptor which specifies the Velocity gate instance
// configuration.
type GateConfig struct {
	// ChainParams identifies which chain parameters the gate is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// Index is the chain index predecessors are looked up in.
	//
	// This field is required.
	Index ChainIndex

	// RejectCacheSize is the number of rejected block hashes to remember.
	// The default is used when it is zero.
	RejectCacheSize uint

	// Registerer is where the gate registers its metrics.  Metrics are
	// still collected but not exported when it is nil.
	Registerer prometheus.Registerer
}

// VelocityGate applies the Velocity constraints to blocks before they are
// connected to the chain.
type VelocityGate struct {
	params *chaincfg.Params
	index  ChainIndex

	// rejected houses the hashes of blocks that failed the Velocity
	// constraints so resubmissions are turned away without rechecking.
	rejected lru.Cache

	checked *prometheus.CounterVec
}

// NewVelocityGate returns a Velocity gate using the provided configuration.
func NewVelocityGate(cfg *GateConfig) (*VelocityGate, error) {
	if cfg.ChainParams == nil {
		return nil, AssertError("velocity gate created without chain " +
			"parameters")
	}
	if cfg.Index == nil {
		return nil, AssertError("velocity gate created without a chain " +
			"index")
	}

	cacheSize := cfg.RejectCacheSize
	if cacheSize == 0 {
		cacheSize = defaultRejectCacheSize
	}

	g := VelocityGate{
		params:   cfg.ChainParams,
		index:    cfg.Index,
		rejected: lru.NewCache(cacheSize),
		checked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velocity",
			Name:      "blocks_checked_total",
			Help:      "Number of blocks checked against the Velocity constraints by result.",
		}, []string{"result"}),
	}
	if cfg.Registerer != nil {
		if err := cfg.Registerer.Register(g.checked); err != nil {
			return nil, fmt.Errorf("unable to register velocity "+
				"metrics: %w", err)
		}
	}
	return &g, nil
}

// CheckBlock checks the block against the Velocity constraints of the tier
// active at its height.  The predecessor of the block must be part of the
// chain index.
//
// A block violating the constraints is rejected with a RuleError.  Any other
// error indicates an inconsistent chain index or malformed input.
func (g *VelocityGate) CheckBlock(block *btcutil.Block, prevOuts PrevOutputFetcher) error {
	hash := block.Hash()
	if g.rejected.Contains(*hash) {
		g.checked.WithLabelValues(ErrKnownInvalidBlock.String()).Inc()
		str := fmt.Sprintf("block %v was previously rejected by "+
			"Velocity", hash)
		return ruleError(ErrKnownInvalidBlock, str)
	}

	prevHash := &block.MsgBlock().Header.PrevBlock
	prev, err := g.index.LookupBlock(prevHash)
	if errors.Is(err, ErrBlockNotFound) {
		g.checked.WithLabelValues(ErrPreviousBlockUnknown.String()).Inc()
		str := fmt.Sprintf("previous block %v of block %v is unknown",
			prevHash, hash)
		return ruleError(ErrPreviousBlockUnknown, str)
	}
	if err != nil {
		return fmt.Errorf("unable to look up previous block %v: %w",
			prevHash, err)
	}

	VelocityActive(g.params, prev.Height+1)
	verdict, err := CheckBlockVelocity(block, prev, prevOuts,
		g.params.VelocityTiers)
	if err != nil {
		log.Errorf("Unable to check block %v against Velocity: %v",
			hash, err)
		return err
	}

	if !verdict.Accepted() {
		g.rejected.Add(*hash)
		g.checked.WithLabelValues(verdict.Reject.ErrorCode.String()).Inc()
		log.Warnf("DENIED: block %v at height %d: %v", hash,
			verdict.Height, verdict.Reject)
		return verdict.Err()
	}

	g.checked.WithLabelValues(resultAccepted).Inc()
	if verdict.RateSatisfied {
		log.Infof("ACCEPTED: block %v at height %d has met Velocity "+
			"constraints", hash, verdict.Height)
	}
	return nil
}
