// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/espers/velocityd/chaincfg"
)

// VelocityActive returns whether a Velocity tier is active at the given
// height.
func VelocityActive(params *chaincfg.Params, height int64) bool {
	log.Debugf("Checking for Velocity on block %d", height)
	if _, ok := params.VelocityTiers.Resolve(height); ok {
		log.Debugf("Velocity is currently enabled at height %d", height)
		return true
	}
	log.Debugf("Velocity is currently disabled at height %d", height)
	return false
}

// BlockSummary houses the aggregate transaction figures of a block the
// Velocity constraints are checked against.
type BlockSummary struct {
	// ValueOut is the total output value of every transaction in the
	// block, the coinbase included.
	ValueOut btcutil.Amount

	// ValueIn is the total value of the outputs spent by the block's
	// transactions.  A coinbase spends nothing and adds no input value.
	ValueIn btcutil.Amount

	// Fee is ValueIn minus ValueOut.
	Fee btcutil.Amount

	// TxCount is the number of transactions in the block.
	TxCount int64

	// TimeDelta is the number of seconds between the block and its parent.
	TimeDelta int64
}

// isNullOutPoint determines whether or not a previous transaction output point
// is set.
func isNullOutPoint(outpoint *wire.OutPoint) bool {
	return outpoint.Index == wire.MaxPrevOutIndex &&
		outpoint.Hash == chainhash.Hash{}
}

// isCoinBaseTx determines whether or not a transaction is a coinbase.  A
// coinbase is a special transaction created by miners that has no inputs.
// This is represented in the block chain by a transaction with a single input
// that has a previous output transaction index set to the maximum value along
// with a zero hash.
func isCoinBaseTx(msgTx *wire.MsgTx) bool {
	return len(msgTx.TxIn) == 1 &&
		isNullOutPoint(&msgTx.TxIn[0].PreviousOutPoint)
}

// addAmount adds value to total while keeping both within the range of valid
// amounts.  It returns false when either is out of range, so the running total
// never overflows.
func addAmount(total *int64, value int64) bool {
	if value < 0 || value > btcutil.MaxSatoshi {
		return false
	}
	if *total > btcutil.MaxSatoshi-value {
		return false
	}
	*total += value
	return true
}

// summarizeBlock aggregates the transactions of the block into a summary.  The
// outputs of every transaction count towards the value out and the spent
// outputs of every transaction but the coinbase count towards the value in.
//
// Output values outside the range of valid amounts, individually or summed
// over the block, are reported as a RuleError.  Unresolvable or out of range
// previous output values are reported as an AssertError since they are
// supplied by the caller.
func summarizeBlock(block *btcutil.Block, prev *BlockMeta,
	prevOuts PrevOutputFetcher) (*BlockSummary, error) {

	msgBlock := block.MsgBlock()
	summary := BlockSummary{
		TxCount:   int64(len(msgBlock.Transactions)),
		TimeDelta: msgBlock.Header.Timestamp.Unix() - prev.Timestamp,
	}

	var valueIn, valueOut int64
	for txIdx, msgTx := range msgBlock.Transactions {
		for outIdx, txOut := range msgTx.TxOut {
			if !addAmount(&valueOut, txOut.Value) {
				str := fmt.Sprintf("output %d of transaction %d "+
					"has value %d, block outputs total %d, "+
					"max allowed %d", outIdx, txIdx,
					txOut.Value, valueOut,
					int64(btcutil.MaxSatoshi))
				return nil, ruleError(ErrBadTxOutValue, str)
			}
		}

		if isCoinBaseTx(msgTx) {
			continue
		}
		for _, txIn := range msgTx.TxIn {
			if prevOuts == nil {
				return nil, AssertError("no previous output " +
					"values supplied for spending " +
					"transactions")
			}
			value, ok := prevOuts.FetchPrevOutputValue(
				txIn.PreviousOutPoint)
			if !ok {
				return nil, AssertError(fmt.Sprintf("transaction "+
					"%d of block %v spends unresolved output "+
					"%v", txIdx, block.Hash(),
					txIn.PreviousOutPoint))
			}
			if !addAmount(&valueIn, value) {
				return nil, AssertError(fmt.Sprintf("output %v "+
					"spent by transaction %d of block %v has "+
					"invalid value %d", txIn.PreviousOutPoint,
					txIdx, block.Hash(), value))
			}
		}
	}

	summary.ValueIn = btcutil.Amount(valueIn)
	summary.ValueOut = btcutil.Amount(valueOut)
	summary.Fee = summary.ValueIn - summary.ValueOut
	return &summary, nil
}

// VelocityVerdict is the outcome of checking a block against the Velocity
// constraints.  A rejection is a normal outcome and is carried by the verdict
// rather than returned as an error.
type VelocityVerdict struct {
	// Height is the height of the checked block.
	Height int64

	// Tier is the index of the tier the block was checked against or -1
	// when no tier is active at its height.
	Tier int

	// Summary is the aggregate of the block's transactions.  It is nil when
	// no tier is active or the block carries invalid output values.
	Summary *BlockSummary

	// RateSatisfied is set when the block came later than the target rate
	// of the tier.
	RateSatisfied bool

	// Reject describes the violated constraint.  It is nil for accepted
	// blocks.
	Reject *RuleError
}

// Accepted returns whether the block met the Velocity constraints.
func (v *VelocityVerdict) Accepted() bool {
	return v.Reject == nil
}

// Err returns the rejection as a RuleError, or nil when the block was
// accepted.
func (v *VelocityVerdict) Err() error {
	if v.Reject == nil {
		return nil
	}
	return *v.Reject
}

// reject marks the verdict as rejected with the given code and description.
func (v *VelocityVerdict) reject(c ErrorCode, desc string) *VelocityVerdict {
	rerr := ruleError(c, desc)
	v.Reject = &rerr
	return v
}

// CheckBlockVelocity checks the block against the Velocity tier active at its
// height.  The block must directly follow prev, whose height and timestamp
// must be known.  The previous output values are only consulted for the
// inputs of non-coinbase transactions and only when a tier is active.
//
// A violated constraint is reported through the returned verdict.  An error is
// only returned for malformed inputs, which indicate a bug in the caller.
func CheckBlockVelocity(block *btcutil.Block, prev *BlockMeta,
	prevOuts PrevOutputFetcher, tiers chaincfg.VelocityTiers) (*VelocityVerdict, error) {

	if block == nil || block.MsgBlock() == nil {
		return nil, AssertError("velocity check called without a block")
	}
	if prev == nil {
		return nil, AssertError("velocity check called without a " +
			"previous block")
	}
	if prev.Height < 0 || prev.Timestamp <= 0 {
		return nil, AssertError(fmt.Sprintf("previous block %v has "+
			"invalid height %d or timestamp %d", prev.Hash,
			prev.Height, prev.Timestamp))
	}
	if prevHash := &block.MsgBlock().Header.PrevBlock; *prevHash != prev.Hash {
		return nil, AssertError(fmt.Sprintf("block %v does not build on "+
			"previous block %v", block.Hash(), prev.Hash))
	}

	verdict := &VelocityVerdict{Height: prev.Height + 1, Tier: -1}
	tierIdx, ok := tiers.Resolve(verdict.Height)
	if !ok {
		return verdict, nil
	}
	verdict.Tier = tierIdx
	tier := &tiers[tierIdx]

	summary, err := summarizeBlock(block, prev, prevOuts)
	var rerr RuleError
	if errors.As(err, &rerr) {
		verdict.Reject = &rerr
		return verdict, nil
	}
	if err != nil {
		return nil, err
	}
	verdict.Summary = summary

	// Enforce the minimum number of transactions per block.
	if tier.Enabled && tier.MinTxCount > 0 &&
		summary.TxCount < tier.MinTxCount {

		str := fmt.Sprintf("insufficient transactions: block has %d, "+
			"tier %d requires %d", summary.TxCount, tierIdx,
			tier.MinTxCount)
		return verdict.reject(ErrVelocityTxCount, str), nil
	}

	// Authenticate the value and fees of the block's transactions.
	if tier.MinValue > 0 || tier.MinFee > 0 {
		// Blocks may not pay out more than the coins they spend.
		if tier.MinFee > 0 && summary.ValueIn > 0 &&
			summary.ValueIn < summary.ValueOut {

			str := fmt.Sprintf("insufficient funds for fee-bearing "+
				"transaction: inputs %v, outputs %v",
				summary.ValueIn, summary.ValueOut)
			return verdict.reject(ErrVelocityFunds, str), nil
		}
		if tier.MinValue > 0 && summary.ValueOut < tier.MinValue {
			str := fmt.Sprintf("value below minimum: block sends %v, "+
				"tier %d requires %v", summary.ValueOut, tierIdx,
				tier.MinValue)
			return verdict.reject(ErrVelocityValue, str), nil
		}
		if tier.MinFee > 0 && summary.ValueIn > 0 &&
			summary.Fee < tier.MinFee {

			str := fmt.Sprintf("fee below minimum: block pays %v, "+
				"tier %d requires %v", summary.Fee, tierIdx,
				tier.MinFee)
			return verdict.reject(ErrVelocityFee, str), nil
		}
	}

	// Blocks later than the target rate meet the rate constraints.  Blocks
	// that come too rapidly are rejected without exception.
	if tier.TargetRateSeconds > 0 &&
		summary.TimeDelta > tier.TargetRateSeconds {

		verdict.RateSatisfied = true
	} else if tier.MinRateSeconds > 0 &&
		summary.TimeDelta < tier.MinRateSeconds {

		str := fmt.Sprintf("block spacing too tight: %ds after previous "+
			"block, tier %d requires %ds", summary.TimeDelta, tierIdx,
			tier.MinRateSeconds)
		return verdict.reject(ErrVelocitySpacing, str), nil
	}

	if tier.Explicit && tier.HasMinimums() {
		str := fmt.Sprintf("explicit tier %d forbids blocks while "+
			"transaction minimums are configured", tierIdx)
		return verdict.reject(ErrVelocityExplicit, str), nil
	}

	return verdict, nil
}
